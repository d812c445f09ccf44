package pacmanconf

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// expandIncludes reads path and recursively splices the contents of any
// "Include = <glob>" line in place, matching pacman.conf's own Include
// directive: included files (typically a mirrorlist) contribute their
// lines directly under whatever section the Include line appeared in,
// rather than requiring their own section header.
//
// seen guards against include cycles.
func expandIncludes(path string, seen map[string]bool) ([]byte, error) {
	if seen == nil {
		seen = make(map[string]bool)
	}
	if seen[path] {
		return nil, fmt.Errorf("include cycle at %s", path)
	}
	seen[path] = true
	defer delete(seen, path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var out strings.Builder
	for _, line := range strings.Split(string(raw), "\n") {
		trimmed := strings.TrimSpace(line)
		key, value, ok := splitIncludeLine(trimmed)
		if !ok || !strings.EqualFold(key, "Include") {
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}

		matches, err := doublestar.FilepathGlob(value)
		if err != nil {
			return nil, fmt.Errorf("include glob %s: %w", value, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			included, err := expandIncludes(m, seen)
			if err != nil {
				return nil, err
			}
			out.Write(included)
			out.WriteByte('\n')
		}
	}

	return []byte(out.String()), nil
}

// splitIncludeLine recognizes "Key = value" / "Key=value" lines the way
// pacman.conf itself does, independent of the ini parser (Include must
// be handled before the file is even valid context-free INI, since the
// included content has no section header of its own).
func splitIncludeLine(line string) (key, value string, ok bool) {
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
		return "", "", false
	}
	i := strings.IndexByte(line, '=')
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}
