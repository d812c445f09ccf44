package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/falconindy/pkgfile/internal/pacmanconf"
)

// candidateURLs builds one URL per (server, architecture) pair in
// configured order, substituting $repo/$arch into each mirror template
// — spec step 1 of the per-repo update algorithm.
func candidateURLs(repo pacmanconf.Repo, archs []string) []string {
	if len(archs) == 0 {
		archs = []string{""}
	}
	urls := make([]string, 0, len(repo.Servers)*len(archs))
	for _, server := range repo.Servers {
		for _, arch := range archs {
			urls = append(urls, pacmanconf.ExpandServerURL(server, repo.Name, arch))
		}
	}
	return urls
}

// httpFetch issues a conditional GET against url. hasRef controls
// whether If-Modified-Since is sent at all (force mode and repos with
// no existing chunks send no conditional header, matching the "-inf
// reference mtime" semantics). notModified is true only on a 304; in
// that case body is nil and already closed.
func httpFetch(ctx context.Context, client *http.Client, url string, refMtime int64, hasRef bool) (body io.ReadCloser, lastModified time.Time, notModified bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("build request: %w", err)
	}
	if hasRef {
		req.Header.Set("If-Modified-Since", time.Unix(refMtime, 0).UTC().Format(http.TimeFormat))
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, time.Time{}, false, err
	}

	switch resp.StatusCode {
	case http.StatusNotModified:
		resp.Body.Close()
		return nil, time.Time{}, true, nil
	case http.StatusOK:
		lm := time.Time{}
		if v := resp.Header.Get("Last-Modified"); v != "" {
			if t, perr := http.ParseTime(v); perr == nil {
				lm = t
			}
		}
		return resp.Body, lm, false, nil
	default:
		resp.Body.Close()
		return nil, time.Time{}, false, fmt.Errorf("unexpected response status %s", resp.Status)
	}
}
