package main

import "testing"

func TestParseFlagsForceUpdateCountsRepeats(t *testing.T) {
	f, err := parseFlags([]string{"-uu"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if f.updateCount != 2 {
		t.Errorf("updateCount = %d, want 2", f.updateCount)
	}
}

func TestParseFlagsSoftUpdate(t *testing.T) {
	f, err := parseFlags([]string{"-u"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if f.updateCount != 1 {
		t.Errorf("updateCount = %d, want 1", f.updateCount)
	}
}

func TestParseFlagsUpdateRejectsArguments(t *testing.T) {
	if _, err := parseFlags([]string{"-u", "dhcpcd"}); err == nil {
		t.Fatal("expected error for update with a positional argument")
	}
}

func TestParseFlagsRequiresTargetWithoutUpdate(t *testing.T) {
	if _, err := parseFlags(nil); err == nil {
		t.Fatal("expected error for missing search/list target")
	}
}

func TestParseFlagsSearchOptions(t *testing.T) {
	f, err := parseFlags([]string{"-v", "-g", "/usr/lib/dhcpcd/dhcpcd-hooks/*"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if !f.verbose || !f.glob {
		t.Errorf("verbose=%v glob=%v, want both true", f.verbose, f.glob)
	}
	if f.target != "/usr/lib/dhcpcd/dhcpcd-hooks/*" {
		t.Errorf("target = %q", f.target)
	}
}

func TestParseFlagsListOptions(t *testing.T) {
	f, err := parseFlags([]string{"-l", "-b", "dhcpcd"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if !f.list || !f.binaries {
		t.Errorf("list=%v binaries=%v, want both true", f.list, f.binaries)
	}
}

func TestParseFlagsCacheDirAndChunkBytes(t *testing.T) {
	f, err := parseFlags([]string{"--cachedir=/tmp/x", "--repochunkbytes=5000", "dhcpcd"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if f.cacheDir != "/tmp/x" || f.repoChunkBytes != 5000 {
		t.Errorf("cacheDir=%q repoChunkBytes=%d", f.cacheDir, f.repoChunkBytes)
	}
}
