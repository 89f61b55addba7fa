package pathresolve

import "testing"

func TestLocalFileAbsolute(t *testing.T) {
	got, err := LocalFile("/etc/passwd", "/pub", "/cwd")
	if err != nil || got != "/etc/passwd" {
		t.Fatalf("got %q, %v", got, err)
	}
}

// spec.md §4.A rule 4: a plain relative token resolves against the
// caller's working directory, not the public directory.
func TestLocalFileRelativeUsesWorkingDir(t *testing.T) {
	got, err := LocalFile("report.txt", "/pub", "/cwd")
	if err != nil || got != "/cwd/report.txt" {
		t.Fatalf("got %q, %v", got, err)
	}
}

// spec.md §4.A rule 2: "~" and "~/rest" resolve against the public
// directory, independent of the working directory.
func TestLocalFileBareTilde(t *testing.T) {
	got, err := LocalFile("~", "/pub", "/cwd")
	if err != nil || got != "/pub" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestLocalFileTildeSlash(t *testing.T) {
	got, err := LocalFile("~/incoming/a.txt", "/pub", "/cwd")
	if err != nil || got != "/pub/incoming/a.txt" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestLocalFileUnknownUser(t *testing.T) {
	_, err := LocalFile("~no-such-user-xyz/a.txt", "/pub", "/cwd")
	if err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestDirWithBaseNonDirectory(t *testing.T) {
	got := DirWithBase("/spool/out.dat", "in/report.txt", func(string) bool { return false })
	if got != "/spool/out.dat" {
		t.Errorf("got %q", got)
	}
}

func TestDirWithBaseDirectory(t *testing.T) {
	got := DirWithBase("/spool/incoming/", "in/report.txt", func(string) bool { return true })
	if got != "/spool/incoming/report.txt" {
		t.Errorf("got %q", got)
	}
}
