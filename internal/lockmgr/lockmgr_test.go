package lockmgr

import (
	"os"
	"strconv"
	"testing"
)

func TestAcquireThenReleaseAllowsReacquire(t *testing.T) {
	dir := t.TempDir()
	m := New(dir)

	ok, err := m.Acquire(System("beta"))
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if !m.IsLocked(System("beta")) {
		t.Fatal("expected lock to be held")
	}

	ok, err = m.Acquire(System("beta"))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected second acquire to fail while held")
	}

	if err := m.Release(System("beta")); err != nil {
		t.Fatal(err)
	}
	if m.IsLocked(System("beta")) {
		t.Fatal("expected lock released")
	}

	ok, err = m.Acquire(System("beta"))
	if err != nil || !ok {
		t.Fatalf("reacquire after release: ok=%v err=%v", ok, err)
	}
}

func TestAcquireBreaksStaleLock(t *testing.T) {
	dir := t.TempDir()
	m := New(dir)

	// A lock file naming a PID that is certainly not alive.
	stalePID := 999999
	path := dir + "/" + Command("rmail")
	if err := os.WriteFile(path, []byte(strconv.Itoa(stalePID)+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ok, err := m.Acquire(Command("rmail"))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected stale lock to be broken and reacquired")
	}
}

func TestSystemLockNameTruncates(t *testing.T) {
	got := System("averylonghostname")
	want := "LCK..averylon"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExecuteFileAndDirNames(t *testing.T) {
	if got := ExecuteFile("X.hostn0001"); got != "LCK.X.X.hostn0001" {
		t.Errorf("got %q", got)
	}
	if ExecuteDir != "LCK.XQT" {
		t.Errorf("ExecuteDir = %q", ExecuteDir)
	}
}
