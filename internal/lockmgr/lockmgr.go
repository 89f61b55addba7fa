// Package lockmgr implements the advisory, file-backed locks the spool
// depends on for mutual exclusion: peer locks, command-class executor
// locks, execute-file locks, and the execute-directory lock. It follows
// Taylor UUCP's lcksys.c convention of an exclusively-created lock file
// whose content (a PID) is used only to detect and break stale locks —
// the lock itself is the file's presence, not its content.
package lockmgr

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// Manager acquires and releases named locks under a single lock directory.
type Manager struct {
	dir string
}

// New returns a Manager rooted at dir (the configured LockDir).
func New(dir string) *Manager {
	return &Manager{dir: dir}
}

// System names the peer lock for host, LCK..<system>, truncated to the
// 8-character legacy namer budget the original applies via "%.8s".
func System(host string) string {
	return "LCK.." + truncate(host, 8)
}

// Command names the executor lock for a command class (e.g. "rmail").
func Command(cmd string) string {
	return "LCK.." + truncate(cmd, 8)
}

// ExecuteFile names the lock for an in-progress execute file identified by
// its base spool name (e.g. "X.hostn0001").
func ExecuteFile(base string) string {
	return "LCK.X." + base
}

// ExecuteDir is the well-known lock serialising the shared execution
// working directory.
const ExecuteDir = "LCK.XQT"

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// Acquire creates name exclusively in the lock directory, writing the
// calling process's PID as its content. If name already exists and the
// recorded PID no longer belongs to a live process, the stale lock is
// broken and acquisition retried once; otherwise Acquire reports that the
// lock is held.
func (m *Manager) Acquire(name string) (bool, error) {
	path := m.dir + "/" + name

	ok, err := m.tryCreate(path)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	if m.breakIfStale(path) {
		ok, err = m.tryCreate(path)
		if err != nil {
			return false, err
		}
		return ok, nil
	}

	return false, nil
}

func (m *Manager) tryCreate(path string) (bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("lockmgr: create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		return false, fmt.Errorf("lockmgr: write pid to %s: %w", path, err)
	}
	return true, nil
}

// breakIfStale removes path if its recorded PID does not belong to a live
// process. It reports whether the lock was removed.
func (m *Manager) breakIfStale(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false
	}
	if processAlive(pid) {
		return false
	}
	return os.Remove(path) == nil
}

// processAlive reports whether pid names a live process, using signal 0
// (no-op existence probe) the way the original's stale-lock check does.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// Release removes name from the lock directory. Releasing a lock that is
// not held is not an error.
func (m *Manager) Release(name string) error {
	path := m.dir + "/" + name
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("lockmgr: release %s: %w", path, err)
	}
	return nil
}

// IsLocked reports whether name is currently held.
func (m *Manager) IsLocked(name string) bool {
	_, err := os.Stat(m.dir + "/" + name)
	return err == nil
}
