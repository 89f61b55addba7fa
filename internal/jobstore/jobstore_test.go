package jobstore

import "testing"

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNextStartsAtOneAndIncrements(t *testing.T) {
	s := openTest(t)

	first, err := s.Next("beta", 'n', 'D')
	if err != nil {
		t.Fatal(err)
	}
	if first != 1 {
		t.Errorf("first = %d, want 1", first)
	}

	second, err := s.Next("beta", 'n', 'D')
	if err != nil {
		t.Fatal(err)
	}
	if second != 2 {
		t.Errorf("second = %d, want 2", second)
	}
}

func TestNextIsPerHostGradeAndLetter(t *testing.T) {
	s := openTest(t)

	a, _ := s.Next("beta", 'n', 'D')
	b, _ := s.Next("gamma", 'n', 'D')
	c, _ := s.Next("beta", 'd', 'D')
	x, _ := s.Next("beta", 'n', 'X')

	if a != 1 || b != 1 || c != 1 || x != 1 {
		t.Errorf("expected independent counters, got %d %d %d %d", a, b, c, x)
	}
}

func TestRecordJobAndJobsForHost(t *testing.T) {
	s := openTest(t)

	if err := s.RecordJob("job-1", "beta", "n", "alice", "C.betan0001", 1000); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordJob("job-2", "beta", "d", "bob", "C.betad0001", 2000); err != nil {
		t.Fatal(err)
	}

	jobs, err := s.JobsForHost("beta")
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
	if jobs[0].JobID != "job-2" {
		t.Errorf("expected most recent first, got %q", jobs[0].JobID)
	}
}
