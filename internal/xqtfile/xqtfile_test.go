package xqtfile

import "testing"

func TestRenderMatchesRemoteExecSpecExample(t *testing.T) {
	f := New("u", "localhost")
	f.StageFile("D.hostn0001", "")
	f.Stdin("D.hostn0001")
	f.Command("rmail", []string{"foo@bar"})

	want := "U u localhost\n" +
		"F D.hostn0001\n" +
		"I D.hostn0001\n" +
		"C rmail foo@bar\n"
	if got := f.Render(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderStdoutRedirectToThirdHost(t *testing.T) {
	f := New("u", "host1")
	f.Stdout("/out", "host2")
	f.Command("cmd", []string{"arg"})

	want := "U u host1\n" +
		"O /out host2\n" +
		"C cmd arg\n"
	if got := f.Render(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCommandStripsParentheses(t *testing.T) {
	f := New("u", "localhost")
	f.Command("rmail", []string{"(foo!bar)"})

	want := "U u localhost\nC rmail foo!bar\n"
	if got := f.Render(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUAlwaysFirstAndCAlwaysLastRegardlessOfCallOrder(t *testing.T) {
	f := New("u", "localhost")
	f.NotifyAddress("u@localhost")
	f.SuppressSuccessMail()
	f.Command("true", nil)
	f.StatusFile("/tmp/status")

	got := f.Render()
	if got[:1] != "U" {
		t.Errorf("expected U line first, got %q", got)
	}
	lines := 0
	for _, c := range got {
		if c == '\n' {
			lines++
		}
	}
	if lines != 5 {
		t.Errorf("expected 5 lines, got %d: %q", lines, got)
	}
	// C must be the final line.
	want := "U u localhost\nR u@localhost\nN\nM /tmp/status\nC true\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
