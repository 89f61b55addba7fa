package submit

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/uuship/uuship/internal/config"
	"github.com/uuship/uuship/internal/jobstore"
	"github.com/uuship/uuship/internal/logsink"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestPipeline(t *testing.T, hostName string) (*Pipeline, string) {
	t.Helper()
	spoolDir := t.TempDir()
	lockDir := t.TempDir()

	cfg := config.Default()
	cfg.Spool.LockDir = lockDir
	cfg.Hosts = []config.Host{
		{Name: hostName, SpoolDir: spoolDir, DefaultGrade: "n"},
	}
	cfg.Reindex()

	store, err := jobstore.Open(":memory:")
	if err != nil {
		t.Fatalf("jobstore.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sink := logsink.New(logsink.Taylor, "uuship", &bytes.Buffer{}, &bytes.Buffer{})

	p := New(cfg, store, sink, noop.NewTracerProvider().Tracer("test"))
	p.currDir = func() (string, error) { return "/home/u", nil }
	return p, spoolDir
}

func readSpoolFile(t *testing.T, spoolDir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(spoolDir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

// S1: local-to-remote copy, no spool copy.
func TestCopyOutNoSpoolCopyMatchesScenarioS1(t *testing.T) {
	p, spoolDir := newTestPipeline(t, "host")

	results, err := p.CopyOut(context.Background(), CopyOutOptions{
		Local: "/home/u/a", PeerHost: "host", PeerPath: "/tmp/a", User: "u", Grade: 'd',
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %v, want 1 entry", results)
	}
	res := results[0]
	if res.CmdFile != "C.hostd0001" {
		t.Errorf("cmd file = %q, want C.hostd0001", res.CmdFile)
	}

	got := readSpoolFile(t, spoolDir, "C.hostd0001")
	want := "S /home/u/a /tmp/a u c D.0 0666 \"\"\n"
	if got != want {
		t.Errorf("command file = %q, want %q", got, want)
	}
}

// S2: local-to-remote with --copy, continuing from S1's sequence state.
func TestCopyOutWithCopyMatchesScenarioS2(t *testing.T) {
	p, spoolDir := newTestPipeline(t, "host")

	localAbs := filepath.Join(t.TempDir(), "a")
	if err := os.WriteFile(localAbs, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	// Replay S1 first so the command-file counter for grade 'd' is at 1,
	// matching the narrative S2 is defined relative to.
	if _, err := p.CopyOut(context.Background(), CopyOutOptions{
		Local: "/home/u/a", PeerHost: "host", PeerPath: "/tmp/a", User: "u", Grade: 'd',
	}); err != nil {
		t.Fatal(err)
	}

	results, err := p.CopyOut(context.Background(), CopyOutOptions{
		Local: localAbs, PeerHost: "host", PeerPath: "/tmp/a", User: "u", Grade: 'd', CopyToSpool: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %v, want 1 entry", results)
	}
	res := results[0]
	if res.CmdFile != "C.hostd0002" {
		t.Errorf("cmd file = %q, want C.hostd0002", res.CmdFile)
	}
	if len(res.DataFiles) != 1 || res.DataFiles[0] != "D.hostd0001" {
		t.Errorf("data files = %v, want [D.hostd0001]", res.DataFiles)
	}

	got := readSpoolFile(t, spoolDir, "C.hostd0002")
	want := "S " + localAbs + " D.hostd0001 u C D.hostd0001 0666 \"\"\n"
	if got != want {
		t.Errorf("command file = %q, want %q", got, want)
	}

	staged := readSpoolFile(t, spoolDir, "D.hostd0001")
	if staged != "hello" {
		t.Errorf("staged data = %q, want hello", staged)
	}
}

// CopyIn resolves both the local destination and the peer's source token
// before building the R record: a bare relative local name anchors at cwd,
// and a peer tilde token anchors at that peer's configured public directory.
func TestCopyInResolvesLocalAndPeerPaths(t *testing.T) {
	p, spoolDir := newTestPipeline(t, "host")
	p.cfg.Hosts[0].PublicDir = "/peerpub"
	p.cfg.Reindex()

	res, err := p.CopyIn(context.Background(), CopyInOptions{
		PeerHost: "host", PeerPath: "~/incoming/report.txt", Local: "report.txt", User: "u", Grade: 'n',
	})
	if err != nil {
		t.Fatal(err)
	}

	got := readSpoolFile(t, spoolDir, res.CmdFile)
	want := "R /peerpub/incoming/report.txt /home/u/report.txt u \"\"\n"
	if got != want {
		t.Errorf("command file = %q, want %q", got, want)
	}
}

// S3: remote execution, stdin supplied through ExecOptions.Stdin and staged
// as a data file.
func TestExecWithStdinMatchesScenarioS3(t *testing.T) {
	p, spoolDir := newTestPipeline(t, "host")

	res, err := p.Exec(context.Background(), ExecOptions{
		PeerHost: "host", Cmd: "rmail", Args: []string{"foo@bar"}, User: "u",
		Grade: 'n', Stdin: strings.NewReader("message body"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.ExecFile != "X.hostn0001" {
		t.Errorf("exec file = %q, want X.hostn0001", res.ExecFile)
	}

	xqt := readSpoolFile(t, spoolDir, "X.hostn0001")
	wantXqt := "U u localhost\nF D.hostn0001\nI D.hostn0001\nC rmail foo@bar\n"
	if xqt != wantXqt {
		t.Errorf("execute file = %q, want %q", xqt, wantXqt)
	}

	cmd := readSpoolFile(t, spoolDir, res.CmdFile)
	wantCmd := "S " + spoolDir + "/D.hostn0001 D.hostn0001 u C D.hostn0001 0600 \"\"\n" +
		"S " + spoolDir + "/X.hostn0001 X.hostn0001 u C X.hostn0001 0666 \"\"\n"
	if cmd != wantCmd {
		t.Errorf("command file = %q, want %q", cmd, wantCmd)
	}
}

// S4: remote execution with redirected output to a third host.
func TestExecWithRedirectedOutputMatchesScenarioS4(t *testing.T) {
	p, spoolDir := newTestPipeline(t, "host1")

	res, err := p.Exec(context.Background(), ExecOptions{
		PeerHost: "host1", Cmd: "cmd", Args: []string{"arg", ">", "host2!/out"}, User: "u", Grade: 'n',
	})
	if err != nil {
		t.Fatal(err)
	}

	xqt := readSpoolFile(t, spoolDir, res.ExecFile)
	if !strings.Contains(xqt, "O /out host2\n") {
		t.Errorf("execute file %q missing O line", xqt)
	}
	if !strings.Contains(xqt, "C cmd arg\n") {
		t.Errorf("execute file %q missing bare C line", xqt)
	}
	if strings.Contains(xqt, ">") {
		t.Errorf("execute file %q should not contain a redirect token", xqt)
	}
}

// S4 with the output destined for the same host the command runs on: the O
// line omits the host field entirely rather than naming it redundantly.
func TestExecRedirectToExecutionHostOmitsHostField(t *testing.T) {
	p, spoolDir := newTestPipeline(t, "host1")

	res, err := p.Exec(context.Background(), ExecOptions{
		PeerHost: "host1", Cmd: "cmd", Args: []string{">host1!/out"}, User: "u", Grade: 'n',
	})
	if err != nil {
		t.Fatal(err)
	}

	xqt := readSpoolFile(t, spoolDir, res.ExecFile)
	if !strings.Contains(xqt, "O /out\n") {
		t.Errorf("execute file %q want bare O /out line, got", xqt)
	}
}

// S5: a parenthesized argument is unquoted and passed through literally,
// never interpreted as a redirect or a host!path reference.
func TestExecQuotedExclamationMatchesScenarioS5(t *testing.T) {
	p, spoolDir := newTestPipeline(t, "host")

	res, err := p.Exec(context.Background(), ExecOptions{
		PeerHost: "host", Cmd: "cmd", Args: []string{"(a!b)"}, User: "u", Grade: 'n',
	})
	if err != nil {
		t.Fatal(err)
	}

	xqt := readSpoolFile(t, spoolDir, res.ExecFile)
	if !strings.Contains(xqt, "C cmd a!b\n") {
		t.Errorf("execute file %q want literal a!b on C line", xqt)
	}
}

// A "<file" token stages that local file as stdin, the same artifact the
// --read-stdin flag produces via ExecOptions.Stdin.
func TestExecStdinRedirectToken(t *testing.T) {
	p, spoolDir := newTestPipeline(t, "host")

	stdinPath := filepath.Join(t.TempDir(), "msg")
	if err := os.WriteFile(stdinPath, []byte("message body"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := p.Exec(context.Background(), ExecOptions{
		PeerHost: "host", Cmd: "rmail", Args: []string{"foo@bar", "<", stdinPath}, User: "u", Grade: 'n',
	})
	if err != nil {
		t.Fatal(err)
	}

	xqt := readSpoolFile(t, spoolDir, res.ExecFile)
	if !strings.Contains(xqt, "I "+res.DataFiles[0]+"\n") {
		t.Errorf("execute file %q missing I line for staged stdin", xqt)
	}
	if strings.Contains(xqt, "<") {
		t.Errorf("execute file %q should not contain a redirect token", xqt)
	}

	staged := readSpoolFile(t, spoolDir, res.DataFiles[0])
	if staged != "message body" {
		t.Errorf("staged stdin = %q, want message body", staged)
	}
}
