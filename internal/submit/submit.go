// Package submit orchestrates the path resolver, spool namer, lock
// manager, command-file writer, execute-file writer, and log sink into
// the three user-facing operations: copy a file out, request a file in,
// and execute a command on a remote host. This is the wiring spec.md §2's
// data-flow paragraph describes; the components it calls do the actual
// work.
package submit

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/uuship/uuship/internal/cmdfile"
	"github.com/uuship/uuship/internal/config"
	"github.com/uuship/uuship/internal/grade"
	"github.com/uuship/uuship/internal/jobstore"
	"github.com/uuship/uuship/internal/lockmgr"
	"github.com/uuship/uuship/internal/logsink"
	"github.com/uuship/uuship/internal/pathresolve"
	"github.com/uuship/uuship/internal/spoolname"
	"github.com/uuship/uuship/internal/statsdb/pg"
	"github.com/uuship/uuship/internal/wildcard"
	"github.com/uuship/uuship/internal/xqtfile"
)

// statsMirror is the subset of *pg.Store the pipeline needs, so tests can
// stub it without a live Postgres connection.
type statsMirror interface {
	Record(ctx context.Context, user, peerHost string, sent, succeeded bool, bytes, secs, micros, rateBPS int64) error
}

var _ statsMirror = (*pg.Store)(nil)

// Pipeline bundles the components a submission needs. Build one with New
// and reuse it across submissions within a process.
type Pipeline struct {
	cfg     *config.Config
	store   *jobstore.Store
	locks   *lockmgr.Manager
	sink    *logsink.Sink
	tracer  trace.Tracer
	stats   statsMirror
	now     func() time.Time
	currDir func() (string, error)
}

// New builds a Pipeline. tracer may be a no-op tracer (telemetry.Noop().Tracer()).
func New(cfg *config.Config, store *jobstore.Store, sink *logsink.Sink, tracer trace.Tracer) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		store:   store,
		locks:   lockmgr.New(cfg.Spool.LockDir),
		sink:    sink,
		tracer:  tracer,
		now:     time.Now,
		currDir: os.Getwd,
	}
}

// WithStatsDB attaches the optional Postgres statistics mirror. Submissions
// record a "queued" row immediately; the transport daemon that actually
// moves bytes (out of scope here) is expected to update it to succeeded
// once a transfer completes. Passing nil is a no-op (mirror stays disabled).
func (p *Pipeline) WithStatsDB(s statsMirror) *Pipeline {
	p.stats = s
	return p
}

func (p *Pipeline) recordQueued(ctx context.Context, user, host string, size int64) {
	if p.stats == nil {
		return
	}
	if err := p.stats.Record(ctx, user, host, true, false, size, 0, 0, 0); err != nil {
		p.sink.Log(logsink.ErrorLevel, "statsdb: record queued transfer: %s", err)
	}
}

// Result reports what a submission produced.
type Result struct {
	JobID      string
	Host       string
	Grade      byte
	CmdFile    string
	ExecFile   string // "" when no execute file was needed
	DataFiles  []string
}

func (p *Pipeline) resolveHost(name string) (config.Host, error) {
	if h, ok := p.cfg.Host(name); ok {
		return h, nil
	}
	if p.cfg.UnknownOK {
		return p.cfg.Synthesize(name), nil
	}
	return config.Host{}, fmt.Errorf("submit: %w: %q", ErrUnknownHost, name)
}

func (p *Pipeline) namer(host config.Host) *spoolname.Namer {
	return spoolname.New(host.SpoolDir, p.store, nil)
}

// localPublicDir returns the submitting system's own public directory, the
// anchor spec.md §4.A rule 2 names for a bare "~" or "~/rest" token.
// "localhost" is the same host-table name Exec already uses for the U
// line's origin field; an explicit entry is honored, and a host table that
// never mentions it falls back to a synthesized one regardless of
// UnknownOK, since resolving a tilde is a path-anchoring convenience, not a
// decision about whether a job may be queued.
func (p *Pipeline) localPublicDir() string {
	if h, ok := p.cfg.Host("localhost"); ok {
		return h.PublicDir
	}
	return p.cfg.Synthesize("localhost").PublicDir
}

func (p *Pipeline) resolveGrade(host config.Host, requested byte) byte {
	g := grade.Normalize(requested)
	if requested == 0 {
		g = grade.Default
		if host.DefaultGrade != "" {
			g = grade.Normalize(host.DefaultGrade[0])
		}
	}
	return g
}

// CopyOutOptions configures a local-to-remote file copy (submit-copy-out).
type CopyOutOptions struct {
	Local      string // local file token, resolved via pathresolve
	PeerHost   string
	PeerPath   string
	User       string
	Grade      byte // 0 means "use host default"
	CopyToSpool bool
	Notify     string
	Mode       string // defaults to "0666"
}

// CopyOut stages (optionally) and queues a local file for delivery to a
// peer, implementing spec.md §8's S1/S2 scenarios. A local token that
// expands to more than one file (spec.md §4.A's wildcard expansion) queues
// one job per match; the returned slice has one Result per match, in
// expansion order.
func (p *Pipeline) CopyOut(ctx context.Context, opts CopyOutOptions) ([]*Result, error) {
	corrID := uuid.NewString()
	ctx, span := p.tracer.Start(ctx, "submit.copy_out", trace.WithAttributes(
		attribute.String("uuship.peer_host", opts.PeerHost),
		attribute.String("uuship.correlation_id", corrID),
	))
	defer span.End()

	host, err := p.resolveHost(opts.PeerHost)
	if err != nil {
		return nil, err
	}
	g := p.resolveGrade(host, opts.Grade)

	cwd, err := p.currDir()
	if err != nil {
		return nil, fmt.Errorf("submit: getwd: %w", err)
	}
	// Rule 2 anchors a bare "~"/"~/rest" at this system's own public
	// directory; rule 4 anchors a plain relative token at the caller's cwd
	// since this is local use.
	localAbs, err := pathresolve.LocalFile(opts.Local, p.localPublicDir(), cwd)
	if err != nil {
		return nil, fmt.Errorf("submit: resolve local file: %w: %v", ErrUnknownUser, err)
	}

	matches, err := wildcard.Expand(ctx, localAbs)
	if err != nil {
		return nil, fmt.Errorf("submit: expand %s: %w", localAbs, err)
	}
	if len(matches) == 0 {
		matches = []string{localAbs}
	}

	nm := p.namer(host)
	mode := opts.Mode
	if mode == "" {
		mode = "0666"
	}

	results := make([]*Result, 0, len(matches))
	for _, match := range matches {
		var rec cmdfile.Send
		var dataFiles []string

		if !opts.CopyToSpool {
			rec = cmdfile.Send{
				From: match, To: opts.PeerPath, User: opts.User,
				Opts: "c", Temp: "D.0", Mode: mode, Notify: opts.Notify,
			}
		} else {
			dataName, err := nm.Data(host.Name, g)
			if err != nil {
				return nil, fmt.Errorf("submit: mint data name: %w", err)
			}
			if err := stageCopy(match, host.SpoolDir, dataName, p.cfg.Spool.MinFreeBytes); err != nil {
				return nil, err
			}
			dataFiles = append(dataFiles, dataName)
			rec = cmdfile.Send{
				From: match, To: dataName, User: opts.User,
				Opts: "C", Temp: dataName, Mode: mode, Notify: opts.Notify,
			}
		}

		cmdName, err := p.publishCommandFile(host, g, []cmdfile.Record{rec})
		if err != nil {
			return nil, err
		}

		p.sink.SetUser(opts.User)
		p.sink.SetSystem(host.Name)
		p.sink.Log(logsink.Normal, "queued copy-out %s -> %s!%s", match, host.Name, opts.PeerPath)

		var size int64
		if info, statErr := os.Stat(match); statErr == nil {
			size = info.Size()
		}
		p.recordQueued(ctx, opts.User, host.Name, size)

		results = append(results, &Result{JobID: cmdName, Host: host.Name, Grade: g, CmdFile: cmdName, DataFiles: dataFiles})
	}

	return results, nil
}

// CopyInOptions configures a request to fetch a file from a peer.
type CopyInOptions struct {
	PeerHost string
	PeerPath string
	Local    string
	User     string
	Grade    byte
}

// CopyIn queues an R record requesting peer to send a file to the local
// spool (submit-copy-in).
func (p *Pipeline) CopyIn(ctx context.Context, opts CopyInOptions) (*Result, error) {
	corrID := uuid.NewString()
	ctx, span := p.tracer.Start(ctx, "submit.copy_in", trace.WithAttributes(
		attribute.String("uuship.peer_host", opts.PeerHost),
		attribute.String("uuship.correlation_id", corrID),
	))
	defer span.End()

	host, err := p.resolveHost(opts.PeerHost)
	if err != nil {
		return nil, err
	}
	g := p.resolveGrade(host, opts.Grade)

	cwd, err := p.currDir()
	if err != nil {
		return nil, fmt.Errorf("submit: getwd: %w", err)
	}
	localAbs, err := pathresolve.LocalFile(opts.Local, p.localPublicDir(), cwd)
	if err != nil {
		return nil, fmt.Errorf("submit: resolve local file: %w: %v", ErrUnknownUser, err)
	}
	// opts.PeerPath names a file on the peer, not here: rule 4's remote-use
	// branch anchors a relative token at the peer's own public directory,
	// and there is no local cwd to fall back to on that system, so the
	// same directory serves as both the tilde and relative anchor. The
	// pattern itself is never wildcard-expanded locally — the peer resolves
	// and expands it against its own filesystem.
	peerAbs, err := pathresolve.LocalFile(opts.PeerPath, host.PublicDir, host.PublicDir)
	if err != nil {
		return nil, fmt.Errorf("submit: resolve peer file: %w: %v", ErrUnknownUser, err)
	}

	rec := cmdfile.Receive{From: peerAbs, To: localAbs, User: opts.User, Opts: ""}
	cmdName, err := p.publishCommandFile(host, g, []cmdfile.Record{rec})
	if err != nil {
		return nil, err
	}

	p.sink.SetUser(opts.User)
	p.sink.SetSystem(host.Name)
	p.sink.Log(logsink.Normal, "queued copy-in %s!%s -> %s", host.Name, peerAbs, localAbs)

	p.recordQueued(ctx, opts.User, host.Name, 0)
	return &Result{JobID: cmdName, Host: host.Name, Grade: g, CmdFile: cmdName}, nil
}

// ExecOptions configures a remote command execution (submit-exec).
type ExecOptions struct {
	PeerHost       string
	Cmd            string
	Args           []string
	User           string
	Grade          byte
	Stdin          io.Reader // nil when the command has no stdin
	StatusFile     string
	NotifyAddress  string
	SuppressOK     bool // --no-ack
	ErrorAckOnly   bool // --error-ack
	StdinReturn    bool // --stdin-return
}

// Exec stages any redirected stdin, builds the execute file, and queues
// its delivery to the target host, implementing spec.md §8's S3 scenario.
func (p *Pipeline) Exec(ctx context.Context, opts ExecOptions) (*Result, error) {
	corrID := uuid.NewString()
	ctx, span := p.tracer.Start(ctx, "submit.exec", trace.WithAttributes(
		attribute.String("uuship.peer_host", opts.PeerHost),
		attribute.String("uuship.cmd", opts.Cmd),
		attribute.String("uuship.correlation_id", corrID),
	))
	defer span.End()

	host, err := p.resolveHost(opts.PeerHost)
	if err != nil {
		return nil, err
	}
	g := p.resolveGrade(host, opts.Grade)
	nm := p.namer(host)

	scanned, err := scanExecArgs(opts.Args)
	if err != nil {
		return nil, err
	}

	if scanned.stdinFile != "" {
		if opts.Stdin != nil {
			return nil, fmt.Errorf("submit: %w: standard input specified twice", ErrConfigInvalid)
		}
		cwd, err := p.currDir()
		if err != nil {
			return nil, fmt.Errorf("submit: getwd: %w", err)
		}
		stdinAbs, err := pathresolve.LocalFile(scanned.stdinFile, p.localPublicDir(), cwd)
		if err != nil {
			return nil, fmt.Errorf("submit: resolve stdin file: %w: %v", ErrUnknownUser, err)
		}
		f, err := os.Open(stdinAbs)
		if err != nil {
			return nil, wrapIOFail(fmt.Sprintf("submit: open %s", stdinAbs), err)
		}
		defer f.Close()
		opts.Stdin = f
	}

	xqt := xqtfile.New(opts.User, "localhost")
	var sendRecords []cmdfile.Record
	var dataFiles []string

	if opts.Stdin != nil {
		dataName, err := nm.Data(host.Name, g)
		if err != nil {
			return nil, fmt.Errorf("submit: mint stdin data name: %w", err)
		}
		if err := stageReader(opts.Stdin, host.SpoolDir, dataName, p.cfg.Spool.MinFreeBytes); err != nil {
			return nil, err
		}
		dataFiles = append(dataFiles, dataName)
		xqt.StageFile(dataName, "")
		xqt.Stdin(dataName)
		sendRecords = append(sendRecords, cmdfile.Send{
			From: host.SpoolDir + "/" + dataName, To: dataName, User: opts.User,
			Opts: "C", Temp: dataName, Mode: "0600",
		})
	}

	if opts.NotifyAddress != "" {
		xqt.NotifyAddress(opts.NotifyAddress)
	}
	if opts.SuppressOK {
		xqt.SuppressSuccessMail()
	}
	if opts.ErrorAckOnly {
		xqt.MailOnErrorOnly()
	}
	if opts.StatusFile != "" {
		xqt.StatusFile(opts.StatusFile)
	}
	if opts.StdinReturn {
		xqt.ReturnStdinOnError()
	}
	if scanned.stdoutFile != "" {
		stdoutHost := scanned.stdoutHost
		if stdoutHost == host.Name {
			stdoutHost = ""
		}
		xqt.Stdout(scanned.stdoutFile, stdoutHost)
	}
	xqt.Command(opts.Cmd, scanned.clean)

	xqtName, err := nm.Execute(host.Name, g)
	if err != nil {
		return nil, fmt.Errorf("submit: mint execute name: %w", err)
	}
	if err := publishExecuteFile(host.SpoolDir, xqtName, xqt.Render()); err != nil {
		return nil, err
	}

	sendRecords = append(sendRecords, cmdfile.Send{
		From: host.SpoolDir + "/" + xqtName, To: xqtName, User: opts.User,
		Opts: "C", Temp: xqtName, Mode: "0666",
	})

	cmdName, err := p.publishCommandFile(host, g, sendRecords)
	if err != nil {
		return nil, err
	}

	if p.store != nil {
		_ = p.store.RecordJob(cmdName, host.Name, string(g), opts.User, cmdName, p.now().Unix())
	}

	p.sink.SetUser(opts.User)
	p.sink.SetSystem(host.Name)
	p.sink.Log(logsink.Normal, "queued exec %s on %s", opts.Cmd, host.Name)

	var size int64
	if len(dataFiles) > 0 {
		if info, statErr := os.Stat(host.SpoolDir + "/" + dataFiles[0]); statErr == nil {
			size = info.Size()
		}
	}
	p.recordQueued(ctx, opts.User, host.Name, size)

	return &Result{JobID: cmdName, Host: host.Name, Grade: g, CmdFile: cmdName, ExecFile: xqtName, DataFiles: dataFiles}, nil
}

// execArgs is the result of scanning an Exec command line for the redirect
// and quoting tokens uux's own argument scanner recognizes: clean holds the
// arguments that belong on the C line once redirects are stripped out.
type execArgs struct {
	clean      []string
	stdinFile  string // local file to read as stdin, "" if no < token
	stdoutFile string // "" if no > token
	stdoutHost string // third host named by a >host!path token, else ""
}

// scanExecArgs walks args looking for "<file" (stdin redirect), ">file" or
// ">host!path" (stdout redirect, the second naming a third host the output
// should land on), and a "(text)" parenthesized argument (its parentheses
// are stripped and the contents are never interpreted for a redirect or a
// host!path reference — the quoting mechanism for a literal exclamation
// mark). Each of these may appear as its own token (`>` then `host!path` as
// the next argument) or joined into one (`>host!path`), following
// uux.c's argument-scan loop.
func scanExecArgs(args []string) (execArgs, error) {
	var out execArgs

	for i := 0; i < len(args); i++ {
		a := args[i]

		if len(a) >= 2 && a[0] == '(' && a[len(a)-1] == ')' {
			out.clean = append(out.clean, a)
			continue
		}

		switch {
		case a == "<":
			i++
			if i >= len(args) {
				return execArgs{}, fmt.Errorf("submit: %w: dangling < redirect", ErrConfigInvalid)
			}
			if out.stdinFile != "" {
				return execArgs{}, fmt.Errorf("submit: %w: standard input specified twice", ErrConfigInvalid)
			}
			out.stdinFile = args[i]

		case len(a) > 1 && a[0] == '<':
			if out.stdinFile != "" {
				return execArgs{}, fmt.Errorf("submit: %w: standard input specified twice", ErrConfigInvalid)
			}
			out.stdinFile = a[1:]

		case a == ">":
			i++
			if i >= len(args) {
				return execArgs{}, fmt.Errorf("submit: %w: dangling > redirect", ErrConfigInvalid)
			}
			out.stdoutFile, out.stdoutHost = splitHostBang(args[i])

		case len(a) > 1 && a[0] == '>':
			out.stdoutFile, out.stdoutHost = splitHostBang(a[1:])

		default:
			out.clean = append(out.clean, a)
		}
	}

	return out, nil
}

// splitHostBang splits a "host!path" token into its host and path parts. A
// token with no "!" names a path with no particular host: it is returned
// as file, with an empty host.
func splitHostBang(token string) (file, host string) {
	if i := strings.IndexByte(token, '!'); i >= 0 {
		return token[i+1:], token[:i]
	}
	return token, ""
}

func (p *Pipeline) publishCommandFile(host config.Host, g byte, records []cmdfile.Record) (string, error) {
	lockName := lockmgr.System(host.Name)
	held, err := p.locks.Acquire(lockName)
	if err != nil {
		return "", fmt.Errorf("submit: acquire %s: %w", lockName, err)
	}
	if !held {
		return "", fmt.Errorf("submit: %w: peer lock %s is held", ErrLockBusy, lockName)
	}
	defer p.locks.Release(lockName)

	nm := p.namer(host)
	cmdName, err := nm.Command(host.Name, g)
	if err != nil {
		return "", fmt.Errorf("submit: mint command name: %w", err)
	}

	tempName := fmt.Sprintf("TM.%d.%s", osGetpid(), cmdName)
	final := host.SpoolDir + "/" + cmdName
	temp := host.SpoolDir + "/" + tempName

	if err := cmdfile.Write(temp, final, records); err != nil {
		return "", wrapIOFail("submit: publish command file", err)
	}
	return cmdName, nil
}

// stageCopy promotes srcAbs into the spool as dataName. It tries a hard
// link first — no data movement, the common case of spool and source
// sharing a filesystem — and falls back to a full copy on EXDEV (source
// and spool on different filesystems).
func stageCopy(srcAbs, spoolDir, dataName string, minFree int64) error {
	finalPath := spoolDir + "/" + dataName
	if err := os.Link(srcAbs, finalPath); err == nil {
		return nil
	} else if !isCrossFilesystem(err) {
		return wrapIOFail(fmt.Sprintf("submit: link %s", srcAbs), err)
	}

	src, err := os.Open(srcAbs)
	if err != nil {
		return wrapIOFail(fmt.Sprintf("submit: open %s", srcAbs), err)
	}
	defer src.Close()
	return stageReader(src, spoolDir, dataName, minFree)
}

// isCrossFilesystem reports whether err is the EXDEV a hard-link attempt
// returns when src and dst live on different filesystems (ErrCrossFilesystem).
func isCrossFilesystem(err error) bool {
	linkErr, ok := err.(*os.LinkError)
	return ok && linkErr.Err == syscall.EXDEV
}

// checkFreeSpace rejects staging when the spool filesystem reports fewer
// than minFree bytes available. minFree of 0 means "don't check" — the
// same "don't know" behaviour the original gives an unsupported
// filesystem.
func checkFreeSpace(spoolDir string, minFree int64) error {
	if minFree <= 0 {
		return nil
	}
	var fs syscall.Statfs_t
	if err := syscall.Statfs(spoolDir, &fs); err != nil {
		return nil
	}
	avail := int64(fs.Bavail) * int64(fs.Bsize)
	if avail < minFree {
		return fmt.Errorf("submit: %w: %s has %d bytes free, need %d", ErrIOFail, spoolDir, avail, minFree)
	}
	return nil
}

func stageReader(r io.Reader, spoolDir, dataName string, minFree int64) error {
	if err := checkFreeSpace(spoolDir, minFree); err != nil {
		return err
	}

	tempPath := spoolDir + "/TM." + dataName
	finalPath := spoolDir + "/" + dataName

	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return wrapIOFail(fmt.Sprintf("submit: create %s", tempPath), err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tempPath)
		return wrapIOFail("submit: stage data", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return wrapIOFail(fmt.Sprintf("submit: fsync %s", tempPath), err)
	}
	if err := f.Close(); err != nil {
		return wrapIOFail(fmt.Sprintf("submit: close %s", tempPath), err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		return wrapIOFail(fmt.Sprintf("submit: promote %s", tempPath), err)
	}
	return nil
}

func publishExecuteFile(spoolDir, name, body string) error {
	tempPath := spoolDir + "/TM." + name
	finalPath := spoolDir + "/" + name

	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return wrapIOFail(fmt.Sprintf("submit: create %s", tempPath), err)
	}
	if _, err := f.WriteString(body); err != nil {
		f.Close()
		return wrapIOFail(fmt.Sprintf("submit: write %s", tempPath), err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return wrapIOFail(fmt.Sprintf("submit: fsync %s", tempPath), err)
	}
	if err := f.Close(); err != nil {
		return wrapIOFail(fmt.Sprintf("submit: close %s", tempPath), err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		return wrapIOFail(fmt.Sprintf("submit: rename %s", tempPath), err)
	}
	return nil
}

func osGetpid() int { return os.Getpid() }
