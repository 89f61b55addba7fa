// Package logsink implements the three pluggable on-disk event-log and
// statistics formats, following log.c's ulog/ustats functions line for
// line: the choice of format changes field order and timestamp precision,
// never the underlying information recorded.
package logsink

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Format selects one of the three recognised event/statistics layouts.
type Format string

const (
	Taylor Format = "taylor"
	V2     Format = "v2"
	HDB    Format = "hdb"
)

// Level tags an event record's header.
type Level int

const (
	Normal Level = iota
	ErrorLevel
	Fatal
	Debug
)

func (l Level) header() string {
	switch l {
	case ErrorLevel:
		return "ERROR: "
	case Fatal:
		return "FATAL: "
	case Debug:
		return "DEBUG: "
	default:
		return ""
	}
}

// Sink is the process-wide owner of the event log and statistics handles,
// the Go analogue of log.c's file-scope eLlog/eLstats globals collapsed
// into a single explicitly-constructed value instead of package state.
type Sink struct {
	mu     sync.Mutex
	format Format
	prog   string
	user   string
	system string
	device string
	id     int
	seq    int

	events io.Writer
	stats  io.Writer
	now    func() time.Time
}

// New builds a Sink that writes events to events and statistics to stats.
// prog is the program name reported by the taylor format (e.g. "uuship").
func New(format Format, prog string, events, stats io.Writer) *Sink {
	return &Sink{format: format, prog: prog, events: events, stats: stats, now: time.Now}
}

// SetUser records the submitting user for subsequent event lines.
func (s *Sink) SetUser(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

// SetSystem records the peer system for subsequent event lines. Sink only
// tracks the field that appears in the line: under every format, including
// hdb, a system change does not close, reopen or switch the event writer.
func (s *Sink) SetSystem(system string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.system = system
}

// SetDevice records the communication device for the hdb statistics line.
func (s *Sink) SetDevice(device string) { s.mu.Lock(); defer s.mu.Unlock(); s.device = device }

// SetID records the current conversation/job id, 0 meaning "none".
func (s *Sink) SetID(id int) { s.mu.Lock(); defer s.mu.Unlock(); s.id = id }

func (s *Sink) timestamp(t time.Time) string {
	switch s.format {
	case V2:
		return fmt.Sprintf("%d/%d-%02d:%02d", int(t.Month()), t.Day(), t.Hour(), t.Minute())
	case HDB:
		return fmt.Sprintf("%d/%d-%02d:%02d:%02d", int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	default: // Taylor
		return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%02d",
			t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/10000000)
	}
}

// Log writes one event-log line, in the shape spec'd for the active
// format, then flushes. A Fatal-level entry must be written before the
// caller raises internal/fatal, since the process is expected to terminate
// once Raise panics.
func (s *Sink) Log(level Level, format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	hdr := level.header()
	user := emptyDash(s.user)
	system := emptyDash(s.system)
	ts := s.timestamp(s.now())

	switch s.format {
	case V2:
		if s.id != 0 {
			fmt.Fprintf(s.events, "%s %s (%s-%d) %s%s\n", user, system, ts, s.id, hdr, msg)
		} else {
			fmt.Fprintf(s.events, "%s %s (%s) %s%s\n", user, system, ts, hdr, msg)
		}
	case HDB:
		if s.id != 0 {
			fmt.Fprintf(s.events, "%s %s (%s,%d,%d) %s%s\n", user, system, ts, s.id, 0, hdr, msg)
		} else {
			fmt.Fprintf(s.events, "%s %s (%s) %s%s\n", user, system, ts, hdr, msg)
		}
	default: // Taylor
		if s.id != 0 {
			fmt.Fprintf(s.events, "%s %s %s (%s %d) %s%s\n", s.prog, system, user, ts, s.id, hdr, msg)
		} else {
			fmt.Fprintf(s.events, "%s %s %s (%s) %s%s\n", s.prog, system, user, ts, hdr, msg)
		}
	}

	if f, ok := s.events.(interface{ Sync() error }); ok {
		f.Sync()
	}
}

func emptyDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Rate computes bytes/second, with the zero-duration special case log.c's
// ustats applies to avoid a division by zero.
func Rate(bytes, secs, micros int64) int64 {
	if secs == 0 && micros == 0 {
		return 0
	}
	return (1000 * bytes) / (secs*1000 + micros/1000)
}

// Stats records one transfer statistics line. user/system identify the
// parties, sent distinguishes send/receive direction, succeeded reports
// outcome, bytes/secs/micros describe the transfer's size and duration.
//
// Under the hdb format a failed transfer is not recorded at all, matching
// ustats's early return; the other two formats record every transfer.
func (s *Sink) Stats(user, system string, sent, succeeded bool, bytes, secs, micros int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bps := Rate(bytes, secs, micros)
	ts := s.timestamp(s.now())
	direction := "received"
	if sent {
		direction = "sent"
	}

	switch s.format {
	case V2:
		word := "data"
		if !succeeded {
			word = "failed after"
		}
		fmt.Fprintf(s.stats, "%s %s (%s) (%d) %s %s %d bytes %d seconds\n",
			user, system, ts, s.now().Unix(), direction, word, bytes, secs+micros/500000)

	case HDB:
		if !succeeded {
			return
		}
		s.seq++
		arrow := "<-"
		if sent {
			arrow = "->"
		}
		fmt.Fprintf(s.stats, "%s!%s M (%s) (C,%d,%d) [%s] %s %d / %d.%03d secs, %d bytes/sec\n",
			system, user, ts, s.id, s.seq, emptyDash(s.device), arrow, bytes, secs, micros/1000, bps)

	default: // Taylor
		prefix := ""
		if !succeeded {
			prefix = "failed after "
		}
		fmt.Fprintf(s.stats, "%s %s (%s) %s%s %d bytes in %d.%03d seconds (%d bytes/sec)\n",
			user, system, ts, prefix, direction, bytes, secs, micros/1000, bps)
	}

	if f, ok := s.stats.(interface{ Sync() error }); ok {
		f.Sync()
	}
}
