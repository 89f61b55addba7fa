// Package spoolname mints the collision-free temporary, data, and execute
// file names the rest of the pipeline writes into the spool directory: the
// Go analogue of Taylor UUCP's zsysdep_data_file_name / zsysdep_xqt_file_name
// family in unix/spool.c, adapted to use an injected sequence source instead
// of the process-local static counter the original relies on.
package spoolname

import (
	"fmt"
	"os"
)

// base62 digits in the order the original namer counts through them: digits
// first, then uppercase, then lowercase, so that lexical order on the
// resulting four-character sequence matches numeric order.
const base62Digits = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// hostPrefixLen is the character budget the legacy `.8s`-style namer gives
// the destination host prefix within a 14-character spool name.
const hostPrefixLen = 7

// Sequencer allocates the monotonically increasing counter backing one
// (host, grade, letter) triple — data, execute, and command names each draw
// from their own independent counter, matching the original namer's
// per-file-type static counters rather than a single shared one.
// Implementations must persist the counter across process restarts
// (internal/jobstore provides one backed by sqlite); a counter that resets
// to zero on restart can mint a name that collides with one still
// referenced by an unprocessed job.
type Sequencer interface {
	Next(host string, grade, letter byte) (uint32, error)
}

// Exists reports whether a candidate spool name is already taken. Namer
// calls this between allocating a sequence number and returning, so the
// result of Data/Execute is checked against the actual directory bumping the
// counter until free.
type Exists func(name string) bool

// Namer mints TM./D./X. names rooted at a spool directory.
type Namer struct {
	dir  string
	seq  Sequencer
	stat Exists
}

// New builds a Namer. If stat is nil, os.Stat against dir is used.
func New(dir string, seq Sequencer, stat Exists) *Namer {
	if stat == nil {
		stat = func(name string) bool {
			_, err := os.Stat(name)
			return err == nil
		}
	}
	return &Namer{dir: dir, seq: seq, stat: stat}
}

// Temp mints a TM.<pid>.<n> name, unique within the spool directory. n
// distinguishes multiple temp files requested in the same call; callers
// pass increasing values starting at 1 within one job.
func (nm *Namer) Temp(n int) string {
	base := fmt.Sprintf("TM.%d.%d", os.Getpid(), n)
	for nm.stat(nm.dir + "/" + base) {
		n++
		base = fmt.Sprintf("TM.%d.%d", os.Getpid(), n)
	}
	return base
}

func hostPrefix(host string) string {
	if len(host) > hostPrefixLen {
		return host[:hostPrefixLen]
	}
	return host
}

func encodeSeq(n uint32) string {
	buf := make([]byte, 4)
	for i := 3; i >= 0; i-- {
		buf[i] = base62Digits[n%62]
		n /= 62
	}
	return string(buf)
}

// mint allocates the next sequence number for (host, grade, letter) and formats
// <letter>.<host-prefix><grade><seq4>, retrying on collision exactly as
// Taylor UUCP's namer does: bump the counter and try again, never returning
// a name that exists at the moment of return.
func (nm *Namer) mint(letter byte, host string, grade byte) (string, error) {
	prefix := hostPrefix(host)
	for {
		n, err := nm.seq.Next(host, grade, letter)
		if err != nil {
			return "", fmt.Errorf("spoolname: allocate sequence: %w", err)
		}
		name := fmt.Sprintf("%c.%s%c%s", letter, prefix, grade, encodeSeq(n))
		if !nm.stat(nm.dir + "/" + name) {
			return name, nil
		}
	}
}

// Data mints a D.<host-prefix><grade><seq> name.
func (nm *Namer) Data(host string, grade byte) (string, error) {
	return nm.mint('D', host, grade)
}

// Execute mints an X.<host-prefix><grade><seq> name, paired 1:1 with a data
// name minted for the same job's cover file.
func (nm *Namer) Execute(host string, grade byte) (string, error) {
	return nm.mint('X', host, grade)
}

// Command mints a C.<host-prefix><grade><seq> name for a new command file.
func (nm *Namer) Command(host string, grade byte) (string, error) {
	return nm.mint('C', host, grade)
}
