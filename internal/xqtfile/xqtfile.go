// Package xqtfile builds the executor's job-description file (the X.…
// execute file): an ordered sequence of U/F/I/O/C/R/N/Z/B/M lines that
// tells a peer's execution daemon what to stage, run, and report. The
// ordering and quoting rules follow uux.c's uxadd_xqt_line/line-by-line
// construction: U first, C last, and a parenthesised command argument has
// its parentheses stripped rather than being parsed for a remote reference.
package xqtfile

import (
	"fmt"
	"strings"
)

// File accumulates the lines of one execute file in construction order,
// then renders them with U forced first and C forced last regardless of
// the order methods were called in.
type File struct {
	user, originHost string
	middle           []string
	cmd              []string
}

// New starts a File with its mandatory U line: requestor identity.
func New(user, originHost string) *File {
	return &File{user: user, originHost: originHost}
}

// StageFile emits an F line: a file to stage locally before running the
// command. If realName is non-empty the file is staged under that name.
func (f *File) StageFile(localName, realName string) {
	if realName == "" {
		f.middle = append(f.middle, fmt.Sprintf("F %s", localName))
	} else {
		f.middle = append(f.middle, fmt.Sprintf("F %s %s", localName, realName))
	}
}

// Stdin emits an I line: the file to feed the command's standard input.
func (f *File) Stdin(localName string) {
	f.middle = append(f.middle, fmt.Sprintf("I %s", localName))
}

// Stdout emits an O line: where to send the command's standard output.
// host is "" when the output stays on the host running the command.
func (f *File) Stdout(localName, host string) {
	if host == "" {
		f.middle = append(f.middle, fmt.Sprintf("O %s", localName))
	} else {
		f.middle = append(f.middle, fmt.Sprintf("O %s %s", localName, host))
	}
}

// NotifyAddress emits an R line: mail completion status to address.
func (f *File) NotifyAddress(address string) {
	f.middle = append(f.middle, fmt.Sprintf("R %s", address))
}

// SuppressSuccessMail emits an N line.
func (f *File) SuppressSuccessMail() {
	f.middle = append(f.middle, "N")
}

// MailOnErrorOnly emits a Z line.
func (f *File) MailOnErrorOnly() {
	f.middle = append(f.middle, "Z")
}

// ReturnStdinOnError emits a B line.
func (f *File) ReturnStdinOnError() {
	f.middle = append(f.middle, "B")
}

// StatusFile emits an M line: write completion status to file.
func (f *File) StatusFile(file string) {
	f.middle = append(f.middle, fmt.Sprintf("M %s", file))
}

// Command sets the C line. Each argument is unparenthesized first: an
// argument of the form "(...)" has its parentheses stripped and its
// contents passed through literally, the quoting mechanism for a literal
// '!' that would otherwise be parsed as a host separator.
func (f *File) Command(cmd string, args []string) {
	f.cmd = append([]string{cmd}, args...)
	for i, a := range f.cmd {
		f.cmd[i] = unparenthesize(a)
	}
}

func unparenthesize(arg string) string {
	if len(arg) >= 2 && arg[0] == '(' && arg[len(arg)-1] == ')' {
		return arg[1 : len(arg)-1]
	}
	return arg
}

// Render produces the final execute-file body: U first, then the F/I/O/R/N/
// Z/B/M lines in the order they were added, then C last.
func (f *File) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "U %s %s\n", f.user, f.originHost)
	for _, line := range f.middle {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if len(f.cmd) > 0 {
		fmt.Fprintf(&b, "C %s\n", strings.Join(f.cmd, " "))
	}
	return b.String()
}
