// Package pathresolve turns the file names a submission names on the
// command line into absolute paths on the local system: tilde expansion
// against a host's public directory, ~user expansion against a system
// account's home directory, and directory-plus-basename composition.
package pathresolve

import (
	"fmt"
	"os/user"
	"strings"
)

// LocalFile expands file into an absolute path, the Go analogue of Taylor
// UUCP's zsysdep_local_file. spec.md §4.A distinguishes two anchors: a bare
// "~" or "~/rest" resolves against tildeDir (the current host's configured
// public directory, rule 2), while a plain relative token resolves against
// relDir (the caller's working directory for local use, rule 4). An
// absolute path passes through unchanged, and "~user/rest" resolves against
// that user's home directory regardless of either argument.
func LocalFile(file, tildeDir, relDir string) (string, error) {
	if file == "" {
		return "", fmt.Errorf("pathresolve: empty file name")
	}
	if file[0] == '/' {
		return file, nil
	}

	var dir, rest string
	switch {
	case file[0] != '~':
		dir, rest = relDir, file

	case len(file) == 1:
		return tildeDir, nil

	case file[1] == '/':
		dir, rest = tildeDir, file[2:]

	default:
		tail := file[1:]
		name := tail
		if i := strings.IndexByte(tail, '/'); i >= 0 {
			name = tail[:i]
		}
		u, err := user.Lookup(name)
		if err != nil {
			return "", fmt.Errorf("pathresolve: user %s not found: %w", name, err)
		}
		if name == tail {
			return u.HomeDir, nil
		}
		dir, rest = u.HomeDir, tail[len(name)+1:]
	}

	return dir + "/" + rest, nil
}

// DirWithBase returns zfile if it already names a plain file, or zfile with
// name's final path component appended if zfile is a directory — the
// analogue of zsysdep_add_base. isDir reports whether zfile is a directory;
// callers pass an os.Stat-backed probe so this package stays side-effect
// free and testable without a filesystem.
func DirWithBase(zfile, name string, isDir func(string) bool) string {
	zfile = strings.TrimSuffix(zfile, "/")

	if !isDir(zfile) {
		return zfile
	}

	base := name
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		base = name[i+1:]
	}

	return zfile + "/" + base
}
