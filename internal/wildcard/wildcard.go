// Package wildcard expands shell wildcard patterns by delegating to the
// system shell, the same approach Taylor UUCP's fsysdep_wildcard_start takes
// by piping `/bin/sh -c "echo <pattern>"` through a subprocess rather than
// reimplementing glob semantics.
package wildcard

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Expand runs pattern through the shell's own filename expansion and
// returns the resulting words. If the shell reports the pattern
// unexpanded (no match), Expand returns a single-element slice holding
// pattern verbatim, matching the shell's own behavior for a literal glob
// with nothing to match.
func Expand(ctx context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		return nil, fmt.Errorf("wildcard: empty pattern")
	}
	if pattern[0] != '/' {
		return nil, fmt.Errorf("wildcard: pattern must be absolute: %s", pattern)
	}

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", "echo "+pattern)

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("wildcard: expand %s: %w", pattern, err)
	}

	line := strings.TrimRight(out.String(), "\n")
	if line == "" {
		return nil, nil
	}

	return strings.Fields(line), nil
}
