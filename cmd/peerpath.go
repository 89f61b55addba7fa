package cmd

import (
	"fmt"
	"strings"
)

// peerPath splits a "host!path" token into its host and path components, the
// same bang-path notation spec.md's CLI surface uses throughout.
func peerPath(token string) (host, path string, err error) {
	i := strings.IndexByte(token, '!')
	if i < 0 {
		return "", "", fmt.Errorf("expected host!path, got %q", token)
	}
	return token[:i], token[i+1:], nil
}
