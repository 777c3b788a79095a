// Package security checks user supplied names before they reach the
// filesystem or an HTTP header.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxFilenameLen bounds SanitizeFilename output.
const maxFilenameLen = 128

// ValidateFileName accepts a bare file name: no directory components, no
// traversal, and nothing that sanitizes differently.
func ValidateFileName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("file name is empty")
	case name == "." || name == "..":
		return fmt.Errorf("file name %q is a directory reference", name)
	case filepath.Base(name) != name || strings.ContainsAny(name, `/\`):
		return fmt.Errorf("file name %q must not contain a directory", name)
	case SanitizeFilename(name) != name:
		return fmt.Errorf("file name %q contains unsupported characters", name)
	}
	return nil
}

// SanitizeFilename maps s onto ASCII letters, digits, '.', '_' and '-'.
// Runs of other characters become one underscore, leading and trailing dots
// and underscores are trimmed and the result is capped in length. An empty
// result becomes "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
