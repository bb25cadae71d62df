// Package security holds the checks applied to user-supplied names before
// they become paths on disk.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when a path resolves outside its base directory.
var ErrPathTraversal = errors.New("path traversal detected")

// maxFilenameLen caps SanitizeFilename output.
const maxFilenameLen = 128

// ValidatePathWithinDirectory checks that filePath, once cleaned, stays inside
// baseDir. The check is lexical so it works for any fsutil.FileSystem; both
// paths are made absolute first when either is.
func ValidatePathWithinDirectory(filePath, baseDir string) error {
	p := filepath.Clean(filePath)
	base := filepath.Clean(baseDir)
	if filepath.IsAbs(p) != filepath.IsAbs(base) {
		var err error
		if p, err = filepath.Abs(p); err != nil {
			return fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		if base, err = filepath.Abs(base); err != nil {
			return fmt.Errorf("failed to resolve base directory: %w", err)
		}
	}

	rel, err := filepath.Rel(base, p)
	if err != nil {
		return fmt.Errorf("%w: %s is outside %s", ErrPathTraversal, filePath, baseDir)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s escapes %s", ErrPathTraversal, filePath, baseDir)
	}
	return nil
}

// SanitizeFilename turns a run label into a single path element. Anything
// other than ASCII letters, digits, dot, underscore or dash becomes one
// underscore per run. Leading and trailing dots and underscores are
// trimmed, and an empty result becomes fallback.
func SanitizeFilename(s, fallback string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return fallback
	}
	return out
}
