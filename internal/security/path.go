// Package security guards filesystem access built from caller-controlled
// path segments.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape indicates the resolved path would leave the trusted base
// directory.
var ErrPathEscape = errors.New("path escapes base directory")

// ResolveWithin joins the given elements under base and rejects any result
// that would traverse outside of base. The returned path is absolute.
func ResolveWithin(base string, elems ...string) (string, error) {
	if base == "" {
		return "", errors.New("base directory is required")
	}

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base path: %w", err)
	}

	target, err := filepath.Abs(filepath.Join(append([]string{absBase}, elems...)...))
	if err != nil {
		return "", fmt.Errorf("resolve target path: %w", err)
	}

	rel, err := filepath.Rel(absBase, target)
	if err != nil {
		return "", fmt.Errorf("relativize path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, target)
	}
	return target, nil
}
