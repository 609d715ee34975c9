// Package source resolves manuscript files by relative path, either from the
// working directory or from a frozen git snapshot.
package source

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNotFound reports that a provider holds no file at the requested path.
var ErrNotFound = errors.New("file not found")

// Provider resolves a relative path to the text of the file stored there.
type Provider interface {
	// Resolve returns the decoded text of path, or an error matching
	// ErrNotFound when the provider has no such file.
	Resolve(path string) (string, error)
	// Origin names the backing store in error messages.
	Origin() string
}

// NotFoundError is the typed form of ErrNotFound.
type NotFoundError struct {
	Path   string
	Origin string
	Err    error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s not found in %s: %v", e.Path, e.Origin, e.Err)
	}
	return fmt.Sprintf("%s not found in %s", e.Path, e.Origin)
}

func (e *NotFoundError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNotFound}
	}
	return []error{ErrNotFound, e.Err}
}

// IsNotFound reports whether err means a missing file.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// cleanPath normalizes p to a slash-separated path. Parent-relative and
// absolute paths are kept as such; the second result is false only for an
// empty path.
func cleanPath(p string) (string, bool) {
	c := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if c == "." || c == "" {
		return c, false
	}
	return c, true
}

// decodeText turns raw file bytes into a string. UTF-8 is assumed; a UTF-8
// byte order mark is dropped and UTF-16 input is recognised by its BOM.
func decodeText(b []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
