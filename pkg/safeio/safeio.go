// Package safeio holds small helpers for handling user-supplied paths and
// rewriting files in place.
package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// CleanUserPath cleans a user-provided path and rejects traversal attempts.
// Returns paths with forward slashes for cross-platform consistency.
func CleanUserPath(p string) (string, error) {
	c := filepath.Clean(p)
	if strings.Contains(c, "..") {
		return "", errors.New("path traversal detected")
	}
	// Normalize to forward slashes for cross-platform consistency
	return filepath.ToSlash(c), nil
}

// WriteFilePreservePerms writes data to path preserving existing file mode when possible.
// When the file does not exist, it uses a sane default of 0644.
func WriteFilePreservePerms(path string, data []byte) error {
	var mode os.FileMode = 0o644
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode() & 0o777
		if mode == 0 {
			mode = 0o644
		}
	}
	return os.WriteFile(path, data, mode)
}

// ContainedPath joins name onto baseDir and rejects names that would land
// outside it.
func ContainedPath(baseDir, name string) (string, error) {
	clean, err := CleanUserPath(name)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(clean) || clean == "." || clean == "" {
		return "", errors.New("path must name an entry inside the base directory")
	}
	return filepath.Join(baseDir, filepath.FromSlash(clean)), nil
}
