package source

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// hostDir is an OS filesystem rooted at base whose read operations also
// accept absolute names and names climbing above base with "../". Writes
// stay confined to base.
type hostDir struct {
	billy.Filesystem
	base string
}

// Dir returns the filesystem manuscript files are read through. Relative
// names resolve against baseDir the way LaTeX resolves them against its
// working directory, so \input{../shared/macros} reaches a sibling
// directory. Create, Remove and the other write operations cannot leave
// baseDir.
func Dir(baseDir string) billy.Filesystem {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		abs = filepath.Clean(baseDir)
	}
	return &hostDir{Filesystem: osfs.New(abs), base: abs}
}

// outside returns the host path for names that do not live under base.
func (d *hostDir) outside(name string) (string, bool) {
	n := filepath.FromSlash(name)
	if filepath.IsAbs(n) {
		return filepath.Clean(n), true
	}
	c := filepath.Clean(n)
	if c == ".." || strings.HasPrefix(c, ".."+string(filepath.Separator)) {
		return filepath.Join(d.base, c), true
	}
	return "", false
}

func (d *hostDir) Open(name string) (billy.File, error) {
	if p, ok := d.outside(name); ok {
		return osfs.Default.Open(p)
	}
	return d.Filesystem.Open(name)
}

func (d *hostDir) Stat(name string) (os.FileInfo, error) {
	if p, ok := d.outside(name); ok {
		return osfs.Default.Stat(p)
	}
	return d.Filesystem.Stat(name)
}

func (d *hostDir) Lstat(name string) (os.FileInfo, error) {
	if p, ok := d.outside(name); ok {
		return osfs.Default.Lstat(p)
	}
	return d.Filesystem.Lstat(name)
}
