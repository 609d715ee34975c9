package source

import (
	"errors"
	"io"
	"os"

	"github.com/go-git/go-billy/v5"
)

var errIsDir = errors.New("is a directory")

// Live reads files from a directory on disk.
type Live struct {
	fs billy.Filesystem
}

// NewLive returns a provider resolving paths against baseDir through Dir,
// so includes may reach above it.
func NewLive(baseDir string) *Live {
	return &Live{fs: Dir(baseDir)}
}

// NewLiveFS returns a provider over an arbitrary billy filesystem. Whether
// paths may leave its root is up to fs.
func NewLiveFS(fs billy.Filesystem) *Live {
	return &Live{fs: fs}
}

// Origin implements Provider.
func (l *Live) Origin() string {
	return "filesystem"
}

// Resolve implements Provider. Any failure to open or read the file is
// reported as not found.
func (l *Live) Resolve(p string) (string, error) {
	name, ok := cleanPath(p)
	if !ok {
		return "", &NotFoundError{Path: p, Origin: l.Origin()}
	}
	fi, err := l.fs.Stat(name)
	if err != nil {
		return "", &NotFoundError{Path: p, Origin: l.Origin(), Err: err}
	}
	if fi.IsDir() {
		return "", &NotFoundError{Path: p, Origin: l.Origin(), Err: errIsDir}
	}
	f, err := l.fs.Open(name)
	if err != nil {
		return "", &NotFoundError{Path: p, Origin: l.Origin(), Err: err}
	}
	defer f.Close() //nolint:errcheck // read-only handle

	data, err := io.ReadAll(f)
	if err != nil {
		return "", &NotFoundError{Path: p, Origin: l.Origin(), Err: err}
	}
	text, err := decodeText(data)
	if err != nil {
		return "", &NotFoundError{Path: p, Origin: l.Origin(), Err: err}
	}
	return text, nil
}

// Exists reports whether p names a regular file.
func (l *Live) Exists(p string) bool {
	name, ok := cleanPath(p)
	if !ok {
		return false
	}
	fi, err := l.fs.Stat(name)
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeType == 0
}
