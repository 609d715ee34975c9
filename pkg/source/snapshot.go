package source

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/fulmenhq/preprint/internal/gitctx"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var errOutsideTree = errors.New("path leaves the repository")

// Snapshot reads files from the tree of a single commit. Paths are resolved
// relative to prefix, the directory the manuscript lives in inside the
// repository.
type Snapshot struct {
	tree   *object.Tree
	ref    string
	prefix string
}

// NewSnapshot wraps an already resolved tree.
func NewSnapshot(tree *object.Tree, ref, prefix string) *Snapshot {
	return &Snapshot{tree: tree, ref: ref, prefix: strings.Trim(prefix, "/")}
}

// OpenSnapshot opens the repository enclosing dir and binds the tree of ref.
// Paths passed to Resolve are interpreted relative to dir and may climb
// into sibling directories of the repository.
func OpenSnapshot(dir, ref string) (*Snapshot, error) {
	repo, err := gitctx.Open(dir)
	if err != nil {
		return nil, err
	}
	tree, err := repo.Tree(ref)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", ref, err)
	}
	return NewSnapshot(tree, ref, repo.Prefix), nil
}

// Ref returns the revision the snapshot was opened at.
func (s *Snapshot) Ref() string {
	return s.ref
}

// Origin implements Provider.
func (s *Snapshot) Origin() string {
	return "snapshot " + s.ref
}

// Resolve implements Provider by walking the tree one directory node at a
// time and matching the final component against the innermost node's blobs.
func (s *Snapshot) Resolve(p string) (string, error) {
	rel, ok := cleanPath(p)
	if !ok || path.IsAbs(rel) {
		return "", &NotFoundError{Path: p, Origin: s.Origin()}
	}
	full := path.Join(s.prefix, rel)
	if full == ".." || strings.HasPrefix(full, "../") {
		return "", &NotFoundError{Path: p, Origin: s.Origin(), Err: errOutsideTree}
	}

	components := strings.Split(full, "/")
	node := s.tree
	for _, dir := range components[:len(components)-1] {
		next, err := childTree(node, dir)
		if err != nil {
			return "", &NotFoundError{Path: p, Origin: s.Origin(), Err: err}
		}
		node = next
	}

	file, err := blob(node, components[len(components)-1])
	if err != nil {
		return "", &NotFoundError{Path: p, Origin: s.Origin(), Err: err}
	}
	r, err := file.Reader()
	if err != nil {
		return "", &NotFoundError{Path: p, Origin: s.Origin(), Err: err}
	}
	defer r.Close() //nolint:errcheck // read-only blob reader

	data, err := io.ReadAll(r)
	if err != nil {
		return "", &NotFoundError{Path: p, Origin: s.Origin(), Err: err}
	}
	text, err := decodeText(data)
	if err != nil {
		return "", &NotFoundError{Path: p, Origin: s.Origin(), Err: err}
	}
	return text, nil
}

func childTree(node *object.Tree, name string) (*object.Tree, error) {
	for i := range node.Entries {
		e := &node.Entries[i]
		if e.Name == name && e.Mode == filemode.Dir {
			return node.Tree(e.Name)
		}
	}
	return nil, fmt.Errorf("no directory %q", name)
}

func blob(node *object.Tree, name string) (*object.File, error) {
	for i := range node.Entries {
		e := &node.Entries[i]
		if e.Name == name && e.Mode.IsFile() && e.Mode != filemode.Symlink {
			return node.TreeEntryFile(e)
		}
	}
	return nil, fmt.Errorf("no file %q", name)
}
