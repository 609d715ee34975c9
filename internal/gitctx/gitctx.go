// Package gitctx opens the git repository around a manuscript and resolves
// revisions to commit trees.
package gitctx

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotRepository is returned when no repository encloses the target path.
var ErrNotRepository = errors.New("not a git repository")

// Repo is an opened repository together with the location of the caller's
// directory inside its worktree.
type Repo struct {
	Repository *git.Repository
	// Root is the absolute worktree root.
	Root string
	// Prefix is the slash-separated path from Root to the opened directory
	// ("" when the directory is the root itself).
	Prefix string
}

// ChangeContext captures a minimal view of the uncommitted manuscript changes.
type ChangeContext struct {
	ModifiedFiles []string `json:"modified_files"`
	ChangeScope   string   `json:"change_scope"` // small | medium | large
	GitSHA        string   `json:"git_sha,omitempty"`
	Branch        string   `json:"branch,omitempty"`
}

// Open finds the repository enclosing target, searching parent directories.
func Open(target string) (*Repo, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", target, err)
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s: %w", target, ErrNotRepository)
		}
		return nil, fmt.Errorf("open repository at %s: %w", target, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	root := wt.Filesystem.Root()
	prefix, err := relPrefix(root, abs)
	if err != nil {
		return nil, err
	}
	return &Repo{Repository: repo, Root: root, Prefix: prefix}, nil
}

// relPrefix returns dir relative to root in slash form, resolving symlinks on
// both sides so that /tmp and /private/tmp style aliases compare equal.
func relPrefix(root, dir string) (string, error) {
	if r, err := filepath.EvalSymlinks(root); err == nil {
		root = r
	}
	if d, err := filepath.EvalSymlinks(dir); err == nil {
		dir = d
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return "", fmt.Errorf("locate %s in worktree %s: %w", dir, root, err)
	}
	if rel == "." {
		return "", nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside worktree %s", dir, root)
	}
	return filepath.ToSlash(rel), nil
}

// ResolveCommit resolves a tag, branch, remote branch or (short) hash to a
// commit. Annotated tags are peeled to the commit they point at.
func (r *Repo) ResolveCommit(ref string) (*object.Commit, error) {
	hash, err := resolveRefHash(r.Repository, ref)
	if err != nil {
		return nil, err
	}
	if commit, err := r.Repository.CommitObject(hash); err == nil {
		return commit, nil
	}
	tag, err := r.Repository.TagObject(hash)
	if err != nil {
		return nil, fmt.Errorf("ref %s does not name a commit: %w", ref, err)
	}
	commit, err := tag.Commit()
	if err != nil {
		return nil, fmt.Errorf("tag %s does not point at a commit: %w", ref, err)
	}
	return commit, nil
}

// Tree returns the root tree of the commit named by ref.
func (r *Repo) Tree(ref string) (*object.Tree, error) {
	commit, err := r.ResolveCommit(ref)
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", ref, err)
	}
	return tree, nil
}

func resolveRefHash(repository *git.Repository, ref string) (plumbing.Hash, error) {
	if hash, err := repository.ResolveRevision(plumbing.Revision(ref)); err == nil {
		return *hash, nil
	}

	candidates := []plumbing.ReferenceName{
		plumbing.ReferenceName(ref),
		plumbing.NewBranchReferenceName(ref),
		plumbing.NewRemoteReferenceName("origin", ref),
		plumbing.NewTagReferenceName(ref),
	}
	for _, candidate := range candidates {
		if reference, err := repository.Reference(candidate, true); err == nil {
			return reference.Hash(), nil
		}
	}

	if len(ref) == 40 && isHex(ref) {
		return plumbing.NewHash(ref), nil
	}
	return plumbing.ZeroHash, fmt.Errorf("ref %s not found", ref)
}

func isHex(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return false
		}
	}
	return true
}

// Collect reports uncommitted (staged or unstaged) files under the opened
// directory whose extension is in exts. An empty exts matches every file.
func (r *Repo) Collect(exts []string) (*ChangeContext, error) {
	head, err := r.Repository.Head()
	if err != nil {
		return nil, fmt.Errorf("read HEAD: %w", err)
	}
	wt, err := r.Repository.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	st, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("worktree status: %w", err)
	}

	wanted := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		wanted["."+strings.TrimPrefix(strings.ToLower(e), ".")] = struct{}{}
	}

	var modified []string
	for path, s := range st {
		if s.Staging == git.Unmodified && s.Worktree == git.Unmodified {
			continue
		}
		path = filepath.ToSlash(path)
		if r.Prefix != "" && !strings.HasPrefix(path, r.Prefix+"/") {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[strings.ToLower(filepath.Ext(path))]; !ok {
				continue
			}
		}
		modified = append(modified, path)
	}
	sort.Strings(modified)

	return &ChangeContext{
		ModifiedFiles: modified,
		ChangeScope:   classifyByFileCount(len(modified)),
		GitSHA:        head.Hash().String(),
		Branch:        head.Name().Short(),
	}, nil
}

func classifyByFileCount(n int) string {
	switch {
	case n <= 5:
		return "small"
	case n <= 20:
		return "medium"
	default:
		return "large"
	}
}
