// Package ignore decides which manuscript paths preprint skips, using
// gitignore rules plus a project-level .preprintignore.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileName is the project-level ignore file.
const FileName = ".preprintignore"

// Matcher provides gitignore-based file filtering
type Matcher struct {
	matcher gitignore.Matcher
}

// NewMatcher creates a matcher for the project rooted at root. Layers, in
// increasing priority:
//  1. built-in patterns (.git)
//  2. .gitignore files under root and .git/info/exclude
//  3. root/.preprintignore
//
// extra patterns (gitignore syntax) are appended last.
func NewMatcher(root string, extra ...string) (*Matcher, error) {
	fs := osfs.New(root)

	var all []gitignore.Pattern
	all = append(all, gitignore.ParsePattern(".git/", nil))

	if gitPatterns, err := gitignore.ReadPatterns(fs, nil); err == nil {
		all = append(all, gitPatterns...)
	}

	local, err := readIgnoreFile(filepath.Join(root, FileName))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for _, p := range append(local, extra...) {
		all = append(all, gitignore.ParsePattern(p, nil))
	}

	return &Matcher{matcher: gitignore.NewMatcher(all)}, nil
}

func readIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path) // #nosec G304 -- fixed file name under the project root
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read-only handle

	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, sc.Err()
}

// IsIgnored reports whether rel, a slash-separated path relative to the
// project root, is ignored.
func (m *Matcher) IsIgnored(rel string, isDir bool) bool {
	parts := splitPath(rel)
	if len(parts) == 0 {
		return false
	}
	return m.matcher.Match(parts, isDir)
}

// IsIgnoredPath is IsIgnored for a path that may also be ignored through one
// of its parent directories.
func (m *Matcher) IsIgnoredPath(rel string, isDir bool) bool {
	parts := splitPath(rel)
	for i := 1; i < len(parts); i++ {
		if m.matcher.Match(parts[:i], true) {
			return true
		}
	}
	return len(parts) > 0 && m.matcher.Match(parts, isDir)
}

func splitPath(path string) []string {
	path = strings.TrimPrefix(filepath.ToSlash(path), "/")
	if path == "" || path == "." {
		return nil
	}
	parts := strings.Split(path, "/")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}
