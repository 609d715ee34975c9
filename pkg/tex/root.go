package tex

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrRootNotFound is returned by FindRoot when no candidate declares a
// document class.
var ErrRootNotFound = errors.New("no root document found")

var documentClass = regexp.MustCompile(`\\documentclass\s*(\[[^\]]*\])?\s*\{[^}]*\}`)

// FindRoot returns the shallowest .tex file under fsys (ties broken
// lexically) whose uncommented text contains \documentclass. skip, when
// non-nil, filters out candidate paths (slash-separated, relative to fsys).
func FindRoot(fsys fs.FS, skip func(path string) bool) (string, error) {
	matches, err := doublestar.Glob(fsys, "**/*"+Ext, doublestar.WithFilesOnly())
	if err != nil {
		return "", fmt.Errorf("search for %s files: %w", Ext, err)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		di, dj := strings.Count(matches[i], "/"), strings.Count(matches[j], "/")
		if di != dj {
			return di < dj
		}
		return matches[i] < matches[j]
	})
	for _, m := range matches {
		if skip != nil && skip(m) {
			continue
		}
		data, err := fs.ReadFile(fsys, m)
		if err != nil {
			continue
		}
		if IsRoot(string(data)) {
			return m, nil
		}
	}
	return "", ErrRootNotFound
}

// IsRoot reports whether text declares a document class outside comments.
func IsRoot(text string) bool {
	return documentClass.MatchString(StripComments(text))
}
