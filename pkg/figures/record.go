// Package figures discovers the graphics a flattened manuscript references,
// picks the best available format for each, and installs them under
// venue-specific names.
package figures

import (
	"path"
	"strings"
)

// DefaultFormats is the format priority used when none is configured.
var DefaultFormats = []string{"pdf", "eps", "ps", "png", "jpg", "tif"}

const bytesPerMB = 1024 * 1024

// Occurrence is one \includegraphics directive exactly as written.
type Occurrence struct {
	Options string
	Path    string
}

// Directive returns the directive text byte-for-byte.
func (o Occurrence) Directive() string {
	return `\includegraphics` + o.Options + "{" + o.Path + "}"
}

// Record is one logical figure, identified by the basename of its path.
type Record struct {
	// Name is the referenced path without directory or extension.
	Name string
	// Path and Options come from the last directive naming this figure.
	Path    string
	Options string
	// Number is the 1-based sequence number used by numbering styles.
	Number int
	// Formats lists the extensions found on disk, in priority order. Sizes
	// holds the matching file sizes in bytes.
	Formats []string
	Sizes   []int64
	// Occurrences holds every distinct directive that names this figure.
	Occurrences []Occurrence

	// Installed is the file name inside the output directory, set by
	// Installer.Install.
	Installed  string
	Rasterized bool
}

// Resolved reports whether any format variant exists.
func (r *Record) Resolved() bool {
	return len(r.Formats) > 0
}

// Winner returns the first extension in priority that the record has,
// together with its size.
func (r *Record) Winner(priority []string) (string, int64, bool) {
	for _, want := range priority {
		want = normalizeExt(want)
		for i, have := range r.Formats {
			if have == want {
				return have, r.Sizes[i], true
			}
		}
	}
	return "", 0, false
}

// SourcePath returns the on-disk path of the variant with extension ext.
func (r *Record) SourcePath(ext string) string {
	return trimExt(r.Path) + "." + ext
}

// SizeMB converts a byte count to mebibytes.
func SizeMB(n int64) float64 {
	return float64(n) / bytesPerMB
}

func trimExt(p string) string {
	return strings.TrimSuffix(p, path.Ext(p))
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
