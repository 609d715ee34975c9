package figures

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// ErrUnknownStyle is returned by ParseStyle for unrecognised names.
var ErrUnknownStyle = errors.New("unknown build style")

// Style selects the output naming and size policy for a submission venue.
type Style int

const (
	// StyleDefault keeps figure basenames and the document name.
	StyleDefault Style = iota
	// StyleArXiv numbers figures figure<N>.<ext>.
	StyleArXiv
	// StyleAASTeX numbers figures f<N>.<ext>, names the document ms.tex and
	// rasterizes oversized figures.
	StyleAASTeX
)

type policy struct {
	name      string
	document  string // fixed document name; empty keeps the original
	prefix    string // figure name prefix; empty keeps the basename
	rasterize bool
}

var policies = [...]policy{
	StyleDefault: {name: "default"},
	StyleArXiv:   {name: "arxiv", prefix: "figure"},
	StyleAASTeX:  {name: "aastex", document: "ms.tex", prefix: "f", rasterize: true},
}

// Styles lists the accepted style names.
func Styles() []string {
	names := make([]string, len(policies))
	for i, p := range policies {
		names[i] = p.name
	}
	return names
}

// ParseStyle maps a style name to a Style.
func ParseStyle(s string) (Style, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	if want == "" {
		return StyleDefault, nil
	}
	for i, p := range policies {
		if p.name == want {
			return Style(i), nil
		}
	}
	return StyleDefault, fmt.Errorf("%w %q (want one of %s)", ErrUnknownStyle, s, strings.Join(Styles(), ", "))
}

func (s Style) policy() policy {
	if s < 0 || int(s) >= len(policies) {
		return policies[StyleDefault]
	}
	return policies[s]
}

func (s Style) String() string {
	return s.policy().name
}

// DocumentName returns the output file name for the root document master.
func (s Style) DocumentName(master string) string {
	if doc := s.policy().document; doc != "" {
		return doc
	}
	return path.Base(strings.ReplaceAll(master, "\\", "/"))
}

// FigureName returns the installed file name for r in format ext.
func (s Style) FigureName(r *Record, ext string) string {
	if prefix := s.policy().prefix; prefix != "" {
		return prefix + strconv.Itoa(r.Number) + "." + ext
	}
	return r.Name + "." + ext
}

// Rasterizes reports whether oversized figures are converted to bitmaps.
func (s Style) Rasterizes() bool {
	return s.policy().rasterize
}
