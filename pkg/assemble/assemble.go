// Package assemble runs the manuscript pipeline: inline includes, strip
// comments, inject the bibliography, then install figures.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/fulmenhq/preprint/pkg/figures"
	"github.com/fulmenhq/preprint/pkg/logger"
	"github.com/fulmenhq/preprint/pkg/source"
	"github.com/fulmenhq/preprint/pkg/tex"
)

// ErrBibliographyMissing marks a package built without a compiled .bbl.
var ErrBibliographyMissing = errors.New("compiled bibliography not found")

// BibliographyExt is the extension of the compiled bibliography that sits
// next to the root document.
const BibliographyExt = ".bbl"

// Flatten reads master through p and expands every include in it.
func Flatten(p source.Provider, master string, in *tex.Inliner) (string, error) {
	if in == nil {
		in = tex.NewInliner()
	}
	text, err := p.Resolve(master)
	if err != nil {
		return "", fmt.Errorf("read root document: %w", err)
	}
	return in.Inline(text, p)
}

// PackageOptions configures Package.
type PackageOptions struct {
	// Master is the root document, relative to the source filesystem.
	Master  string
	Style   figures.Style
	Formats []string
	// MaxSizeMB triggers rasterization for styles that support it.
	MaxSizeMB     float64
	Rasterizer    figures.Rasterizer
	StripComments bool
	Bibliography  bool
	// Inliner defaults to tex.NewInliner().
	Inliner *tex.Inliner
}

// Result describes a finished package.
type Result struct {
	// Document is the name of the written document inside the output.
	Document     string
	Records      []*figures.Record
	Figures      *figures.InstallReport
	Bibliography bool
	// Warnings collects every non-fatal condition, figure warnings included.
	Warnings []error
}

// Package builds a submission bundle from the manuscript in src into out.
// Missing includes and I/O failures abort; unresolved figures, a missing
// bibliography and failed rasterization are reported as warnings.
func Package(ctx context.Context, src, out billy.Filesystem, opts PackageOptions) (*Result, error) {
	live := source.NewLiveFS(src)
	text, err := Flatten(live, opts.Master, opts.Inliner)
	if err != nil {
		return nil, err
	}
	logger.Debug("Flattened manuscript", logger.String("master", opts.Master), logger.Int("bytes", len(text)))

	if opts.StripComments {
		text = tex.StripComments(text)
	}

	res := &Result{}
	if opts.Bibliography && tex.HasBibliography(text) {
		bblPath := BibliographyPath(opts.Master)
		bbl, err := live.Resolve(bblPath)
		switch {
		case err == nil:
			text = tex.InjectBibliography(text, bbl)
			res.Bibliography = true
		case source.IsNotFound(err):
			warn := fmt.Errorf("%s: %w", bblPath, ErrBibliographyMissing)
			logger.Warn("Leaving \\bibliography in place", logger.Err(warn))
			res.Warnings = append(res.Warnings, warn)
		default:
			return nil, err
		}
	}

	res.Records = figures.Discover(src, text, opts.Formats)
	installer := figures.NewInstaller(src, out, opts.Style,
		figures.WithFormats(opts.Formats),
		figures.WithMaxSize(opts.MaxSizeMB),
		figures.WithRasterizer(opts.Rasterizer))
	text, report, err := installer.Install(ctx, text, res.Records)
	if err != nil {
		return nil, err
	}
	res.Figures = report
	res.Warnings = append(res.Warnings, report.Warnings...)

	res.Document = opts.Style.DocumentName(opts.Master)
	if err := util.WriteFile(out, res.Document, []byte(text), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", res.Document, err)
	}
	logger.Info("Packaged manuscript",
		logger.String("document", res.Document),
		logger.String("style", opts.Style.String()),
		logger.Int("figures", len(report.Installed)),
		logger.Int("skipped", len(report.Skipped)))
	return res, nil
}

// BibliographyPath returns the compiled bibliography path for master.
func BibliographyPath(master string) string {
	return master[:len(master)-len(path.Ext(master))] + BibliographyExt
}
