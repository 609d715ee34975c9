package figures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/fulmenhq/preprint/pkg/logger"
)

var (
	// ErrUnresolvedFigure marks a figure with no variant in the format list.
	ErrUnresolvedFigure = errors.New("no figure file in any configured format")
	// ErrRasterizationFailed marks a figure left in its original format
	// because rasterization did not succeed.
	ErrRasterizationFailed = errors.New("rasterization failed")
)

// InstallReport summarises one Install call. Warnings wrap
// ErrUnresolvedFigure or ErrRasterizationFailed.
type InstallReport struct {
	Installed []*Record
	Skipped   []*Record
	Warnings  []error
}

// Installer copies figures from a source tree into an output directory.
type Installer struct {
	src     billy.Filesystem
	out     billy.Filesystem
	style   Style
	formats []string
	maxSize float64
	raster  Rasterizer
}

// InstallerOption configures an Installer.
type InstallerOption func(*Installer)

// WithFormats sets the priority used to pick each figure's winning variant.
func WithFormats(formats []string) InstallerOption {
	return func(i *Installer) {
		if len(formats) > 0 {
			i.formats = formats
		}
	}
}

// WithMaxSize sets the size in MB above which figures are rasterized, for
// styles that rasterize. Zero disables the check.
func WithMaxSize(mb float64) InstallerOption {
	return func(i *Installer) { i.maxSize = mb }
}

// WithRasterizer sets the converter used for oversized figures.
func WithRasterizer(r Rasterizer) InstallerOption {
	return func(i *Installer) { i.raster = r }
}

// NewInstaller returns an installer reading figures from src and writing
// them to out.
func NewInstaller(src, out billy.Filesystem, style Style, opts ...InstallerOption) *Installer {
	i := &Installer{src: src, out: out, style: style, formats: DefaultFormats}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install copies each resolved record's winning variant into the output
// directory and rewrites its directives in text to the installed name.
// Unresolved figures are skipped and their directives left untouched.
func (i *Installer) Install(ctx context.Context, text string, records []*Record) (string, *InstallReport, error) {
	report := &InstallReport{}
	var pairs []string
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		ext, size, ok := rec.Winner(i.formats)
		if !ok {
			warn := fmt.Errorf("figure %s (%s): %w", rec.Name, rec.Path, ErrUnresolvedFigure)
			logger.Warn("Skipping figure", logger.String("figure", rec.Path), logger.Err(warn))
			report.Skipped = append(report.Skipped, rec)
			report.Warnings = append(report.Warnings, warn)
			continue
		}

		name := i.style.FigureName(rec, ext)
		from := rec.SourcePath(ext)
		if err := copyFile(i.src, path.Clean(from), i.out, name); err != nil {
			return "", nil, fmt.Errorf("install figure %s: %w", rec.Path, err)
		}
		logger.Debug("Installed figure", logger.String("from", from), logger.String("to", name))

		if i.shouldRasterize(size) {
			rastered, err := i.rasterize(ctx, name)
			if err != nil {
				warn := fmt.Errorf("figure %s (%.2f MB): %w: %w", name, SizeMB(size), ErrRasterizationFailed, err)
				logger.Warn("Keeping original figure", logger.String("figure", name), logger.Err(warn))
				report.Warnings = append(report.Warnings, warn)
			} else {
				logger.Info("Rasterized figure", logger.String("figure", rastered), logger.Float("size_mb", SizeMB(size)))
				name = rastered
				rec.Rasterized = true
			}
		}

		rec.Installed = name
		pairs = append(pairs, rewrites(rec, trimExt(name))...)
		report.Installed = append(report.Installed, rec)
	}
	if len(pairs) > 0 {
		text = strings.NewReplacer(pairs...).Replace(text)
	}
	return text, report, nil
}

func (i *Installer) shouldRasterize(size int64) bool {
	return i.style.Rasterizes() && i.maxSize > 0 && SizeMB(size) > i.maxSize
}

// rasterize converts the installed file name and returns the new name. The
// original is removed only once the bitmap exists.
func (i *Installer) rasterize(ctx context.Context, name string) (string, error) {
	if i.raster == nil {
		return "", errors.New("no rasterizer configured")
	}
	dst := trimExt(name) + "." + i.raster.Format()
	if err := i.raster.Rasterize(ctx, i.out, name, dst); err != nil {
		return "", err
	}
	if _, err := i.out.Stat(dst); err != nil {
		return "", fmt.Errorf("rasterizer produced no %s: %w", dst, err)
	}
	if dst != name {
		if err := i.out.Remove(name); err != nil {
			return "", fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return dst, nil
}

// rewrites returns old/new directive pairs pointing every occurrence of rec
// at ref. All pairs are applied in one literal pass so a new name can never
// be rewritten again by a later figure.
func rewrites(rec *Record, ref string) []string {
	pairs := make([]string, 0, 2*len(rec.Occurrences))
	for _, occ := range rec.Occurrences {
		pairs = append(pairs, occ.Directive(), Occurrence{Options: occ.Options, Path: ref}.Directive())
	}
	return pairs
}

func copyFile(src billy.Filesystem, from string, dst billy.Filesystem, to string) error {
	in, err := src.Open(from)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck // read-only handle

	out, err := dst.Create(to)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
