package figures

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"

	"github.com/fulmenhq/preprint/internal/runner"
)

// Rasterizer converts an installed figure to a bitmap.
type Rasterizer interface {
	// Format is the extension of the files Rasterize produces.
	Format() string
	// Rasterize writes dst from src; both are names inside fsys.
	Rasterize(ctx context.Context, fsys billy.Filesystem, src, dst string) error
}

// MagickRasterizer shells out to ImageMagick. The first page of the source
// is rendered at Density DPI, trimmed and compressed at Quality.
type MagickRasterizer struct {
	Runner  runner.Runner
	Command string
	Density int
	Quality int
	Ext     string
}

// Format implements Rasterizer.
func (m *MagickRasterizer) Format() string {
	if m.Ext == "" {
		return "jpg"
	}
	return normalizeExt(m.Ext)
}

// Rasterize implements Rasterizer. fsys must be backed by the OS filesystem.
func (m *MagickRasterizer) Rasterize(ctx context.Context, fsys billy.Filesystem, src, dst string) error {
	command := m.Command
	if command == "" {
		command = "magick"
	}
	density, quality := m.Density, m.Quality
	if density <= 0 {
		density = 300
	}
	if quality <= 0 {
		quality = 90
	}
	script := fmt.Sprintf("%s -density %d %s -trim -quality %d %s",
		command, density,
		runner.Quote(src+"[0]"),
		quality,
		runner.Quote(dst))

	r := m.Runner
	if r == nil {
		r = runner.Shell{}
	}
	return r.Run(ctx, runner.Command{Script: script, Dir: filepath.FromSlash(fsys.Root())})
}
