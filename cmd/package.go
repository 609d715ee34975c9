package cmd

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/fulmenhq/preprint/pkg/ascii"
	"github.com/fulmenhq/preprint/pkg/assemble"
	"github.com/fulmenhq/preprint/pkg/figures"
	"github.com/fulmenhq/preprint/pkg/logger"
	"github.com/fulmenhq/preprint/pkg/safeio"
	"github.com/fulmenhq/preprint/pkg/source"
	"github.com/fulmenhq/preprint/pkg/tex"
)

func newPackageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package NAME",
		Short: "Package the manuscript for journal or arXiv submission",
		Long: `Package flattens the manuscript, removes comments, injects the compiled
bibliography and copies every referenced figure into <build_dir>/NAME.

Styles:
  default  figures keep their file names
  arxiv    figures are renamed figure1, figure2, ...
  aastex   figures are renamed f1, f2, ..., the document is written as ms.tex
           and figures above --max-size MB are rasterized`,
		Args: cobra.ExactArgs(1),
		RunE: runPackage,
	}
	cmd.Flags().String("style", "", "Build style: "+strings.Join(figures.Styles(), "|")+" (default from config)")
	cmd.Flags().Float64("max-size", 0, "Rasterize figures larger than this many MB (aastex style)")
	cmd.Flags().StringSlice("formats", nil, "Figure extensions in priority order (default from config)")
	cmd.Flags().Bool("keep-comments", false, "Do not strip comments")
	cmd.Flags().Bool("no-bibliography", false, "Do not inject the compiled .bbl")
	return cmd
}

func runPackage(cmd *cobra.Command, args []string) error {
	proj, err := loadProject(cmd)
	if err != nil {
		return err
	}
	pc := proj.Config.Package

	styleName := pc.Style
	if cmd.Flags().Changed("style") {
		styleName, _ = cmd.Flags().GetString("style")
	}
	style, err := figures.ParseStyle(styleName)
	if err != nil {
		return err
	}
	maxSize := pc.MaxSizeMB
	if cmd.Flags().Changed("max-size") {
		maxSize, _ = cmd.Flags().GetFloat64("max-size")
		if !style.Rasterizes() {
			logger.Warn("--max-size only applies to styles that rasterize", logger.String("style", style.String()))
		}
	}
	formats := pc.Formats
	if cmd.Flags().Changed("formats") {
		formats, _ = cmd.Flags().GetStringSlice("formats")
	}
	keep, _ := cmd.Flags().GetBool("keep-comments")
	noBib, _ := cmd.Flags().GetBool("no-bibliography")

	outDir, err := safeio.ContainedPath(filepath.Join(proj.Dir, pc.BuildDir), args[0])
	if err != nil {
		return fmt.Errorf("invalid package name %q: %w", args[0], err)
	}

	var out billy.Filesystem
	var raster figures.Rasterizer
	if proj.DryRun {
		out = memfs.New()
	} else {
		if err := os.MkdirAll(outDir, 0o750); err != nil {
			return fmt.Errorf("create %s: %w", outDir, err)
		}
		out = osfs.New(outDir)
		raster = &figures.MagickRasterizer{
			Runner:  newRunner(),
			Command: proj.Config.Raster.Command,
			Density: proj.Config.Raster.Density,
			Quality: proj.Config.Raster.Quality,
			Ext:     proj.Config.Raster.Format,
		}
	}

	res, err := assemble.Package(cmd.Context(), source.Dir(proj.Dir), out, assemble.PackageOptions{
		Master:        proj.Config.Master,
		Style:         style,
		Formats:       formats,
		MaxSizeMB:     maxSize,
		Rasterizer:    raster,
		StripComments: pc.StripComments && !keep,
		Bibliography:  pc.Bibliography && !noBib,
		Inliner:       tex.NewInliner(proj.inlinerOptions()...),
	})
	if err != nil {
		return err
	}

	printPackageSummary(cmd, outDir, res)
	return nil
}

func printPackageSummary(cmd *cobra.Command, outDir string, res *assemble.Result) {
	w := cmd.OutOrStdout()
	rows := [][]string{{"FIGURE", "INSTALLED", "NOTE"}}
	for _, rec := range res.Records {
		switch {
		case rec.Installed != "":
			note := ""
			if rec.Rasterized {
				note = "rasterized"
			}
			rows = append(rows, []string{rec.Path, rec.Installed, note})
		default:
			rows = append(rows, []string{rec.Path, "-", "not found"})
		}
	}
	if len(rows) > 1 {
		_, _ = fmt.Fprint(w, ascii.Table(rows, 48))
		_, _ = fmt.Fprintln(w)
	}

	bib := "not injected"
	if res.Bibliography {
		bib = "injected"
	}
	lines := []string{
		"Document:     " + path.Join(filepath.ToSlash(outDir), res.Document),
		fmt.Sprintf("Figures:      %d installed, %d skipped", len(res.Figures.Installed), len(res.Figures.Skipped)),
		"Bibliography: " + bib,
	}
	if n := len(res.Warnings); n > 0 {
		lines = append(lines, fmt.Sprintf("Warnings:     %d", n))
	}
	_, _ = fmt.Fprint(w, ascii.Box(lines))
}
