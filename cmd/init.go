/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/preprint/pkg/config"
	"github.com/fulmenhq/preprint/pkg/exitcode"
	"github.com/fulmenhq/preprint/pkg/ignore"
	"github.com/fulmenhq/preprint/pkg/logger"
	"github.com/fulmenhq/preprint/pkg/tex"
)

// fallbackMaster is written when no root document can be found.
const fallbackMaster = "article.tex"

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a preprint configuration file for this project",
		Long: `Init looks for the root document (the shallowest .tex file declaring a
\documentclass, skipping the build directory and ignored paths) and writes a
configuration file with the default settings.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
	cmd.Flags().String("format", "json", "Config file format: "+strings.Join(config.Formats, "|"))
	cmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	format, _ := cmd.Flags().GetString("format")
	force, _ := cmd.Flags().GetBool("force")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	format = strings.ToLower(format)
	if format == "yml" {
		format = "yaml"
	}
	if _, err := config.Marshal(config.Default(), format); err != nil {
		return exitcode.Wrap(exitcode.ConfigError, err)
	}

	existing := config.Find(dir)
	if existing != "" && !force {
		return exitcode.Wrap(exitcode.ConfigError,
			fmt.Errorf("%s already exists (use --force to overwrite)", existing))
	}

	cfg := config.Default()
	master, err := findMaster(dir, cfg.Package.BuildDir)
	switch {
	case errors.Is(err, tex.ErrRootNotFound):
		logger.Warn("Could not find a root .tex file", logger.String("using", fallbackMaster))
		master = fallbackMaster
	case err != nil:
		return err
	default:
		logger.Debug("Found root document", logger.String("master", master))
	}
	cfg.Master = master

	target := filepath.Join(dir, config.FileName+"."+format)
	if dryRun {
		data, _ := config.Marshal(cfg, format)
		logger.Info("Would write configuration", logger.String("path", target))
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if existing != "" && existing != target {
		if err := os.Remove(existing); err != nil {
			return fmt.Errorf("remove %s: %w", existing, err)
		}
	}
	if err := config.Write(target, format, cfg); err != nil {
		return err
	}
	logger.Info("Wrote configuration", logger.String("path", target), logger.String("master", master))
	return nil
}

// findMaster locates the root document under dir, skipping buildDir and
// ignored paths.
func findMaster(dir, buildDir string) (string, error) {
	matcher, err := ignore.NewMatcher(dir)
	if err != nil {
		return "", err
	}
	buildDir = strings.Trim(path.Clean(filepath.ToSlash(buildDir)), "/")
	return tex.FindRoot(os.DirFS(dir), func(p string) bool {
		if buildDir != "" && buildDir != "." && (p == buildDir || strings.HasPrefix(p, buildDir+"/")) {
			return true
		}
		return matcher.IsIgnoredPath(p, false)
	})
}
