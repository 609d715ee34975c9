package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/preprint/internal/runner"
	"github.com/fulmenhq/preprint/pkg/config"
	"github.com/fulmenhq/preprint/pkg/exitcode"
	"github.com/fulmenhq/preprint/pkg/logger"
	"github.com/fulmenhq/preprint/pkg/tex"
)

// newRunner builds the executor for external tools. Tests replace it.
var newRunner = func() runner.Runner { return runner.Shell{} }

// project is the manuscript a command operates on.
type project struct {
	Dir    string
	Config *config.Config
	DryRun bool
}

func loadProject(cmd *cobra.Command) (*project, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = "."
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return nil, exitcode.Wrap(exitcode.ConfigError, fmt.Errorf("project directory %s not found", dir))
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, exitcode.Wrap(exitcode.ConfigError, err)
	}
	if master, _ := cmd.Flags().GetString("master"); master != "" {
		cfg.Master = master
	}
	// Like its includes, the root document may live above the project directory.
	clean := filepath.ToSlash(filepath.Clean(cfg.Master))
	if strings.TrimSpace(cfg.Master) == "" || clean == "." {
		return nil, exitcode.Wrap(exitcode.ConfigError, fmt.Errorf("master %q does not name a file", cfg.Master))
	}
	cfg.Master = clean

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	logger.Debug("Loaded configuration",
		logger.String("dir", dir),
		logger.String("file", cfg.File),
		logger.String("master", cfg.Master))
	return &project{Dir: dir, Config: cfg, DryRun: dryRun}, nil
}

func (p *project) inlinerOptions() []tex.Option {
	return []tex.Option{tex.WithMaxDepth(p.Config.Inline.MaxDepth)}
}

// path resolves a slash-separated project path on disk.
func (p *project) path(rel string) string {
	return filepath.Join(p.Dir, filepath.FromSlash(rel))
}

// run executes script in the project directory with the command's output
// streams, or only logs it on a dry run.
func (p *project) run(cmd *cobra.Command, r runner.Runner, script string) error {
	if p.DryRun {
		logger.Info("Would run", logger.String("command", script))
		return nil
	}
	logger.Debug("Running", logger.String("command", script))
	return r.Run(cmd.Context(), runner.Command{
		Script: script,
		Dir:    p.Dir,
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	})
}

// build runs vc when present and then the build command template.
func (p *project) build(cmd *cobra.Command, r runner.Runner, template string) error {
	if p.DryRun {
		if runner.HasVC(p.Dir) {
			logger.Info("Would run", logger.String("command", "./vc"))
		}
	} else {
		ran, err := runner.RunVC(cmd.Context(), r, p.Dir)
		if err != nil {
			return fmt.Errorf("vc: %w", err)
		}
		if ran {
			logger.Debug("Refreshed vc stamp", logger.String("dir", p.Dir))
		}
	}
	return p.run(cmd, r, runner.Expand(template, map[string]string{"master": p.Config.Master}))
}
