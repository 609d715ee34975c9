package cmd

import (
	"context"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/preprint/internal/watch"
	"github.com/fulmenhq/preprint/pkg/ignore"
	"github.com/fulmenhq/preprint/pkg/logger"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompile the manuscript whenever a source file changes",
		Long: `Watch runs the build command each time a file with one of the watched
extensions changes. The build directory, the compiled root PDF, gitignored
paths and .preprintignore entries are not watched. Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
	cmd.Flags().StringSlice("exts", nil, "File extensions to watch (default from config: tex,pdf,eps)")
	cmd.Flags().String("cmd", "", "Build command (default from config: make)")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	proj, err := loadProject(cmd)
	if err != nil {
		return err
	}
	exts := proj.Config.Exts
	if cmd.Flags().Changed("exts") {
		exts, _ = cmd.Flags().GetStringSlice("exts")
	}
	template := proj.Config.Cmd
	if cmd.Flags().Changed("cmd") {
		template, _ = cmd.Flags().GetString("cmd")
	}

	r := newRunner()
	cfg, err := watchConfig(proj, exts, func(ctx context.Context, changed []string) error {
		logger.Info("Change detected, rebuilding", logger.String("files", strings.Join(changed, ", ")))
		return proj.build(cmd, r, template)
	})
	if err != nil {
		return err
	}
	w, err := watch.New(cfg)
	if err != nil {
		return err
	}

	logger.Info("Watching for changes",
		logger.String("dir", proj.Dir),
		logger.String("exts", strings.Join(exts, ",")),
		logger.String("cmd", template))
	err = w.Run(cmd.Context())
	if cmd.Context().Err() != nil {
		logger.Info("Stopped watching")
		return nil
	}
	return err
}

// watchConfig builds the watcher configuration for proj.
func watchConfig(proj *project, exts []string, onChange func(context.Context, []string) error) (watch.Config, error) {
	matcher, err := ignore.NewMatcher(proj.Dir)
	if err != nil {
		return watch.Config{}, err
	}
	master := path.Clean(proj.Config.Master)
	masterPDF := strings.TrimSuffix(master, path.Ext(master)) + ".pdf"

	var patterns []string
	if bd := strings.Trim(path.Clean(proj.Config.Package.BuildDir), "/"); bd != "" && bd != "." {
		patterns = append(patterns, bd+"/**")
	}
	return watch.Config{
		BaseDir: proj.Dir,
		Exts:    exts,
		Ignore:  patterns,
		Skip: func(rel string, isDir bool) bool {
			if rel == masterPDF || rel == currentDocument || rel == previousDocument {
				return true
			}
			return matcher.IsIgnoredPath(rel, isDir)
		},
		Debounce: proj.Config.Watch.DebounceDuration(),
		OnChange: onChange,
	}, nil
}
