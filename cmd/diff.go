package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/preprint/internal/gitctx"
	"github.com/fulmenhq/preprint/internal/runner"
	"github.com/fulmenhq/preprint/pkg/assemble"
	"github.com/fulmenhq/preprint/pkg/logger"
	"github.com/fulmenhq/preprint/pkg/safeio"
)

const (
	currentDocument  = "_current.tex"
	previousDocument = "_prev.tex"
)

func newDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff REF",
		Short: "Typeset a latexdiff of the manuscript against a git revision",
		Long: `Diff flattens the working tree manuscript into _current.tex and the
manuscript at REF (tag, branch or commit) into _prev.tex, runs latexdiff on
the pair and compiles the result with latexmk.

Uncommitted changes are part of the current document.`,
		Example: `  preprint diff submitted
  preprint diff 1a2b3c4 --name referee-diff`,
		Args: cobra.ExactArgs(1),
		RunE: runDiff,
	}
	cmd.Flags().StringP("name", "n", "diff", "Name of the difference document")
	cmd.Flags().Bool("no-compile", false, "Stop after latexdiff")
	return cmd
}

func runDiff(cmd *cobra.Command, args []string) error {
	proj, err := loadProject(cmd)
	if err != nil {
		return err
	}
	ref := args[0]
	name, _ := cmd.Flags().GetString("name")
	noCompile, _ := cmd.Flags().GetBool("no-compile")

	name, err = safeio.CleanUserPath(strings.TrimSuffix(name, filepath.Ext(name)))
	if err != nil || name == "." || name == "" {
		return fmt.Errorf("invalid diff name %q", name)
	}

	warnUncommitted(proj)

	rev, err := assemble.FlattenRevisions(cmd.Context(), proj.Dir, proj.Config.Master, ref, proj.inlinerOptions()...)
	if err != nil {
		return err
	}

	for doc, text := range map[string]string{currentDocument: rev.Current, previousDocument: rev.Previous} {
		if proj.DryRun {
			logger.Info("Would write", logger.String("path", doc), logger.Int("bytes", len(text)))
			continue
		}
		if err := safeio.WriteFilePreservePerms(proj.path(doc), []byte(text)); err != nil {
			return fmt.Errorf("write %s: %w", doc, err)
		}
	}

	r := newRunner()
	diffScript := fmt.Sprintf("%s %s %s > %s",
		proj.Config.Diff.Latexdiff, previousDocument, currentDocument, runner.Quote(name+".tex"))
	if err := proj.run(cmd, r, diffScript); err != nil {
		return fmt.Errorf("latexdiff: %w", err)
	}
	if noCompile {
		logger.Info("Wrote difference document", logger.String("path", name+".tex"), logger.String("ref", ref))
		return nil
	}
	if err := proj.run(cmd, r, proj.Config.Diff.Latexmk+" "+runner.Quote(name+".tex")); err != nil {
		return fmt.Errorf("latexmk: %w", err)
	}
	logger.Info("Compiled difference document", logger.String("path", name+".pdf"), logger.String("ref", ref))
	return nil
}

// warnUncommitted logs manuscript files with uncommitted changes, which end
// up in the current side of the diff.
func warnUncommitted(proj *project) {
	repo, err := gitctx.Open(proj.Dir)
	if err != nil {
		logger.Debug("Skipping working tree check", logger.Err(err))
		return
	}
	changes, err := repo.Collect(proj.Config.Exts)
	if err != nil {
		logger.Debug("Skipping working tree check", logger.Err(err))
		return
	}
	if len(changes.ModifiedFiles) == 0 {
		return
	}
	logger.Warn("Uncommitted changes are included in the current document",
		logger.Int("files", len(changes.ModifiedFiles)),
		logger.String("scope", changes.ChangeScope),
		logger.String("branch", changes.Branch))
	for _, f := range changes.ModifiedFiles {
		logger.Debug("Uncommitted", logger.String("file", f))
	}
}
