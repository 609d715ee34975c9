package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/preprint/pkg/assemble"
	"github.com/fulmenhq/preprint/pkg/logger"
	"github.com/fulmenhq/preprint/pkg/safeio"
	"github.com/fulmenhq/preprint/pkg/source"
	"github.com/fulmenhq/preprint/pkg/tex"
)

func newFlattenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flatten",
		Short: "Inline every \\input into a single document",
		Long: `Flatten expands \input and \InputIfFileExists recursively starting from the
root document and writes the result to stdout or a file.

With --ref the document is flattened from a committed revision instead of the
working tree. Includes missing from that revision are read from the working
tree.`,
		Args: cobra.NoArgs,
		RunE: runFlatten,
	}
	cmd.Flags().StringP("out", "o", "-", "Output file (- for stdout)")
	cmd.Flags().String("ref", "", "Flatten the document as of this git revision")
	cmd.Flags().Bool("strip-comments", false, "Remove LaTeX comments from the result")
	return cmd
}

func runFlatten(cmd *cobra.Command, _ []string) error {
	proj, err := loadProject(cmd)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	ref, _ := cmd.Flags().GetString("ref")
	strip, _ := cmd.Flags().GetBool("strip-comments")

	live := source.NewLive(proj.Dir)
	var provider source.Provider = live
	opts := proj.inlinerOptions()
	if ref != "" {
		snap, err := source.OpenSnapshot(proj.Dir, ref)
		if err != nil {
			return err
		}
		provider = snap
		opts = append(opts, tex.WithFallback(live))
	}

	text, err := assemble.Flatten(provider, proj.Config.Master, tex.NewInliner(opts...))
	if err != nil {
		return err
	}
	if strip {
		text = tex.StripComments(text)
	}

	if out == "-" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}
	clean, err := safeio.CleanUserPath(out)
	if err != nil {
		return fmt.Errorf("invalid output path %q: %w", out, err)
	}
	if proj.DryRun {
		logger.Info("Would write flattened document",
			logger.String("path", clean),
			logger.Int("bytes", len(text)))
		return nil
	}
	if err := safeio.WriteFilePreservePerms(clean, []byte(text)); err != nil {
		return fmt.Errorf("write %s: %w", clean, err)
	}
	logger.Info("Wrote flattened document",
		logger.String("path", clean),
		logger.String("origin", provider.Origin()))
	return nil
}
