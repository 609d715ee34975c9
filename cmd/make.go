package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fulmenhq/preprint/pkg/logger"
)

func newMakeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "make",
		Short: "Compile the manuscript once",
		Long: `Make refreshes the vc stamp (when vc and vc-git.awk are present) and runs
the build command. {master} in the command is replaced by the root document.`,
		Example: `  preprint make
  preprint make --cmd "latexmk -pdf {master}"`,
		Args: cobra.NoArgs,
		RunE: runMake,
	}
	cmd.Flags().String("cmd", "", "Build command (default from config: make)")
	return cmd
}

func runMake(cmd *cobra.Command, _ []string) error {
	proj, err := loadProject(cmd)
	if err != nil {
		return err
	}
	template := proj.Config.Cmd
	if cmd.Flags().Changed("cmd") {
		template, _ = cmd.Flags().GetString("cmd")
	}
	if err := proj.build(cmd, newRunner(), template); err != nil {
		return err
	}
	logger.Debug("Build finished", logger.String("master", proj.Config.Master))
	return nil
}
