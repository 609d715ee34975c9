/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/preprint/internal/ops"
	"github.com/fulmenhq/preprint/pkg/buildinfo"
	"github.com/fulmenhq/preprint/pkg/exitcode"
	"github.com/fulmenhq/preprint/pkg/logger"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preprint",
		Short: "Tools for writing LaTeX papers",
		Long: `Preprint flattens multi-file LaTeX manuscripts, packages them for journal
and arXiv submission, and produces latexdiff comparisons against earlier
revisions in git.

Examples:
   preprint make                  # Build once with the configured command
   preprint watch                 # Rebuild whenever a source file changes
   preprint flatten -o flat.tex   # Inline every \input into one file
   preprint package apj --style aastex --max-size 1
   preprint diff submitted        # latexdiff against the 'submitted' tag`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().Bool("dry-run", false, "Show what would be written or run without doing it")
	cmd.PersistentFlags().StringP("dir", "C", ".", "Project directory")
	cmd.PersistentFlags().String("master", "", "Root .tex document (default from config: paper.tex)")

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("preprint {{.Version}}\n")

	cmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		if cmd.HasParent() {
			cmd.Println(cmd.Long)
			cmd.Println()
			cmd.Print(cmd.UsageString())
			return
		}
		reg := ops.GetRegistry()
		cmd.Println(cmd.Long)
		cmd.Println()
		for _, group := range ops.Groups {
			cmd.Println(groupTitles[group] + ":")
			for _, c := range reg.GetCommandsByGroup(group) {
				cmd.Printf("  %-10s %s\n", c.Name, c.Description)
			}
			cmd.Println()
		}
		cmd.Println("Flags:")
		cmd.Print(cmd.LocalFlags().FlagUsages())
	})

	return cmd
}

var groupTitles = map[ops.CommandGroup]string{
	ops.GroupAssemble: "Manuscript Commands",
	ops.GroupWorkflow: "Workflow Commands",
	ops.GroupSupport:  "Support Commands",
}

// commandGroups classifies every subcommand for grouped help.
var commandGroups = map[string]ops.CommandGroup{
	"flatten": ops.GroupAssemble,
	"package": ops.GroupAssemble,
	"diff":    ops.GroupAssemble,
	"make":    ops.GroupWorkflow,
	"watch":   ops.GroupWorkflow,
	"init":    ops.GroupSupport,
	"version": ops.GroupSupport,
}

// registerSubcommands adds all subcommands to the root command.
// This is called from init() for production and can be called explicitly in tests.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(
		newFlattenCommand(),
		newPackageCommand(),
		newDiffCommand(),
		newMakeCommand(),
		newWatchCommand(),
		newInitCommand(),
		newVersionCommand(),
	)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute runs the root command and exits with the code matching the error.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		err = classify(err)
		logger.Error("Command execution failed", logger.Err(err))
		os.Exit(exitcode.Code(err))
	}
}

func init() {
	registerSubcommands(rootCmd)
	for _, c := range rootCmd.Commands() {
		group, ok := commandGroups[c.Name()]
		if !ok {
			continue
		}
		if err := ops.RegisterCommand(c.Name(), group, c, c.Short); err != nil {
			panic(fmt.Sprintf("Failed to register %s command: %v", c.Name(), err))
		}
	}
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	// version --json is about output, not logs
	if cmd.Name() == "version" {
		jsonLogs = false
	}

	level, ok := logger.ParseLevel(logLevelStr)

	config := logger.Config{
		Level:     level,
		UseColor:  !noColor && os.Getenv("NO_COLOR") == "",
		JSON:      jsonLogs,
		Component: "preprint",
		DryRun:    dryRun,
	}
	logger.Initialize(config)
	if !ok {
		logger.Warn("Unknown log level, using info", logger.String("level", logLevelStr))
	}
}
