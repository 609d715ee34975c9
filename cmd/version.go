/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/preprint/pkg/buildinfo"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show preprint version information",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
	cmd.Flags().Bool("extended", false, "Show detailed build information")
	cmd.Flags().Bool("json", false, "Output version information in JSON format")
	return cmd
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	out := cmd.OutOrStdout()
	info := buildinfo.Current()

	if jsonOutput {
		jsonData, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %v", err)
		}
		_, _ = fmt.Fprintln(out, string(jsonData))
		return nil
	}

	_, _ = fmt.Fprintf(out, "preprint %s\n", info.Version)
	if !extended {
		return nil
	}
	commit := info.GitCommit
	if len(commit) > 8 {
		commit = commit[:8]
	}
	if commit == "" {
		commit = "unknown"
	}
	buildDate := info.BuildDate
	if buildDate == "" {
		buildDate = "unknown"
	}
	if info.ModuleVersion != "" {
		_, _ = fmt.Fprintf(out, "Module version: %s\n", info.ModuleVersion)
	}
	_, _ = fmt.Fprintf(out, "Build date: %s\n", buildDate)
	_, _ = fmt.Fprintf(out, "Git commit: %s\n", commit)
	_, _ = fmt.Fprintf(out, "Go version: %s\n", info.GoVersion)
	_, _ = fmt.Fprintf(out, "Platform: %s/%s\n", info.Platform, info.Arch)
	return nil
}
