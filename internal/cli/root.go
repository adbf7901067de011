// Package cli defines the tone-monitor command tree.
package cli

import (
	"github.com/spf13/cobra"

	"tone-monitor-service/internal/config"
)

// Dependencies are shared by every command.
type Dependencies struct {
	Config *config.Configuration
}

// NewRootCmd builds the root command.
func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tone-monitor",
		Short:         "Listen for disagreeable tone and alert the speaker",
		Long:          "Records speech in fixed-length chunks, transcribes each chunk, asks a language model whether the tone was agreeable and raises a desktop alert when it was not.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewRunCmd(deps))
	rootCmd.AddCommand(NewPromptCmd(deps))
	rootCmd.AddCommand(NewCleanupCmd(deps))

	return rootCmd
}
