package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tone-monitor-service/internal/service/prefs"
)

// NewPromptCmd manages the question asked of the classifier.
func NewPromptCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Show or change the tone question",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the question in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := prefs.Open(deps.Config.Preferences.File)
			if err != nil {
				return err
			}
			_, custom := store.Custom()
			source := "default"
			if custom {
				source = "custom"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s (%s)\n%s\n", source, store.Path(), store.Prompt())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <question>",
		Short: "Save a custom question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := prefs.Open(deps.Config.Preferences.File)
			if err != nil {
				return err
			}
			if err := store.SetPrompt(strings.Join(args, " ")); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved prompt to %s\n", store.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Go back to the built-in question",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := prefs.Open(deps.Config.Preferences.File)
			if err != nil {
				return err
			}
			if err := store.ResetPrompt(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Prompt reset to default")
			return nil
		},
	})

	return cmd
}
