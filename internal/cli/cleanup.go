package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tone-monitor-service/internal/service/chunk"
)

// NewCleanupCmd deletes chunk files left behind by a crashed run.
func NewCleanupCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete orphaned audio chunk files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := deps.Config.Recorder.ChunkDir
			n, err := chunk.CleanupOrphans(dir)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d chunk file(s) from %s\n", n, dir)
			return err
		},
	}
}
