package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tone-monitor-service/internal/app"
)

const shutdownTimeout = 15 * time.Second

// NewRunCmd starts the service and blocks until SIGINT or SIGTERM.
func NewRunCmd(deps *Dependencies) *cobra.Command {
	var enable bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the tone monitor service",
		Long:  "Start the monitor loop with its control API, gRPC health service and metrics endpoint.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application := app.New(deps.Config)
			if err := application.Build(ctx); err != nil {
				return err
			}
			if err := application.Start(ctx); err != nil {
				application.Shutdown(context.Background())
				return err
			}

			if enable {
				if _, err := application.Monitor.Toggle(ctx); err != nil {
					application.Logger.Warn().Err(err).Msg("Could not enable monitoring at startup")
				}
			}

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			application.Shutdown(shutdownCtx)
			return nil
		},
	}

	cmd.Flags().BoolVar(&enable, "enable", false, "start monitoring immediately")
	return cmd
}
