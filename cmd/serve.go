package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"leetmentor/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mentoring API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return runServe(ctx)
	},
}

func runServe(ctx context.Context) error {
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	srv := server.New(a.cfg, a.pipeline, a.store, a.logger)
	return srv.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
