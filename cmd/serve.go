package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"inventory-vision/internal/api/rest"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := rest.Options{
				RateLimitRPS:   rt.cfg.RateLimitRPS,
				RateLimitBurst: rt.cfg.RateLimitBurst,
			}
			if hc, ok := rt.container.Detector.(rest.HealthChecker); ok {
				opts.Health = hc
			}

			server := rest.New(rt.log, rt.container.PipelineService, rt.container.Storage, opts)

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Listen(":" + rt.cfg.HTTPPort)
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			rt.log.Info("Shutting down HTTP server")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			return server.Shutdown(ctx)
		},
	}
}
