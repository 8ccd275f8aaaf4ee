package main

import (
	"context"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/internal/cli"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/internal/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Serves the wizard as a JSON API, with /metrics when metrics are enabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, logger, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		logger.Info("Starting sitewizard server", "addr", cfg.HTTP.Addr, "store", cfg.Store.Driver)
		if err := cli.Serve(ctx, app, cfg.HTTP.Addr); err != nil {
			return err
		}
		logger.Info("Server stopped gracefully", "signal", ctx.Signal())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")

	cobra.CheckErr(config.BindFlags(v, serveCmd.Flags(), map[string]string{
		"http.addr":       "addr",
		"metrics.enabled": "metrics",
	}))
}
