package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/internal/cli"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	v   = viper.New()
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sitewizard",
	Short: "Sitewizard collects site details step by step and generates the site",
	Long: `Sitewizard walks a user through a template's steps, validates every answer,
shows a review, and hands the confirmed answers to a site generator.

Configuration is read from sitewizard.{yaml,toml,json} in the working directory
or $HOME/.sitewizard, then from SITEWIZARD_* environment variables, then flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(v, file)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./sitewizard.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("templates", "", "Template catalog file (yaml, toml or json)")
	rootCmd.PersistentFlags().String("store", "memory", "Session store: memory, file or redis")

	cobra.CheckErr(config.BindFlags(v, rootCmd.PersistentFlags(), map[string]string{
		"log.level":      "log-level",
		"templates.path": "templates",
		"store.driver":   "store",
	}))
}

// newApp builds the application for a command. Logs go to stderr so stdout
// stays free for command output and the stdio transport.
func newApp(cmd *cobra.Command) (*cli.App, *slog.Logger, error) {
	logger, err := cli.NewLogger(os.Stderr, cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	app, err := cli.NewApp(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return app, logger, nil
}
