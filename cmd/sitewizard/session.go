package main

import (
	"fmt"
	"os"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/internal/cli"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/internal/presentation/graph"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/persistence/middleware"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent sessions",
	Long:  `List, inspect, and remove sessions held by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all active sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.ListSessions(cmd.Context(), app.Engine.Sessions(), os.Stdout)
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <user-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var redactor *middleware.Redactor
		if redact, _ := cmd.Flags().GetBool("redact"); redact {
			var err error
			if redactor, err = middleware.NewRedactor(middleware.DefaultRedactPatterns); err != nil {
				return err
			}
		}
		app, _, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.InspectSession(cmd.Context(), app.Engine.Sessions(), args[0], redactor, os.Stdout)
	},
}

var sessionGraphCmd = &cobra.Command{
	Use:   "graph <user-id>",
	Short: "Export the session progress as a Mermaid diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		s, err := app.Engine.Sessions().Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", args[0], err)
		}
		if s.TemplateID == "" {
			return fmt.Errorf("session '%s' has no template yet", args[0])
		}
		def, err := app.Engine.Registry().Get(s.TemplateID)
		if err != nil {
			return err
		}
		fmt.Print(graph.GenerateMermaid(def, graph.OverlayFor(s)))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm [user-id]...",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return fmt.Errorf("name at least one session or pass --all")
		}
		app, _, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.RemoveSessions(cmd.Context(), app.Engine.Sessions(), args, all, os.Stdout)
	},
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset <user-id>...",
	Short: "Return sessions to the idle state",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.ResetSessions(cmd.Context(), app.Engine.Sessions(), args, os.Stdout)
	},
}

var sessionImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Store a session exported with inspect",
	Long:  `Reads a session as printed by "session inspect" ("-" for stdin) and saves it to the configured store.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		app, _, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.ImportSession(cmd.Context(), app.Engine.Sessions(), in, os.Stdout)
	},
}

var sessionSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove sessions idle for longer than the given age",
	RunE: func(cmd *cobra.Command, args []string) error {
		age, _ := cmd.Flags().GetDuration("older-than")
		if age <= 0 {
			age = cfg.Session.TTL
		}
		app, _, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.SweepSessions(cmd.Context(), app.Engine.Sessions(), age, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionGraphCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionResetCmd)
	sessionCmd.AddCommand(sessionImportCmd)
	sessionCmd.AddCommand(sessionSweepCmd)

	sessionInspectCmd.Flags().Bool("redact", false, "Mask contact links")
	sessionRmCmd.Flags().Bool("all", false, "Remove every session")
	sessionSweepCmd.Flags().Duration("older-than", 0, "Idle age (default: session.ttl)")
}
