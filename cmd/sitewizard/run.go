package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"

	sitewizard "github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/internal/cli"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the wizard in the terminal",
	Long: `Walks through the wizard interactively. Piped input is read one answer per line.
With a persistent store an interrupted session resumes on the next run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		plain, _ := cmd.Flags().GetBool("plain")
		if userID == "" {
			userID = defaultUser()
		}

		app, _, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		interactive := !plain && term.IsTerminal(int(os.Stdin.Fd()))
		w := &cli.Wizard{
			Engine: app.Engine,
			UserID: userID,
			Out:    os.Stdout,
		}
		if interactive {
			tui.PrintBanner(os.Stdout, sitewizard.Version)
			w.Prompter = cli.SurveyPrompter{}
			width, _, sizeErr := term.GetSize(int(os.Stdout.Fd()))
			if sizeErr != nil || width <= 0 {
				width = 80
			}
			if w.Renderer, err = tui.NewRenderer(false, width); err != nil {
				return err
			}
		} else {
			w.Prompter = cli.NewLinePrompter(os.Stdin, os.Stdout)
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		err = cli.HandleExecutionError(w.Run(ctx))
		if errors.Is(err, cli.ErrRetriesExhausted) {
			fmt.Fprintln(os.Stderr, "Your answers are kept; run again to retry the generation.")
		}
		return err
	},
}

func defaultUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "local"
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("user", "u", "", "Session owner (default: the OS user)")
	runCmd.Flags().Bool("plain", false, "Read answers line by line even on a terminal")

	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
