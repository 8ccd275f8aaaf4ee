package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/internal/presentation/graph"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/internal/presentation/tui"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/templates"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect the template catalog",
}

var templatesListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the available templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadCatalog(cmd)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTEPS\tREQUIRED")
		for _, s := range reg.List() {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", s.ID, s.Name, s.Steps, len(s.Required))
		}
		return w.Flush()
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <template-id>",
	Short: "Describe the steps and fields of a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadCatalog(cmd)
		if err != nil {
			return err
		}
		def, err := reg.Get(args[0])
		if err != nil {
			return err
		}
		md := tui.TemplateMarkdown(def)
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Print(md)
			return nil
		}
		r, err := tui.NewRenderer(false, 80)
		if err != nil {
			return err
		}
		out, err := r.Render(md)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

var templatesGraphCmd = &cobra.Command{
	Use:   "graph <template-id>",
	Short: "Export the template flow as a Mermaid diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadCatalog(cmd)
		if err != nil {
			return err
		}
		def, err := reg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Print(graph.GenerateMermaid(def, nil))
		return nil
	},
}

var templatesValidateCmd = &cobra.Command{
	Use:   "validate <catalog-file>",
	Short: "Check a catalog file for consistency",
	Long: `Compiles every template of the catalog and reports unknown rules, duplicate
fields, bad theme colors or derivations pointing at undeclared fields.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := templates.LoadFile(args[0])
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Printf("Catalog is valid: %d template(s), %d theme(s)\n", len(reg.IDs()), len(reg.Themes()))
		return nil
	},
}

// loadCatalog builds the configured registry without opening a store.
func loadCatalog(cmd *cobra.Command) (*templates.Registry, error) {
	app, _, err := newApp(cmd)
	if err != nil {
		return nil, err
	}
	defer app.Close()
	return app.Engine.Registry(), nil
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesShowCmd)
	templatesCmd.AddCommand(templatesGraphCmd)
	templatesCmd.AddCommand(templatesValidateCmd)
}
