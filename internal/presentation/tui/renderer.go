package tui

import (
	"fmt"
	"strings"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/flow"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/templates"
	"github.com/charmbracelet/glamour"
)

// Renderer turns prompt summaries into terminal output.
type Renderer struct {
	term *glamour.TermRenderer
}

// NewRenderer builds a markdown renderer. Plain output drops colors for
// pipes and logs.
func NewRenderer(plain bool, width int) (*Renderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if plain {
		opts = append(opts, glamour.WithStandardStyle("notty"))
	} else {
		opts = append(opts, glamour.WithAutoStyle())
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("init renderer: %w", err)
	}
	return &Renderer{term: r}, nil
}

// Render renders markdown.
func (r *Renderer) Render(markdown string) (string, error) {
	return r.term.Render(markdown)
}

// Review renders the review section of p.
func (r *Renderer) Review(p flow.Prompt) (string, error) {
	return r.Render(ReviewMarkdown(p))
}

// ReviewMarkdown summarizes the collected values and, once generated, the
// artifact links.
func ReviewMarkdown(p flow.Prompt) string {
	var b strings.Builder
	b.WriteString("## Review\n\n")
	if len(p.Review) == 0 {
		b.WriteString("_Nothing collected yet._\n")
	}
	for _, f := range p.Review {
		value := f.Value
		if value == "" {
			value = "_skipped_"
		}
		fmt.Fprintf(&b, "- **%s** (`%s`): %s\n", f.Label, f.Name, oneLine(value))
	}

	if a := p.Artifact; a != nil {
		b.WriteString("\n## Your site\n\n")
		fmt.Fprintf(&b, "- Hash: `%s`\n", a.SiteHash)
		if a.PreviewURL != "" {
			fmt.Fprintf(&b, "- Preview: %s\n", a.PreviewURL)
		}
		if a.RepoURL != "" {
			fmt.Fprintf(&b, "- Repository: %s\n", a.RepoURL)
		}
		if a.RawURL != "" && a.RawURL != a.PreviewURL {
			fmt.Fprintf(&b, "- Source: %s\n", a.RawURL)
		}
	}
	if p.Pending {
		b.WriteString("\n_A generation is in progress._\n")
	}
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TemplateMarkdown describes a template: its steps, fields and rules.
// Required fields are marked with an asterisk.
func TemplateMarkdown(def *templates.Definition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s (`%s`)\n\n", def.Name, def.ID)
	if def.Description != "" {
		b.WriteString(def.Description + "\n\n")
	}
	for i, step := range def.Steps {
		title := step.Title
		if title == "" {
			title = step.ID
		}
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, title)
		if step.Prompt != "" {
			fmt.Fprintf(&b, "> %s\n\n", step.Prompt)
		}
		for _, f := range step.Fields {
			marker := ""
			if f.Required {
				marker = "*"
			}
			rule := "text"
			if f.Rule != nil {
				rule = f.Rule.Name()
			}
			fmt.Fprintf(&b, "- `%s`%s %s, %s", f.Name, marker, f.Label, rule)
			if choices := f.Choices(); len(choices) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(choices, ", "))
			}
			if f.Default != "" {
				fmt.Fprintf(&b, ", default `%s`", f.Default)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
