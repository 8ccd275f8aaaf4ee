package graph

import (
	"fmt"
	"strings"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/templates"
)

const (
	nodeSelect    = "select_template"
	nodeReview    = "review"
	nodeConfirmed = "confirmed"
	nodeGenerated = "generated"
)

// Overlay marks the progress of a session on the graph.
type Overlay struct {
	// CompletedSteps are step indices in completion order.
	CompletedSteps []int
	Position       domain.Position
}

// OverlayFor builds the overlay of s.
func OverlayFor(s *domain.Session) *Overlay {
	return &Overlay{CompletedSteps: s.History, Position: s.Position}
}

// GenerateMermaid produces a Mermaid flowchart of the wizard for a template:
// - Start and generated: ((Circle))
// - Steps: [/Parallelogram/] labeled with their fields
// - Review: {Diamond}, with dotted edit edges back to every step
// Overlay styles mark completed steps and the current position when provided.
func GenerateMermaid(def *templates.Definition, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	sb.WriteString("    start((\"start\"))\n")
	fmt.Fprintf(&sb, "    %s[\"%s\"]\n", nodeSelect, escape(def.Name))
	sb.WriteString("    start --> " + nodeSelect + "\n")

	prev := nodeSelect
	for i, step := range def.Steps {
		id := stepID(i)
		names := make([]string, 0, len(step.Fields))
		for _, f := range step.Fields {
			name := f.Name
			if f.Required {
				name += "*"
			}
			names = append(names, name)
		}
		title := step.Title
		if title == "" {
			title = step.ID
		}
		fmt.Fprintf(&sb, "    %s[/\"%d. %s <br/> %s\"/]\n", id, i+1, escape(title), escape(strings.Join(names, ", ")))
		fmt.Fprintf(&sb, "    %s --> %s\n", prev, id)
		prev = id
	}

	fmt.Fprintf(&sb, "    %s{\"review\"}\n", nodeReview)
	fmt.Fprintf(&sb, "    %s --> %s\n", prev, nodeReview)
	fmt.Fprintf(&sb, "    %s -- \"confirm\" --> %s\n", nodeReview, nodeConfirmed)
	fmt.Fprintf(&sb, "    %s[[\"confirmed\"]]\n", nodeConfirmed)
	fmt.Fprintf(&sb, "    %s -- \"generate\" --> %s((\"generated\"))\n", nodeConfirmed, nodeGenerated)
	fmt.Fprintf(&sb, "    %s -. \"retry\" .-> %s\n", nodeConfirmed, nodeConfirmed)

	for i := range def.Steps {
		fmt.Fprintf(&sb, "    %s -. \"edit\" .-> %s\n", nodeReview, stepID(i))
	}
	fmt.Fprintf(&sb, "    %s -. \"edit\" .-> %s\n", nodeGenerated, nodeReview)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[int]bool)
		for _, i := range overlay.CompletedSteps {
			if seen[i] || i < 0 || i >= len(def.Steps) {
				continue
			}
			seen[i] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", stepID(i))
		}
		if current := currentNode(overlay.Position, len(def.Steps)); current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", current)
		}
	}

	return sb.String()
}

func currentNode(p domain.Position, steps int) string {
	switch p.Phase {
	case domain.PhaseIdle:
		return "start"
	case domain.PhaseSelectingTemplate:
		return nodeSelect
	case domain.PhaseCollecting:
		if p.Step >= 0 && p.Step < steps {
			return stepID(p.Step)
		}
	case domain.PhaseReviewing:
		return nodeReview
	case domain.PhaseConfirmed:
		return nodeConfirmed
	case domain.PhaseGenerated:
		return nodeGenerated
	}
	return ""
}

func stepID(i int) string { return fmt.Sprintf("step_%d", i) }

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
