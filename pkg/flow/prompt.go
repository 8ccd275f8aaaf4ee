package flow

import (
	"fmt"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/templates"
)

// PromptKind tells a transport what to render next.
type PromptKind string

const (
	PromptWelcome   PromptKind = "welcome"
	PromptTemplates PromptKind = "templates"
	PromptStep      PromptKind = "step"
	PromptReview    PromptKind = "review"
	PromptConfirmed PromptKind = "confirmed"
	PromptArtifact  PromptKind = "artifact"
)

// Prompt describes the next interaction for a session.
type Prompt struct {
	Kind      PromptKind          `json:"kind"`
	Message   string              `json:"message"`
	Templates []templates.Summary `json:"templates,omitempty"`
	Step      *StepPrompt         `json:"step,omitempty"`
	Review    []FieldValue        `json:"review,omitempty"`
	Artifact  *domain.Artifact    `json:"artifact,omitempty"`

	// Pending is true while a generation attempt is in flight.
	Pending bool `json:"pending,omitempty"`
}

// StepPrompt describes the step being collected.
type StepPrompt struct {
	Index   int           `json:"index"`
	Total   int           `json:"total"`
	ID      string        `json:"id"`
	Title   string        `json:"title,omitempty"`
	Prompt  string        `json:"prompt,omitempty"`
	Editing string        `json:"editing,omitempty"`
	Fields  []FieldPrompt `json:"fields"`
}

// FieldPrompt describes one input of a step.
type FieldPrompt struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Hint     string   `json:"hint,omitempty"`
	Rule     string   `json:"rule"`
	Required bool     `json:"required"`
	Default  string   `json:"default,omitempty"`
	Choices  []string `json:"choices,omitempty"`
	Value    string   `json:"value,omitempty"`
	Answered bool     `json:"answered"`
}

// FieldValue is one line of the review summary.
type FieldValue struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value string `json:"value"`
	Step  int    `json:"step"`
}

// Response is the outcome of one operation: the resulting session and what to
// render next. Errors lists the field errors of a rejected submission or
// confirmation.
type Response struct {
	Session *domain.Session     `json:"session"`
	Prompt  Prompt              `json:"prompt"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

// Prompt builds the prompt for the current position of s.
func (m *Machine) Prompt(s *domain.Session) Prompt {
	switch s.Position.Phase {
	case domain.PhaseIdle:
		return Prompt{Kind: PromptWelcome, Message: "Welcome! Send start to build your site."}
	case domain.PhaseSelectingTemplate:
		return Prompt{Kind: PromptTemplates, Message: "Choose a template for your site.", Templates: m.registry.List()}
	}

	def, err := m.registry.Get(s.TemplateID)
	if err != nil {
		return Prompt{Kind: PromptWelcome, Message: "This template is no longer available. Send reset to start over."}
	}

	switch s.Position.Phase {
	case domain.PhaseCollecting:
		return Prompt{Kind: PromptStep, Message: stepMessage(def, s), Step: stepPrompt(def, s)}
	case domain.PhaseReviewing:
		return Prompt{Kind: PromptReview, Message: "Review your answers. Confirm, or edit any field.", Review: review(def, s)}
	case domain.PhaseConfirmed:
		return Prompt{
			Kind:    PromptConfirmed,
			Message: "Confirmed. Send generate to build your site.",
			Review:  review(def, s),
			Pending: s.PendingGeneration != "",
		}
	case domain.PhaseGenerated:
		return Prompt{
			Kind:     PromptArtifact,
			Message:  "Your site is ready. Edit any field to regenerate.",
			Review:   review(def, s),
			Artifact: s.Artifact,
			Pending:  s.PendingGeneration != "",
		}
	}
	return Prompt{Kind: PromptWelcome, Message: "Send reset to start over."}
}

func stepMessage(def *templates.Definition, s *domain.Session) string {
	step, _ := def.Step(s.Position.Step)
	if s.Position.Editing != "" {
		spec, _ := def.Field(s.Position.Editing)
		return fmt.Sprintf("Enter a new value for %s.", spec.Label)
	}
	if step.Prompt != "" {
		return step.Prompt
	}
	return fmt.Sprintf("Step %d of %d: %s", s.Position.Step+1, def.StepCount(), step.Title)
}

func stepPrompt(def *templates.Definition, s *domain.Session) *StepPrompt {
	step, ok := def.Step(s.Position.Step)
	if !ok {
		return nil
	}
	p := &StepPrompt{
		Index:   s.Position.Step,
		Total:   def.StepCount(),
		ID:      step.ID,
		Title:   step.Title,
		Prompt:  step.Prompt,
		Editing: s.Position.Editing,
	}
	for _, f := range step.Fields {
		value, answered := s.Fields[f.Name]
		p.Fields = append(p.Fields, FieldPrompt{
			Name:     f.Name,
			Label:    f.Label,
			Hint:     f.Hint,
			Rule:     f.Rule.Name(),
			Required: f.Required,
			Default:  f.Default,
			Choices:  f.Choices(),
			Value:    value,
			Answered: answered,
		})
	}
	return p
}

func review(def *templates.Definition, s *domain.Session) []FieldValue {
	var out []FieldValue
	for i, step := range def.Steps {
		for _, f := range step.Fields {
			value, ok := s.Fields[f.Name]
			if !ok {
				continue
			}
			out = append(out, FieldValue{Name: f.Name, Label: f.Label, Value: value, Step: i})
		}
	}
	return out
}

// Next returns the fields still awaiting an answer in the current step,
// the edited field first.
func (p *StepPrompt) Next() []FieldPrompt {
	if p == nil {
		return nil
	}
	var out []FieldPrompt
	for _, f := range p.Fields {
		if f.Name == p.Editing {
			out = append([]FieldPrompt{f}, out...)
			continue
		}
		if p.Editing == "" && !f.Answered {
			out = append(out, f)
		}
	}
	return out
}
