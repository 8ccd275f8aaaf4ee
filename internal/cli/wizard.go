package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	sitewizard "github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/internal/presentation/tui"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/flow"
)

// ErrRetriesExhausted is returned when the user gives up after a failed generation.
var ErrRetriesExhausted = errors.New("generation abandoned")

const (
	actionConfirm = "Confirm"
	actionEdit    = "Edit a field"
	actionReset   = "Start over"
	actionDone    = "Done"
)

// Wizard walks one user through the flow from a terminal.
type Wizard struct {
	Engine   *sitewizard.Engine
	UserID   string
	Prompter Prompter
	Renderer *tui.Renderer
	Out      io.Writer
}

// Run drives the session until the site is generated and the user is done.
// An existing session resumes where it stopped.
func (w *Wizard) Run(ctx context.Context) error {
	resp, err := w.Engine.State(ctx, w.UserID)
	if errors.Is(err, domain.ErrSessionExpired) {
		resp, err = w.Engine.Start(ctx, w.UserID)
	} else if err == nil && resp.Session.Position.Phase != domain.PhaseIdle {
		printSystemMessage(w.Out, "Resuming session '%s'.", w.UserID)
	}
	if err != nil {
		return err
	}

	for {
		var next *sitewizard.Response
		var opErr error

		switch resp.Prompt.Kind {
		case flow.PromptWelcome:
			next, opErr = w.Engine.Start(ctx, w.UserID)
		case flow.PromptTemplates:
			next, opErr = w.chooseTemplate(ctx, resp.Prompt)
		case flow.PromptStep:
			next, opErr = w.askField(ctx, resp.Prompt)
		case flow.PromptReview:
			next, opErr = w.review(ctx, resp.Prompt, actionConfirm)
		case flow.PromptConfirmed:
			next, opErr = w.generate(ctx)
		case flow.PromptArtifact:
			w.show(resp.Prompt)
			next, opErr = w.review(ctx, resp.Prompt, actionDone)
			if next == nil && opErr == nil {
				return nil
			}
		default:
			return fmt.Errorf("unexpected prompt %q", resp.Prompt.Kind)
		}

		if opErr != nil {
			if next == nil || !domain.Recoverable(opErr) {
				return opErr
			}
			w.reportRejection(next, opErr)
		}
		resp = next
	}
}

func (w *Wizard) chooseTemplate(ctx context.Context, p flow.Prompt) (*sitewizard.Response, error) {
	options := make([]string, len(p.Templates))
	for i, t := range p.Templates {
		options[i] = fmt.Sprintf("%s: %s", t.ID, t.Name)
	}
	idx, err := w.Prompter.Select(ctx, p.Message, options)
	if err != nil {
		return nil, err
	}
	return w.Engine.SelectTemplate(ctx, w.UserID, p.Templates[idx].ID)
}

func (w *Wizard) askField(ctx context.Context, p flow.Prompt) (*sitewizard.Response, error) {
	pending := p.Step.Next()
	if len(pending) == 0 {
		return nil, fmt.Errorf("step %q has nothing left to ask", p.Step.ID)
	}
	f := pending[0]

	message := f.Label
	if len(p.Step.Fields) == 1 || f.Name == p.Step.Editing {
		message = p.Message
	}
	help := f.Hint
	if !f.Required {
		if help != "" {
			help += "; "
		}
		help += "type skip to leave it out"
	}
	def := f.Default
	if f.Answered {
		def = f.Value
	}

	value, err := w.Prompter.Ask(ctx, Question{
		Message:  fmt.Sprintf("[%d/%d] %s", p.Step.Index+1, p.Step.Total, message),
		Help:     help,
		Default:  def,
		Choices:  f.Choices,
		Optional: !f.Required,
		Long:     f.Rule == "long_text",
	})
	if err != nil {
		return nil, err
	}
	return w.Engine.SubmitField(ctx, w.UserID, f.Name, value)
}

// review shows the summary and lets the user confirm, edit or restart.
// With primary set to actionDone a nil response means the user is finished.
func (w *Wizard) review(ctx context.Context, p flow.Prompt, primary string) (*sitewizard.Response, error) {
	if primary == actionConfirm {
		w.show(p)
	}
	options := []string{primary, actionEdit, actionReset}
	idx, err := w.Prompter.Select(ctx, p.Message, options)
	if err != nil {
		return nil, err
	}

	switch options[idx] {
	case actionConfirm:
		return w.Engine.Confirm(ctx, w.UserID)
	case actionDone:
		return nil, nil
	case actionReset:
		return w.Engine.Reset(ctx, w.UserID)
	}

	fields := make([]string, len(p.Review))
	for i, f := range p.Review {
		fields[i] = fmt.Sprintf("%s (%s)", f.Label, f.Name)
	}
	pick, err := w.Prompter.Select(ctx, "Which field?", fields)
	if err != nil {
		return nil, err
	}
	return w.Engine.EditField(ctx, w.UserID, p.Review[pick].Name)
}

func (w *Wizard) generate(ctx context.Context) (*sitewizard.Response, error) {
	printSystemMessage(w.Out, "Generating your site...")
	resp, err := w.Engine.Generate(ctx, w.UserID)
	if err == nil || !errors.Is(err, domain.ErrGeneration) || errors.Is(err, domain.ErrGenerationSuperseded) {
		return resp, err
	}

	fmt.Fprintf(w.Out, "Generation failed: %v\n", err)
	retry, askErr := w.Prompter.Confirm(ctx, "Try again?", true)
	if askErr != nil {
		return nil, askErr
	}
	if !retry {
		return nil, fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
	}
	return resp, nil
}

func (w *Wizard) show(p flow.Prompt) {
	if w.Renderer == nil {
		fmt.Fprint(w.Out, tui.ReviewMarkdown(p))
		return
	}
	out, err := w.Renderer.Review(p)
	if err != nil {
		fmt.Fprint(w.Out, tui.ReviewMarkdown(p))
		return
	}
	fmt.Fprint(w.Out, out)
}

func (w *Wizard) reportRejection(resp *sitewizard.Response, err error) {
	if len(resp.Errors) == 0 {
		fmt.Fprintf(w.Out, "! %v\n", err)
		return
	}
	for _, fe := range resp.Errors {
		fmt.Fprintf(w.Out, "! %s %s\n", fe.Field, fe.Reason)
	}
}
