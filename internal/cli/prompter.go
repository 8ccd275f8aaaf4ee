package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/validation"
)

// Question describes one free-form answer.
type Question struct {
	Message string
	Help    string
	Default string
	Choices []string
	// Optional questions accept the skip keyword.
	Optional bool
	Long     bool
}

// Prompter asks the user for input. Implementations exist for interactive
// terminals and for plain line-oriented streams.
type Prompter interface {
	Ask(ctx context.Context, q Question) (string, error)
	Select(ctx context.Context, message string, options []string) (int, error)
	Confirm(ctx context.Context, message string, def bool) (bool, error)
}

// SurveyPrompter drives an interactive terminal.
type SurveyPrompter struct{}

func (SurveyPrompter) Ask(ctx context.Context, q Question) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	var prompt survey.Prompt
	switch {
	case len(q.Choices) > 0:
		options := append([]string(nil), q.Choices...)
		if q.Optional {
			options = append(options, validation.SkipKeyword)
		}
		sel := &survey.Select{Message: q.Message, Options: options, Help: q.Help}
		if q.Default != "" {
			sel.Default = q.Default
		}
		prompt = sel
	case q.Long:
		prompt = &survey.Multiline{Message: q.Message, Default: q.Default, Help: q.Help}
	default:
		prompt = &survey.Input{Message: q.Message, Default: q.Default, Help: q.Help}
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", err
	}
	return out, nil
}

func (SurveyPrompter) Select(ctx context.Context, message string, options []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var idx int
	if err := survey.AskOne(&survey.Select{Message: message, Options: options}, &idx); err != nil {
		return 0, err
	}
	return idx, nil
}

func (SurveyPrompter) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	out := def
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &out); err != nil {
		return false, err
	}
	return out, nil
}

// LinePrompter reads one answer per line. It is used when stdin is not a
// terminal and by tests.
type LinePrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewLinePrompter creates a prompter over r and w.
func NewLinePrompter(r io.Reader, w io.Writer) *LinePrompter {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &LinePrompter{in: sc, out: w}
}

func (p *LinePrompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(p.out, "> ")
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func (p *LinePrompter) Ask(ctx context.Context, q Question) (string, error) {
	fmt.Fprintln(p.out, q.Message)
	if q.Help != "" {
		fmt.Fprintf(p.out, "  (%s)\n", q.Help)
	}
	if len(q.Choices) > 0 {
		fmt.Fprintf(p.out, "  options: %s\n", strings.Join(q.Choices, ", "))
	}
	if q.Default != "" {
		fmt.Fprintf(p.out, "  default: %s\n", q.Default)
	}
	return p.readLine(ctx)
}

// Select accepts either the 1-based number or the text of an option.
func (p *LinePrompter) Select(ctx context.Context, message string, options []string) (int, error) {
	fmt.Fprintln(p.out, message)
	for i, o := range options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, o)
	}
	for {
		line, err := p.readLine(ctx)
		if err != nil {
			return 0, err
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		for i, o := range options {
			if strings.EqualFold(line, o) {
				return i, nil
			}
		}
		fmt.Fprintf(p.out, "Please pick 1-%d.\n", len(options))
	}
}

func (p *LinePrompter) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(p.out, "%s [%s]\n", message, hint)
	line, err := p.readLine(ctx)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
