// Package process runs an external program as the site generator.
//
// The program receives the generation request as JSON on stdin and every
// resolved value as a SITEWIZARD_ARG_<NAME> environment variable. It must print
// an artifact descriptor as JSON on stdout and exit with status 0.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/ports"
)

// EnvPrefix prefixes the per-value environment variables.
const EnvPrefix = "SITEWIZARD_ARG_"

// Generator implements ports.Generator by executing a local process.
type Generator struct {
	cfg Config
}

var _ ports.Generator = (*Generator)(nil)

// NewGenerator creates a generator for cfg.
func NewGenerator(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.WaitDelay == 0 {
		cfg.WaitDelay = 5 * time.Second
	}
	return &Generator{cfg: cfg}, nil
}

// Generate implements ports.Generator.
func (g *Generator) Generate(ctx context.Context, req ports.GenerateRequest) (*domain.Artifact, error) {
	input, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Values travel as environment variables as well as on stdin, so simple
	// shell scripts need no JSON parsing. Arguments are never built from
	// user input.
	cmd := exec.CommandContext(ctx, g.cfg.Command, g.cfg.Args...)
	cmd.Dir = g.cfg.Dir
	cmd.WaitDelay = g.cfg.WaitDelay
	cmd.Env = append(cmd.Environ(), environment(req, g.cfg.Env)...)
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("render command interrupted: %w", ctxErr)
		}
		return nil, fmt.Errorf("render command failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	var a domain.Artifact
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &a); err != nil {
		return nil, fmt.Errorf("invalid artifact from render command: %w", err)
	}
	if a.ID == "" || a.SiteHash == "" {
		return nil, fmt.Errorf("invalid artifact from render command: missing id or site_hash")
	}
	if a.TemplateID == "" {
		a.TemplateID = req.TemplateID
	}
	return &a, nil
}

func environment(req ports.GenerateRequest, extra map[string]string) []string {
	env := []string{
		"SITEWIZARD_ATTEMPT=" + req.Attempt,
		"SITEWIZARD_USER_ID=" + req.UserID,
		"SITEWIZARD_TEMPLATE_ID=" + req.TemplateID,
	}
	names := make([]string, 0, len(req.Values))
	for k := range req.Values {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		env = append(env, EnvPrefix+envName(k)+"="+req.Values[k])
	}
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}

// envName turns a field name such as "primaryColor" into "PRIMARY_COLOR".
func envName(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case unicode.IsUpper(r) && i > 0:
			b.WriteByte('_')
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
