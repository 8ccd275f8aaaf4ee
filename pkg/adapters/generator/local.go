package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/ports"
	"github.com/google/uuid"
)

// Hosting methods.
const (
	HostingLocal   = "local"
	HostingGitHub  = "github"
	HostingNetlify = "netlify"
	HostingVercel  = "vercel"
)

// Hostings lists the supported hosting methods.
func Hostings() []string {
	return []string{HostingLocal, HostingGitHub, HostingNetlify, HostingVercel}
}

// LocalConfig configures the Local generator.
type LocalConfig struct {
	// BaseURL prefixes local site URLs (default http://localhost:8080).
	BaseURL string
	// Hosting selects how artifact URLs are shaped.
	Hosting string
	// Owner is the account that owns GitHub repositories.
	Owner string
	// OutputDir, when set, receives a JSON manifest per site.
	OutputDir string
}

// Local produces deterministic artifact descriptors without contacting any
// provider. The site hash depends only on the template and the values, so
// regenerating unchanged input yields the same URLs.
type Local struct {
	cfg LocalConfig
	now func() time.Time
}

var _ ports.Generator = (*Local)(nil)

// NewLocal validates cfg and creates a Local generator.
func NewLocal(cfg LocalConfig) (*Local, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Hosting == "" {
		cfg.Hosting = HostingLocal
	}
	switch cfg.Hosting {
	case HostingLocal, HostingNetlify, HostingVercel:
	case HostingGitHub:
		if cfg.Owner == "" {
			return nil, fmt.Errorf("github hosting requires an owner")
		}
	default:
		return nil, fmt.Errorf("unknown hosting method %q", cfg.Hosting)
	}
	return &Local{cfg: cfg, now: time.Now}, nil
}

// Generate implements ports.Generator.
func (l *Local) Generate(ctx context.Context, req ports.GenerateRequest) (*domain.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := SiteHash(req.TemplateID, req.Values)
	a := &domain.Artifact{
		ID:         uuid.NewString(),
		TemplateID: req.TemplateID,
		SiteHash:   hash,
		Hosting:    l.cfg.Hosting,
		CreatedAt:  l.now().UTC(),
	}

	slug := Slug(firstNonEmpty(req.Values["displayName"], req.Values["coinName"], req.Values["collectionName"], req.Values["platformName"], req.TemplateID))
	switch l.cfg.Hosting {
	case HostingLocal:
		a.RawURL = fmt.Sprintf("%s/sites/%s.html", l.cfg.BaseURL, hash)
		a.PreviewURL = a.RawURL
	case HostingGitHub:
		repo := fmt.Sprintf("%s-site-%s", slug, hash)
		a.RepoURL = fmt.Sprintf("https://github.com/%s/%s", l.cfg.Owner, repo)
		a.RawURL = fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/main/index.html", l.cfg.Owner, repo)
		a.PreviewURL = fmt.Sprintf("https://%s.github.io/%s/", strings.ToLower(l.cfg.Owner), repo)
	case HostingNetlify:
		a.PreviewURL = fmt.Sprintf("https://%s-%s.netlify.app/", slug, hash)
		a.RawURL = a.PreviewURL + "index.html"
	case HostingVercel:
		a.PreviewURL = fmt.Sprintf("https://%s-%s.vercel.app/", slug, hash)
		a.RawURL = a.PreviewURL + "index.html"
	}

	if l.cfg.OutputDir != "" {
		if err := l.writeManifest(hash, req, a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

type manifest struct {
	Artifact *domain.Artifact       `json:"artifact"`
	Request  ports.GenerateRequest `json:"request"`
}

func (l *Local) writeManifest(hash string, req ports.GenerateRequest, a *domain.Artifact) error {
	if err := os.MkdirAll(l.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	data, err := json.MarshalIndent(manifest{Artifact: a, Request: req}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	path := filepath.Join(l.cfg.OutputDir, hash+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// SiteHash is a short, stable digest of a template and its values.
func SiteHash(templateID string, values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	h.Write([]byte(templateID))
	for _, k := range keys {
		h.Write([]byte{0})
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(values[k]))
	}
	return hex.EncodeToString(h.Sum(nil))[:10]
}

// Slug lowercases s and keeps ASCII letters and digits, joined by single hyphens.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if len(out) > 40 {
		out = strings.TrimRight(out[:40], "-")
	}
	if out == "" {
		return "site"
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
