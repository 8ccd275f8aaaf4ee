package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/ports"
)

// HTTP delegates generation to a render server: it POSTs the request as JSON
// to {url}/generate and expects an artifact descriptor back.
type HTTP struct {
	url    string
	client *http.Client
}

var _ ports.Generator = (*HTTP)(nil)

// HTTPOption configures the HTTP generator.
type HTTPOption func(*HTTP)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) { h.client = c }
}

// WithTimeout sets the client timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) { h.client.Timeout = d }
}

// NewHTTP creates a generator for the render server at baseURL.
func NewHTTP(baseURL string, opts ...HTTPOption) (*HTTP, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("render server url is required")
	}
	h := &HTTP{
		url:    strings.TrimRight(baseURL, "/") + "/generate",
		client: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// remoteError is the error body returned by the render server.
type remoteError struct {
	Error string `json:"error"`
}

// Generate implements ports.Generator.
func (h *HTTP) Generate(ctx context.Context, req ports.GenerateRequest) (*domain.Artifact, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.Attempt)

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("render server unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read render server response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var re remoteError
		if json.Unmarshal(data, &re) == nil && re.Error != "" {
			return nil, fmt.Errorf("render server returned %d: %s", resp.StatusCode, re.Error)
		}
		return nil, fmt.Errorf("render server returned %d", resp.StatusCode)
	}

	var a domain.Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("invalid artifact from render server: %w", err)
	}
	if a.ID == "" || a.SiteHash == "" {
		return nil, fmt.Errorf("invalid artifact from render server: missing id or site_hash")
	}
	if a.TemplateID == "" {
		a.TemplateID = req.TemplateID
	}
	return &a, nil
}
