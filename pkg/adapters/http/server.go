package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	sitewizard "github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/templates"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Engine is the part of sitewizard.Engine the HTTP API needs.
type Engine interface {
	Start(ctx context.Context, userID string) (*sitewizard.Response, error)
	SelectTemplate(ctx context.Context, userID, templateID string) (*sitewizard.Response, error)
	SubmitField(ctx context.Context, userID, field, value string) (*sitewizard.Response, error)
	EditField(ctx context.Context, userID, field string) (*sitewizard.Response, error)
	Confirm(ctx context.Context, userID string) (*sitewizard.Response, error)
	Generate(ctx context.Context, userID string) (*sitewizard.Response, error)
	Reset(ctx context.Context, userID string) (*sitewizard.Response, error)
	State(ctx context.Context, userID string) (*sitewizard.Response, error)
	Registry() *templates.Registry
}

var _ Engine = (*sitewizard.Engine)(nil)

// Deleter removes a session outright.
type Deleter interface {
	Delete(ctx context.Context, userID string) error
}

// Server serves the wizard operations as JSON.
type Server struct {
	Engine   Engine
	Sessions Deleter
	Streams  *StreamManager
	Logger   *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.Logger = logger }
}

// WithDeleter enables DELETE /sessions/{user}.
func WithDeleter(d Deleter) Option {
	return func(s *Server) { s.Sessions = d }
}

// NewHandler creates the HTTP handler for the engine. Requests are validated
// against the embedded OpenAPI document before they reach a handler.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	s := &Server{Engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	if s.Logger == nil {
		s.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s.Streams = NewStreamManager(s.Logger)

	specRouter, err := newSpecRouter()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})

	r.Group(func(r chi.Router) {
		r.Use(validateRequests(specRouter, s.badRequest))

		r.Get("/templates", s.ListTemplates)
		r.Get("/templates/{id}", s.GetTemplate)
		r.Get("/themes", s.ListThemes)

		r.Route("/sessions/{user}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/start", s.op(func(ctx context.Context, user string, _ request) (*sitewizard.Response, error) {
				return s.Engine.Start(ctx, user)
			}))
			r.Post("/template", s.op(func(ctx context.Context, user string, req request) (*sitewizard.Response, error) {
				return s.Engine.SelectTemplate(ctx, user, req.TemplateID)
			}))
			r.Post("/fields", s.op(func(ctx context.Context, user string, req request) (*sitewizard.Response, error) {
				return s.Engine.SubmitField(ctx, user, req.Field, req.Value)
			}))
			r.Post("/edit", s.op(func(ctx context.Context, user string, req request) (*sitewizard.Response, error) {
				return s.Engine.EditField(ctx, user, req.Field)
			}))
			r.Post("/confirm", s.op(func(ctx context.Context, user string, _ request) (*sitewizard.Response, error) {
				return s.Engine.Confirm(ctx, user)
			}))
			r.Post("/generate", s.op(func(ctx context.Context, user string, _ request) (*sitewizard.Response, error) {
				return s.Engine.Generate(ctx, user)
			}))
			r.Post("/reset", s.op(func(ctx context.Context, user string, _ request) (*sitewizard.Response, error) {
				return s.Engine.Reset(ctx, user)
			}))
		})
	})

	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// request is the union of the operation bodies.
type request struct {
	TemplateID string `json:"template_id"`
	Field      string `json:"field"`
	Value      string `json:"value"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	*sitewizard.Response
}

type operation func(ctx context.Context, user string, req request) (*sitewizard.Response, error)

func (s *Server) op(fn operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := chi.URLParam(r, "user")

		var req request
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
				s.badRequest(w, r, fmt.Errorf("invalid request body: %w", err))
				return
			}
		}

		resp, err := fn(r.Context(), user, req)
		if resp != nil {
			s.Streams.Publish(resp.Session)
		}
		if err != nil {
			s.fail(w, r, resp, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, resp *sitewizard.Response, err error) {
	status, code := statusFor(err)
	log := s.Logger.With("path", r.URL.Path, "status", status, "request_id", middleware.GetReqID(r.Context()))
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "err", err)
	} else {
		log.Info("request rejected", "err", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Code: code, Response: resp})
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	s.Logger.Info("bad request", "path", r.URL.Path, "err", err)
	writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: CodeBadRequest})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := GetSpec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "sitewizard-http",
		"version":     strings.TrimSpace(sitewizard.Version),
		"api_version": apiVersion,
	})
}

// ListTemplates handles GET /templates.
func (s *Server) ListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Registry().List())
}

// ListThemes handles GET /themes.
func (s *Server) ListThemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Registry().Themes())
}

type fieldView struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Hint     string   `json:"hint,omitempty"`
	Rule     string   `json:"rule"`
	Required bool     `json:"required"`
	Default  string   `json:"default,omitempty"`
	Choices  []string `json:"choices,omitempty"`
}

type stepView struct {
	ID     string      `json:"id"`
	Title  string      `json:"title,omitempty"`
	Prompt string      `json:"prompt,omitempty"`
	Fields []fieldView `json:"fields"`
}

type templateView struct {
	templates.Summary
	DefaultSections []string          `json:"default_sections,omitempty"`
	DefaultColors   map[string]string `json:"default_colors,omitempty"`
	StepList        []stepView        `json:"step_list"`
}

// GetTemplate handles GET /templates/{id}.
func (s *Server) GetTemplate(w http.ResponseWriter, r *http.Request) {
	def, err := s.Engine.Registry().Get(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, nil, err)
		return
	}

	view := templateView{
		Summary:         def.Summary(),
		DefaultSections: def.DefaultSections,
		DefaultColors:   def.DefaultColors,
	}
	for _, step := range def.Steps {
		sv := stepView{ID: step.ID, Title: step.Title, Prompt: step.Prompt}
		for _, f := range step.Fields {
			sv.Fields = append(sv.Fields, fieldView{
				Name:     f.Name,
				Label:    f.Label,
				Hint:     f.Hint,
				Rule:     f.Rule.Name(),
				Required: f.Required,
				Default:  f.Default,
				Choices:  f.Choices(),
			})
		}
		view.StepList = append(view.StepList, sv)
	}
	writeJSON(w, http.StatusOK, view)
}

// GetSession handles GET /sessions/{user}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	resp, err := s.Engine.State(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		s.fail(w, r, resp, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteSession handles DELETE /sessions/{user}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if s.Sessions == nil {
		http.Error(w, "session deletion is disabled", http.StatusMethodNotAllowed)
		return
	}
	user := chi.URLParam(r, "user")
	if err := s.Sessions.Delete(r.Context(), user); err != nil {
		s.fail(w, r, nil, err)
		return
	}
	s.Streams.Forget(user)
	w.WriteHeader(http.StatusNoContent)
}

// SubscribeEvents handles GET /sessions/{user}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	user := chi.URLParam(r, "user")
	var watch []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		watch = strings.Split(raw, ",")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(user)
	defer cancel()
	s.Logger.Debug("SSE: subscribed", "user_id", user)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !matchesWatch(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
