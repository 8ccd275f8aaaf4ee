package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sitewizard "github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/flow"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/templates"
	"github.com/aretw0/lifecycle"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolResponse is the structured result of every wizard tool. Rejections are
// reported in Error and Code while the session stays readable.
type ToolResponse struct {
	Session *domain.Session     `json:"session,omitempty" jsonschema_description:"The user's session after the call"`
	Prompt  *flow.Prompt        `json:"prompt,omitempty" jsonschema_description:"What the wizard expects next"`
	Errors  []domain.FieldError `json:"errors,omitempty" jsonschema_description:"Field level validation failures"`
	Error   string              `json:"error,omitempty" jsonschema_description:"Why the call was rejected"`
	Code    string              `json:"code,omitempty" jsonschema_description:"Machine readable rejection code"`
}

// Engine defines the operations the MCP server exposes.
type Engine interface {
	Templates() []templates.Summary
	State(ctx context.Context, userID string) (*sitewizard.Response, error)
	Start(ctx context.Context, userID string) (*sitewizard.Response, error)
	SelectTemplate(ctx context.Context, userID, templateID string) (*sitewizard.Response, error)
	SubmitField(ctx context.Context, userID, field, value string) (*sitewizard.Response, error)
	EditField(ctx context.Context, userID, field string) (*sitewizard.Response, error)
	Confirm(ctx context.Context, userID string) (*sitewizard.Response, error)
	Generate(ctx context.Context, userID string) (*sitewizard.Response, error)
	Reset(ctx context.Context, userID string) (*sitewizard.Response, error)
}

var _ Engine = (*sitewizard.Engine)(nil)

// Server wraps the Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("sitewizard-mcp", sitewizard.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
		return nil
	})

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type userArgs struct {
	UserID string `json:"user_id"`
}

type templateArgs struct {
	UserID     string `json:"user_id"`
	TemplateID string `json:"template_id"`
}

type fieldArgs struct {
	UserID string `json:"user_id"`
	Field  string `json:"field"`
	Value  string `json:"value"`
}

func userParam() mcp.ToolOption {
	return mcp.WithString("user_id", mcp.Required(), mcp.Description("Opaque ID of the user whose session is addressed"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the site templates a session can choose from."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.Marshal(s.engine.Templates())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode templates: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Read the current session of a user and the prompt it is waiting on."),
		userParam(),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleUser(s.engine.State)))

	s.mcpServer.AddTool(mcp.NewTool("start",
		mcp.WithDescription("Begin the wizard. Creates the session when missing."),
		userParam(),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleUser(s.engine.Start)))

	s.mcpServer.AddTool(mcp.NewTool("select_template",
		mcp.WithDescription("Choose the template to fill in."),
		userParam(),
		mcp.WithString("template_id", mcp.Required(), mcp.Description("Template ID from list_templates")),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleSelectTemplate))

	s.mcpServer.AddTool(mcp.NewTool("submit_field",
		mcp.WithDescription("Answer the field the wizard is asking for. An empty value skips optional fields."),
		userParam(),
		mcp.WithString("field", mcp.Required(), mcp.Description("Field ID being answered")),
		mcp.WithString("value", mcp.Description("Raw answer")),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleSubmitField))

	s.mcpServer.AddTool(mcp.NewTool("edit_field",
		mcp.WithDescription("Reopen a collected field from the review."),
		userParam(),
		mcp.WithString("field", mcp.Required(), mcp.Description("Field ID to reopen")),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleEditField))

	s.mcpServer.AddTool(mcp.NewTool("confirm",
		mcp.WithDescription("Accept the reviewed values."),
		userParam(),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleUser(s.engine.Confirm)))

	s.mcpServer.AddTool(mcp.NewTool("generate",
		mcp.WithDescription("Render the confirmed site and return its artifact."),
		userParam(),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleUser(s.engine.Generate)))

	s.mcpServer.AddTool(mcp.NewTool("reset",
		mcp.WithDescription("Drop collected values and return to the template choice."),
		userParam(),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleUser(s.engine.Reset)))
}

type userOperation func(ctx context.Context, userID string) (*sitewizard.Response, error)

func (s *Server) handleUser(fn userOperation) func(context.Context, mcp.CallToolRequest, userArgs) (ToolResponse, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args userArgs) (ToolResponse, error) {
		if args.UserID == "" {
			return ToolResponse{}, errors.New("user_id is required")
		}
		resp, err := fn(ctx, args.UserID)
		return s.result(request.Params.Name, args.UserID, resp, err)
	}
}

func (s *Server) handleSelectTemplate(ctx context.Context, request mcp.CallToolRequest, args templateArgs) (ToolResponse, error) {
	if args.UserID == "" || args.TemplateID == "" {
		return ToolResponse{}, errors.New("user_id and template_id are required")
	}
	resp, err := s.engine.SelectTemplate(ctx, args.UserID, args.TemplateID)
	return s.result("select_template", args.UserID, resp, err)
}

func (s *Server) handleSubmitField(ctx context.Context, request mcp.CallToolRequest, args fieldArgs) (ToolResponse, error) {
	if args.UserID == "" || args.Field == "" {
		return ToolResponse{}, errors.New("user_id and field are required")
	}
	resp, err := s.engine.SubmitField(ctx, args.UserID, args.Field, args.Value)
	return s.result("submit_field", args.UserID, resp, err)
}

func (s *Server) handleEditField(ctx context.Context, request mcp.CallToolRequest, args fieldArgs) (ToolResponse, error) {
	if args.UserID == "" || args.Field == "" {
		return ToolResponse{}, errors.New("user_id and field are required")
	}
	resp, err := s.engine.EditField(ctx, args.UserID, args.Field)
	return s.result("edit_field", args.UserID, resp, err)
}

// result folds engine rejections into the structured payload. Only failures
// that leave nothing to show the caller become tool errors.
func (s *Server) result(tool, userID string, resp *sitewizard.Response, err error) (ToolResponse, error) {
	out := ToolResponse{}
	if resp != nil {
		prompt := resp.Prompt
		out.Session = resp.Session
		out.Prompt = &prompt
		out.Errors = resp.Errors
	}
	if err != nil {
		out.Error = err.Error()
		out.Code = codeFor(err)
		s.logger.Info("MCP tool rejected", "tool", tool, "user", userID, "code", out.Code, "err", err)
		if resp == nil && out.Code == codeInternal {
			return ToolResponse{}, err
		}
	}
	return out, nil
}

const (
	codeSessionExpired       = "session_expired"
	codeNotFound             = "not_found"
	codeValidation           = "validation_failed"
	codeInvalidTransition    = "invalid_transition"
	codeGenerationSuperseded = "generation_superseded"
	codeGenerationFailed     = "generation_failed"
	codeInternal             = "internal"
)

func codeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrSessionExpired):
		return codeSessionExpired
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrTemplateNotFound):
		return codeNotFound
	case domain.IsValidation(err):
		return codeValidation
	case errors.Is(err, domain.ErrGenerationSuperseded):
		return codeGenerationSuperseded
	case errors.Is(err, domain.ErrInvalidTransition):
		return codeInvalidTransition
	case errors.Is(err, domain.ErrGeneration):
		return codeGenerationFailed
	}
	return codeInternal
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("sitewizard://templates", "Template Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.engine.Templates())
		if err != nil {
			return nil, fmt.Errorf("failed to encode templates: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "sitewizard://templates",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
