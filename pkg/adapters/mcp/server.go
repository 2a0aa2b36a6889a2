package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/vibecam"
	"github.com/aretw0/vibecam/internal/logging"
	"github.com/aretw0/vibecam/pkg/camera"
	"github.com/aretw0/vibecam/pkg/darkroom"
	"github.com/aretw0/vibecam/pkg/domain"
	"github.com/aretw0/vibecam/pkg/runner"
	"github.com/aretw0/vibecam/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// CamerasURI is the resource listing the camera presets.
const CamerasURI = "vibecam://cameras"

// InitResult is returned by init_schema.
type InitResult struct {
	Schema *domain.Object `json:"schema"`
}

// ChatArgs are the arguments of the chat tool.
// Documents travel as JSON text so their key order survives.
type ChatArgs struct {
	Message           string `json:"message"`
	SchemaData        string `json:"schema_data,omitempty"`
	HasCharacterImage bool   `json:"has_character_image,omitempty"`
	SessionID         string `json:"session_id,omitempty"`
}

// GenerateArgs are the arguments of the generate_photo tool.
type GenerateArgs struct {
	SchemaData     string `json:"schema_data,omitempty"`
	SessionID      string `json:"session_id,omitempty"`
	CharacterImage string `json:"character_image,omitempty"`
	Camera         string `json:"camera,omitempty"`
	Aperture       string `json:"aperture,omitempty"`
	Shutter        string `json:"shutter,omitempty"`
	ISO            string `json:"iso,omitempty"`
}

// Server wraps the engine and exposes it as an MCP Server.
type Server struct {
	engine    *vibecam.Engine
	sessions  *session.Manager
	sanitizer *runner.Sanitizer
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithSessions lets tools read and write documents by session_id.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) {
		s.sessions = m
	}
}

// WithSanitizer sets the sanitizer applied to chat messages.
func WithSanitizer(san *runner.Sanitizer) Option {
	return func(s *Server) {
		s.sanitizer = san
	}
}

// WithLogger sets the logger. Logs must not go to stdout under stdio transport.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine *vibecam.Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		mcpServer: server.NewMCPServer("vibecam-mcp", strings.TrimSpace(vibecam.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
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
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down server")
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Baggage, Sentry-Trace")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: init_schema
	s.mcpServer.AddTool(mcp.NewTool("init_schema",
		mcp.WithDescription("Return a fresh, empty photo document to start a conversation from."),
	), mcp.NewStructuredToolHandler(s.handleInit))

	// TOOL: chat
	s.mcpServer.AddTool(mcp.NewTool("chat",
		mcp.WithDescription("Send one user message. Returns the updated document, the assistant's reply and whether the document is ready to generate."),
		mcp.WithString("message", mcp.Required(), mcp.Description("What the user said")),
		mcp.WithString("schema_data", mcp.Description("Current document as a JSON object (optional; a fresh one is used when omitted)")),
		mcp.WithBoolean("has_character_image", mcp.Description("Whether the user supplied a reference character image")),
		mcp.WithString("session_id", mcp.Description("Stored session to continue (optional)")),
	), mcp.NewStructuredToolHandler(s.handleChat))

	// TOOL: generate_photo
	s.mcpServer.AddTool(mcp.NewTool("generate_photo",
		mcp.WithDescription("Generate the photo for a document and develop it with a film date stamp. Returns the image as a JPEG."),
		mcp.WithString("schema_data", mcp.Description("Document as a JSON object")),
		mcp.WithString("session_id", mcp.Description("Stored session whose document to use when schema_data is omitted")),
		mcp.WithString("character_image", mcp.Description("Reference image as a data URI or URL")),
		mcp.WithString("camera", mcp.Description("Camera preset name, see list_cameras")),
		mcp.WithString("aperture", mcp.Description("e.g. f/1.8")),
		mcp.WithString("shutter", mcp.Description("e.g. 1/250")),
		mcp.WithString("iso", mcp.Description("e.g. 800")),
	), mcp.NewTypedToolHandler(s.handleGenerate))

	// TOOL: list_cameras
	s.mcpServer.AddTool(mcp.NewTool("list_cameras",
		mcp.WithDescription("List the camera and film presets."),
		mcp.WithOutputSchema[camera.Catalog](),
	), mcp.NewStructuredToolHandler(s.handleListCameras))
}

// Handler methods for structured tools

func (s *Server) handleInit(ctx context.Context, request mcp.CallToolRequest, args struct{}) (InitResult, error) {
	return InitResult{Schema: s.engine.Init()}, nil
}

func (s *Server) handleChat(ctx context.Context, request mcp.CallToolRequest, args ChatArgs) (*vibecam.ChatResponse, error) {
	clean, err := s.sanitizer.Clean(args.Message)
	if err != nil {
		s.logger.Warn("MCP Chat: Input rejected", "err", err, "size", len(args.Message))
		return nil, fmt.Errorf("input rejected: %w", err)
	}

	doc, err := decodeSchema(args.SchemaData)
	if err != nil {
		return nil, err
	}
	req := vibecam.ChatRequest{Message: clean, Schema: doc, HasCharacterImage: args.HasCharacterImage}

	if s.sessions == nil || args.SessionID == "" {
		return s.engine.Chat(ctx, req)
	}

	var resp *vibecam.ChatResponse
	_, _, err = s.sessions.Update(ctx, args.SessionID, func(sess *domain.Session) error {
		if req.Schema == nil {
			req.Schema = sess.Document
		}
		var err error
		resp, err = s.engine.Chat(ctx, req)
		if err != nil {
			return err
		}
		sess.Document = resp.Schema
		sess.Status = resp.Status
		return nil
	})
	return resp, err
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest, args GenerateArgs) (*mcp.CallToolResult, error) {
	doc, err := decodeSchema(args.SchemaData)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if doc == nil && s.sessions != nil && args.SessionID != "" {
		sess, err := s.sessions.Load(ctx, args.SessionID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		doc = sess.Document
	}

	settings := map[string]any{}
	for key, val := range map[string]string{"model": args.Camera, "aperture": args.Aperture, "shutter": args.Shutter, "iso": args.ISO} {
		if val != "" {
			settings[key] = val
		}
	}

	photo, err := s.engine.Generate(ctx, vibecam.GenerateRequest{
		Schema:         doc,
		CharacterImage: args.CharacterImage,
		CameraSettings: settings,
	})
	if err != nil {
		s.logger.Error("MCP Generate failed", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("generation failed: %v", err)), nil
	}

	summary := fmt.Sprintf("Shot on %s (%s).\nPrompt: %s", photo.Camera, photo.AspectRatio, photo.PromptUsed)
	result := mcp.NewToolResultStructured(photo, summary)
	if payload, ok := strings.CutPrefix(photo.ImageURL, darkroom.DataURIPrefix); ok {
		result.Content = append(result.Content, mcp.NewImageContent(payload, "image/jpeg"))
	} else {
		result.Content = append(result.Content, mcp.NewTextContent("Image: "+photo.ImageURL))
	}
	return result, nil
}

func (s *Server) handleListCameras(ctx context.Context, request mcp.CallToolRequest, args struct{}) (*camera.Catalog, error) {
	return s.engine.Catalog(), nil
}

func (s *Server) registerResources() {
	// EXPOSE: vibecam://cameras
	s.mcpServer.AddResource(mcp.NewResource(CamerasURI, "Camera Presets",
		mcp.WithResourceDescription("Camera and film presets with prompt suffixes and aspect ratios"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Catalog())
		if err != nil {
			return nil, fmt.Errorf("failed to encode cameras: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      CamerasURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

// decodeSchema parses an optional JSON document, keeping key order.
func decodeSchema(raw string) (*domain.Object, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	doc, err := domain.DecodeObject([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid schema_data: %w", err)
	}
	return doc, nil
}
