// Package gemini adapts Google's Gemini API to the completion and image ports.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/vibecam/internal/logging"
	"github.com/aretw0/vibecam/pkg/asset"
	"github.com/aretw0/vibecam/pkg/ports"
	"google.golang.org/genai"
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "gemini-2.5-flash-image"
)

// ErrNoImage is returned when the model answered without an inline image.
var ErrNoImage = errors.New("gemini returned no image")

// Client implements ports.Completer and ports.ImageGenerator.
type Client struct {
	client     *genai.Client
	textModel  string
	imageModel string
	references *asset.Fetcher
	logger     *slog.Logger
}

var (
	_ ports.Completer      = (*Client)(nil)
	_ ports.ImageGenerator = (*Client)(nil)
)

type Option func(*Client)

func WithTextModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.textModel = model
		}
	}
}

func WithImageModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.imageModel = model
		}
	}
}

// WithReferenceFetcher sets the fetcher used to download URL character images.
func WithReferenceFetcher(f *asset.Fetcher) Option {
	return func(c *Client) {
		if f != nil {
			c.references = f
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Config holds connection settings. BaseURL is only needed for proxies and tests.
type Config struct {
	APIKey  string
	BaseURL string
}

// New creates a Gemini client.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: missing API key")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	gc, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}

	c := &Client{
		client:     gc,
		textModel:  DefaultTextModel,
		imageModel: DefaultImageModel,
		references: asset.NewFetcher(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Complete runs a single-turn text generation.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("genai generate: %w", err)
	}
	return resp.Text(), nil
}

// Generate asks the image model for a picture and returns it as a data URI.
func (c *Client) Generate(ctx context.Context, req ports.ImageRequest) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if req.Reference != "" {
		ref, err := c.referencePart(ctx, req.Reference)
		if err != nil {
			return "", err
		}
		parts = append(parts, ref)
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage), string(genai.ModalityText)},
	}
	if req.AspectRatio != "" {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: req.AspectRatio}
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.imageModel, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("genai image: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = http.DetectContentType(part.InlineData.Data)
				}
				return asset.EncodeDataURI(mime, part.InlineData.Data), nil
			}
		}
	}
	if text := strings.TrimSpace(resp.Text()); text != "" {
		return "", fmt.Errorf("%w: %s", ErrNoImage, text)
	}
	return "", ErrNoImage
}

// referencePart turns a data URI or URL into inline bytes for the model.
func (c *Client) referencePart(ctx context.Context, ref string) (*genai.Part, error) {
	data, err := c.references.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("character image: %w", err)
	}
	c.logger.Debug("Using character image in generation", "bytes", len(data))
	return genai.NewPartFromBytes(data, http.DetectContentType(data)), nil
}
