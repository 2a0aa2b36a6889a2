// Package openai adapts the OpenAI API to the completion and image ports.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/vibecam/internal/logging"
	"github.com/aretw0/vibecam/pkg/ports"
	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultChatModel  = "gpt-4o-mini"
	DefaultImageModel = "dall-e-3"
)

// ErrNoImage is returned when the API answered without image data.
var ErrNoImage = errors.New("openai returned no image")

// Client implements ports.Completer and ports.ImageGenerator.
type Client struct {
	client     sdk.Client
	chatModel  string
	imageModel string
	logger     *slog.Logger
}

var (
	_ ports.Completer      = (*Client)(nil)
	_ ports.ImageGenerator = (*Client)(nil)
)

type Option func(*Client)

func WithChatModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.chatModel = model
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

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Config holds connection settings.
type Config struct {
	APIKey  string
	BaseURL string
}

// New creates an OpenAI client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: missing API key")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}

	c := &Client{
		client:     sdk.NewClient(reqOpts...),
		chatModel:  DefaultChatModel,
		imageModel: DefaultImageModel,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Complete sends the system instruction and prompt as a two-message chat.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	var messages []sdk.ChatCompletionMessageParamUnion
	if req.SystemInstruction != "" {
		messages = append(messages, sdk.SystemMessage(req.SystemInstruction))
	}
	messages = append(messages, sdk.UserMessage(req.Prompt))

	resp, err := c.client.Chat.Completions.New(ctx, sdk.ChatCompletionNewParams{
		Model:       c.chatModel,
		Messages:    messages,
		Temperature: sdk.Float(req.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Generate renders the prompt and returns the hosted image URL, or a data URI
// when the API answers with base64 content.
//
// Character images are not supported by the generations endpoint and are ignored.
func (c *Client) Generate(ctx context.Context, req ports.ImageRequest) (string, error) {
	if req.Reference != "" {
		c.logger.Warn("Character image ignored by the OpenAI image adapter")
	}

	resp, err := c.client.Images.Generate(ctx, sdk.ImageGenerateParams{
		Prompt:         req.Prompt,
		Model:          sdk.ImageModel(c.imageModel),
		N:              sdk.Int(1),
		Size:           sizeFor(req.AspectRatio),
		ResponseFormat: sdk.ImageGenerateParamsResponseFormat("url"),
	})
	if err != nil {
		return "", fmt.Errorf("openai image: %w", err)
	}
	for _, img := range resp.Data {
		if img.URL != "" {
			return img.URL, nil
		}
		if img.B64JSON != "" {
			return "data:image/png;base64," + img.B64JSON, nil
		}
	}
	return "", ErrNoImage
}

// sizeFor maps a preset aspect ratio onto the closest size the API accepts.
func sizeFor(aspect string) sdk.ImageGenerateParamsSize {
	switch aspect {
	case "16:9", "3:2", "4:3":
		return sdk.ImageGenerateParamsSize("1792x1024")
	case "9:16", "2:3", "3:4":
		return sdk.ImageGenerateParamsSize("1024x1792")
	default:
		return sdk.ImageGenerateParamsSize("1024x1024")
	}
}
