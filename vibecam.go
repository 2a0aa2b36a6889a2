package vibecam

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/vibecam/internal/logging"
	"github.com/aretw0/vibecam/internal/prompt"
	"github.com/aretw0/vibecam/internal/runtime"
	"github.com/aretw0/vibecam/pkg/asset"
	"github.com/aretw0/vibecam/pkg/camera"
	"github.com/aretw0/vibecam/pkg/darkroom"
	"github.com/aretw0/vibecam/pkg/domain"
	"github.com/aretw0/vibecam/pkg/ports"
)

// FallbackReply stands in for the agent when the completion service fails:
// an empty patch followed by an apology.
const FallbackReply = "{}\nError connecting to AI."

// DefaultTemperature is the sampling temperature of conversational turns.
const DefaultTemperature = 0.7

// Engine is the high-level entry point of Vibe Cam.
// It is stateless: every call receives and returns the whole document.
type Engine struct {
	completer ports.Completer
	generator ports.ImageGenerator

	coordinator *runtime.Coordinator
	pipeline    *darkroom.Pipeline
	catalog     *camera.Catalog

	fetcher      darkroom.Fetcher
	fetcherOpts  []asset.Option
	compositor   *darkroom.Compositor
	readyMessage string
	atomic       bool
	maxIndex     int
	temperature  float64
	now          func() time.Time
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithCatalog replaces the built-in camera presets.
func WithCatalog(c *camera.Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithFetcher replaces the asset fetcher used by the darkroom.
func WithFetcher(f darkroom.Fetcher) Option {
	return func(e *Engine) {
		e.fetcher = f
	}
}

// WithFetcherOptions tunes the default asset fetcher (attempts, timeouts, backoff).
func WithFetcherOptions(opts ...asset.Option) Option {
	return func(e *Engine) {
		e.fetcherOpts = append(e.fetcherOpts, opts...)
	}
}

// WithCompositor replaces the caption compositor, e.g. to pin the font chain.
func WithCompositor(c *darkroom.Compositor) Option {
	return func(e *Engine) {
		e.compositor = c
	}
}

// WithReadyMessage sets the reply shown once the document is ready.
func WithReadyMessage(msg string) Option {
	return func(e *Engine) {
		e.readyMessage = msg
	}
}

// WithAtomicPatches applies agent patches all-or-nothing instead of stopping
// at the first failing entry with earlier entries kept.
func WithAtomicPatches() Option {
	return func(e *Engine) {
		e.atomic = true
	}
}

// WithMaxListIndex rejects agent patches addressing a list index above n.
// Zero, the default, leaves indexes unbounded.
func WithMaxListIndex(n int) Option {
	return func(e *Engine) {
		e.maxIndex = n
	}
}

// WithTemperature sets the completion temperature.
func WithTemperature(t float64) Option {
	return func(e *Engine) {
		e.temperature = t
	}
}

// WithClock sets the time source used for photo captions.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New wires an Engine around a language model and an image model.
// Either may be nil: chat then always falls back, generation always fails.
func New(completer ports.Completer, generator ports.ImageGenerator, opts ...Option) *Engine {
	e := &Engine{
		completer:   completer,
		generator:   generator,
		temperature: DefaultTemperature,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.catalog == nil {
		e.catalog = camera.Builtin()
	}
	if e.now == nil {
		e.now = time.Now
	}

	coordOpts := []runtime.Option{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithReadyMessage(e.readyMessage),
		runtime.WithMaxListIndex(e.maxIndex),
	}
	if e.atomic {
		coordOpts = append(coordOpts, runtime.WithAtomicPatches())
	}
	e.coordinator = runtime.NewCoordinator(coordOpts...)

	if e.fetcher == nil {
		fetcherOpts := append([]asset.Option{
			asset.WithLogger(e.logger),
			asset.WithLifecycleHooks(e.hooks),
		}, e.fetcherOpts...)
		e.fetcher = asset.NewFetcher(fetcherOpts...)
	}
	if e.compositor == nil {
		e.compositor = darkroom.NewCompositor(darkroom.WithCompositorLogger(e.logger))
	}
	e.pipeline = darkroom.NewPipeline(e.fetcher,
		darkroom.WithCompositor(e.compositor),
		darkroom.WithLogger(e.logger),
		darkroom.WithLifecycleHooks(e.hooks),
	)
	return e
}

// Init returns a fresh document.
func (e *Engine) Init() *domain.Object {
	return domain.NewDocument()
}

// Catalog returns the camera presets in use.
func (e *Engine) Catalog() *camera.Catalog {
	return e.catalog
}

// ChatRequest is one user turn.
type ChatRequest struct {
	Message string `json:"message"`
	// Schema is the current document; nil starts from Init.
	Schema            *domain.Object `json:"schema_data,omitempty"`
	HasCharacterImage bool           `json:"has_character_image"`
}

// ChatResponse is the updated document and what to tell the user.
type ChatResponse struct {
	Schema       *domain.Object `json:"schema"`
	Reply        string         `json:"reply"`
	PatchApplied *domain.Object `json:"patch_applied"`
	IsReady      bool           `json:"is_ready"`
	Status       domain.Status  `json:"status"`
}

// Chat runs one conversational turn. The caller's document is not modified.
// Completion failures degrade to FallbackReply; only an empty message is an error.
func (e *Engine) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, domain.ErrEmptyMessage
	}

	doc := req.Schema.Clone()
	if doc == nil {
		doc = domain.NewDocument()
	}

	text := e.complete(ctx, doc, req)
	turn := e.coordinator.Advance(ctx, doc, text)

	return &ChatResponse{
		Schema:       turn.Document,
		Reply:        turn.Reply,
		PatchApplied: turn.Patch.Object(),
		IsReady:      turn.Ready(),
		Status:       turn.Status,
	}, nil
}

func (e *Engine) complete(ctx context.Context, doc *domain.Object, req ChatRequest) string {
	if e.completer == nil {
		e.logger.Warn("No completion service configured")
		return FallbackReply
	}
	userPrompt, err := prompt.Turn(doc, req.Message, req.HasCharacterImage)
	if err != nil {
		e.logger.Error("Failed to build prompt", "err", err)
		return FallbackReply
	}
	text, err := e.completer.Complete(ctx, ports.CompletionRequest{
		SystemInstruction: prompt.SystemInstruction,
		Prompt:            userPrompt,
		Temperature:       e.temperature,
	})
	if err != nil {
		e.logger.Warn("Completion failed, using fallback reply", "err", err)
		return FallbackReply
	}
	return text
}

// GenerateRequest asks for the photo of a document.
type GenerateRequest struct {
	Schema *domain.Object `json:"schema_data"`
	// CharacterImage is an optional reference, as a data URI or URL.
	CharacterImage string         `json:"character_image,omitempty"`
	CameraSettings map[string]any `json:"camera_settings,omitempty"`
}

// GenerateResponse carries the developed print.
type GenerateResponse struct {
	ImageURL    string `json:"image_url"`
	PromptUsed  string `json:"prompt_used"`
	Camera      string `json:"camera"`
	AspectRatio string `json:"aspect_ratio"`
	Watermarked bool   `json:"watermarked"`
}

// Generate renders the document into a photo and develops it.
// Image model failures are returned; an undownloadable image is returned as is.
func (e *Engine) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Schema == nil {
		return nil, domain.ErrMissingSchema
	}
	if e.generator == nil {
		return nil, fmt.Errorf("no image generator configured")
	}

	settings, err := camera.DecodeSettings(req.CameraSettings)
	if err != nil {
		return nil, err
	}
	img, err := prompt.ForImage(req.Schema, settings, e.catalog)
	if err != nil {
		return nil, err
	}
	e.logger.Info("Generating photo",
		"camera", img.Preset.Name,
		"aspect_ratio", img.Preset.AspectRatio,
		"character_image", req.CharacterImage != "",
	)

	start := time.Now()
	ref, err := e.generator.Generate(ctx, ports.ImageRequest{
		Prompt:      img.Prompt,
		AspectRatio: img.Preset.AspectRatio,
		Reference:   req.CharacterImage,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	e.logger.Debug("Image generated", "duration", time.Since(start))

	pr, err := e.pipeline.Develop(ctx, ref, darkroom.CaptionFor(req.Schema, e.now()))
	if err != nil {
		return nil, err
	}

	return &GenerateResponse{
		ImageURL:    pr.ImageURL,
		PromptUsed:  img.Prompt,
		Camera:      img.Preset.Name,
		AspectRatio: img.Preset.AspectRatio,
		Watermarked: pr.Watermarked,
	}, nil
}
