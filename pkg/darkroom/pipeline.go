package darkroom

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/vibecam/internal/logging"
	"github.com/aretw0/vibecam/pkg/asset"
	"github.com/aretw0/vibecam/pkg/domain"
)

// Fetcher retrieves the bytes behind an image reference.
type Fetcher interface {
	Fetch(ctx context.Context, reference string) ([]byte, error)
}

// Print is the outcome of developing a reference.
type Print struct {
	// ImageURL is a JPEG data URI when Watermarked, else the untouched reference.
	ImageURL    string
	Watermarked bool
	Caption     string
}

// Pipeline chains fetch, overlay and encode.
type Pipeline struct {
	fetcher    Fetcher
	compositor *Compositor
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
}

type PipelineOption func(*Pipeline)

func WithCompositor(c *Compositor) PipelineOption {
	return func(p *Pipeline) {
		if c != nil {
			p.compositor = c
		}
	}
}

func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithLifecycleHooks(hooks domain.LifecycleHooks) PipelineOption {
	return func(p *Pipeline) {
		p.hooks = hooks
	}
}

// NewPipeline creates a pipeline. A nil fetcher uses asset.NewFetcher defaults.
func NewPipeline(fetcher Fetcher, opts ...PipelineOption) *Pipeline {
	if fetcher == nil {
		fetcher = asset.NewFetcher()
	}
	p := &Pipeline{
		fetcher:    fetcher,
		compositor: NewCompositor(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Develop fetches reference, stamps caption on it and encodes the result.
//
// A fetch failure is not an error: the print carries the original reference
// and Watermarked is false. Decode and encode failures are returned.
func (p *Pipeline) Develop(ctx context.Context, reference string, caption Caption) (*Print, error) {
	start := time.Now()
	pr, err := p.develop(ctx, reference, caption)
	if p.hooks.OnDevelop != nil {
		p.hooks.OnDevelop(ctx, &domain.DevelopEvent{
			EventBase:   domain.EventBase{Timestamp: time.Now(), Type: domain.EventDevelop},
			Watermarked: pr != nil && pr.Watermarked,
			Duration:    time.Since(start),
			Err:         err,
		})
	}
	return pr, err
}

func (p *Pipeline) develop(ctx context.Context, reference string, caption Caption) (*Print, error) {
	text := caption.Text()

	data, err := p.fetcher.Fetch(ctx, reference)
	if err != nil {
		var failure *asset.FetchFailure
		if !errors.As(err, &failure) {
			failure = &asset.FetchFailure{Reference: reference, Err: err}
		}
		p.logger.Warn("Could not download image, returning original reference",
			"attempts", failure.Attempts,
			"err", failure.Err,
		)
		return &Print{ImageURL: reference, Caption: text}, nil
	}

	img, err := p.compositor.Overlay(data, caption)
	if err != nil {
		return nil, err
	}

	uri, err := Encode(img)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Print developed", "bytes", len(data), "uri_length", len(uri))
	return &Print{ImageURL: uri, Watermarked: true, Caption: text}, nil
}
