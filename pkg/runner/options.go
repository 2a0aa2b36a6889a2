package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/vibecam"
	"github.com/aretw0/vibecam/pkg/session"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithEngine configures the engine that answers each message. Required.
func WithEngine(engine *vibecam.Engine) Option {
	return func(r *Runner) {
		r.engine = engine
	}
}

// WithSessions persists the document between turns.
// It is only used together with WithSessionID.
func WithSessions(m *session.Manager) Option {
	return func(r *Runner) {
		r.sessions = m
	}
}

// WithSessionID sets the session ID for persistence context.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithOutputDir writes developed prints into dir.
func WithOutputDir(dir string) Option {
	return func(r *Runner) {
		r.OutputDir = dir
	}
}

// WithCharacterImage sends a reference image (data URI or URL) with every
// turn and generation.
func WithCharacterImage(ref string) Option {
	return func(r *Runner) {
		r.CharacterImage = ref
	}
}

// WithCameraSettings sets manual camera settings for generation.
func WithCameraSettings(settings map[string]any) Option {
	return func(r *Runner) {
		r.CameraSettings = settings
	}
}

// WithAutoDevelop controls whether a ready document is developed right away.
// Enabled by default.
func WithAutoDevelop(enabled bool) Option {
	return func(r *Runner) {
		r.AutoDevelop = enabled
	}
}

// WithClock sets the time source used to name prints.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}
