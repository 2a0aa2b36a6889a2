package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/vibecam"
	"github.com/aretw0/vibecam/internal/logging"
	"github.com/aretw0/vibecam/pkg/asset"
	"github.com/aretw0/vibecam/pkg/domain"
	"github.com/aretw0/vibecam/pkg/session"
)

// CommandGenerate develops the current document without waiting for the agent.
const CommandGenerate = "/generate"

// ErrNoEngine is returned by Run when the runner has no engine.
var ErrNoEngine = errors.New("runner: no engine configured")

// Runner handles the chat loop using provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	Handler IOHandler
	Logger  *slog.Logger

	SessionID      string
	OutputDir      string
	CharacterImage string
	CameraSettings map[string]any
	AutoDevelop    bool

	engine   *vibecam.Engine
	sessions *session.Manager
	now      func() time.Time
}

// NewRunner creates a new Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		AutoDevelop: true,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// Run executes the chat loop until the input ends, the user quits or ctx is done.
// An interrupt (Ctrl+C) ends the loop without error.
func (r *Runner) Run(ctx context.Context) error {
	if r.engine == nil {
		return ErrNoEngine
	}

	doc, err := r.resolveDocument(ctx)
	if err != nil {
		return err
	}

	signals := NewSignalManager()
	defer signals.Stop()

	for {
		input, err := r.readInput(ctx, signals)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case CommandGenerate:
			r.develop(ctx, doc)
			continue
		}

		resp, err := r.engine.Chat(ctx, vibecam.ChatRequest{
			Message:           input,
			Schema:            doc,
			HasCharacterImage: r.CharacterImage != "",
		})
		if err != nil {
			if err := r.Handler.SystemOutput(ctx, err.Error()); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			continue
		}
		doc = resp.Schema

		if err := r.persist(ctx, resp); err != nil {
			return fmt.Errorf("critical persistence error: %w", err)
		}
		if err := r.Handler.Reply(ctx, resp); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
		if resp.IsReady && r.AutoDevelop {
			r.develop(ctx, doc)
		}
	}
}

func (r *Runner) resolveDocument(ctx context.Context) (*domain.Object, error) {
	if r.sessions == nil || r.SessionID == "" {
		return r.engine.Init(), nil
	}
	s, err := r.sessions.LoadOrStart(ctx, r.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", r.SessionID, err)
	}
	r.Logger.Debug("session resumed", "session_id", r.SessionID, "status", s.Status)
	return s.Document, nil
}

// readInput waits for the next message. A signal or ctx cancellation
// interrupts the wait; a signal is reported as io.EOF.
func (r *Runner) readInput(ctx context.Context, signals *SignalManager) (string, error) {
	inputCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(signals.Context(), cancel)
	defer func() {
		stop()
		cancel()
	}()

	val, err := r.Handler.Input(inputCtx)
	if err == nil {
		return val, nil
	}

	signals.CheckRace()
	if signals.Context().Err() != nil {
		r.Logger.Debug("runner input: interrupted")
		return "", io.EOF
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if errors.Is(err, io.EOF) {
		return "", io.EOF
	}
	return "", fmt.Errorf("input error: %w", err)
}

func (r *Runner) persist(ctx context.Context, resp *vibecam.ChatResponse) error {
	if r.sessions == nil || r.SessionID == "" {
		return nil
	}
	_, _, err := r.sessions.Update(ctx, r.SessionID, func(s *domain.Session) error {
		s.Document = resp.Schema
		s.Status = resp.Status
		return nil
	})
	if err == nil {
		r.Logger.Debug("session saved", "session_id", r.SessionID, "status", resp.Status)
	}
	return err
}

// develop generates the photo and reports it. Failures are shown to the
// user and do not end the conversation.
func (r *Runner) develop(ctx context.Context, doc *domain.Object) {
	_ = r.Handler.SystemOutput(ctx, "Developing your photo...")

	photo, err := r.engine.Generate(ctx, vibecam.GenerateRequest{
		Schema:         doc,
		CharacterImage: r.CharacterImage,
		CameraSettings: r.CameraSettings,
	})
	if err != nil {
		r.Logger.Error("generation failed", "err", err)
		_ = r.Handler.SystemOutput(ctx, fmt.Sprintf("Generation failed: %v", err))
		return
	}

	path, err := r.writePrint(photo)
	if err != nil {
		r.Logger.Warn("failed to save print", "err", err)
		_ = r.Handler.SystemOutput(ctx, fmt.Sprintf("Could not save the print: %v", err))
	}
	if err := r.Handler.Developed(ctx, photo, path); err != nil {
		r.Logger.Warn("failed to show print", "err", err)
	}
}

// writePrint stores an inline print as a JPEG file in OutputDir.
// Prints that are links (not watermarked) are left alone.
func (r *Runner) writePrint(photo *vibecam.GenerateResponse) (string, error) {
	if r.OutputDir == "" || !asset.IsDataURI(photo.ImageURL) {
		return "", nil
	}
	data, err := asset.DecodeDataURI(photo.ImageURL)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(r.OutputDir, fmt.Sprintf("vibecam-%s.jpg", r.now().Format("20060102-150405")))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
