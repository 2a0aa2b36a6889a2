package runtime

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/vibecam/internal/logging"
	"github.com/aretw0/vibecam/pkg/domain"
	"github.com/aretw0/vibecam/pkg/patch"
)

// SentinelToken marks, in the agent's free text, that the document is complete.
const SentinelToken = "SCHEMA_READY"

// DefaultReadyMessage replaces the agent reply once the sentinel is seen.
const DefaultReadyMessage = "All set! Developing your photo..."

// Turn is the outcome of folding one agent response into a document.
type Turn struct {
	// Document is the same document passed to Advance, after the patch.
	Document *domain.Object
	// Reply is the text to show the user.
	Reply string
	// Patch is the structured block parsed from the agent text, nil if none.
	Patch patch.Patch
	// Applied counts the patch entries written before any failure.
	Applied int
	Status  domain.Status

	// ParseErr is set when a candidate block existed but was not a valid patch.
	ParseErr error
	// ApplyErr is set when the patch stopped on an entry.
	ApplyErr error
}

// Ready reports whether the turn moved the document to the ready state.
func (t *Turn) Ready() bool {
	return t.Status.Ready()
}

// Coordinator folds agent output into the photo document.
// It holds no per-session memory and is safe for concurrent use.
type Coordinator struct {
	atomic       bool
	patchOpts    []patch.Option
	readyMessage string
	logger       *slog.Logger
	hooks        domain.LifecycleHooks
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger used for non-fatal parse and apply failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithReadyMessage overrides the confirmation shown when the document is ready.
func WithReadyMessage(msg string) Option {
	return func(c *Coordinator) {
		if msg != "" {
			c.readyMessage = msg
		}
	}
}

// WithAtomicPatches switches to all-or-nothing patch application.
func WithAtomicPatches() Option {
	return func(c *Coordinator) {
		c.atomic = true
	}
}

// WithMaxListIndex caps list indexes accepted from agent patches. Zero leaves
// them unbounded.
func WithMaxListIndex(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.patchOpts = append(c.patchOpts, patch.WithMaxIndex(n))
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Coordinator) {
		c.hooks = hooks
	}
}

// NewCoordinator creates a coordinator using partial patch application by default.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		readyMessage: DefaultReadyMessage,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Advance extracts the structured block embedded in agentText, applies it to
// doc and classifies the conversation. It never fails: malformed agent text
// degrades to an empty patch and the stripped full text as reply.
func (c *Coordinator) Advance(ctx context.Context, doc *domain.Object, agentText string) *Turn {
	if doc == nil {
		doc = domain.NewDocument()
	}
	turn := &Turn{
		Document: doc,
		Status:   domain.StatusCollecting,
	}

	if block, ok := extractBlock(agentText); ok {
		p, err := patch.Decode([]byte(block))
		if err != nil {
			turn.ParseErr = &ParseError{Block: block, Err: err}
			c.logger.Warn("Agent block is not a valid patch, ignoring", "err", err, "size", len(block))
		} else {
			turn.Patch = p
			turn.Applied, turn.ApplyErr = c.apply(doc, p)
			if turn.ApplyErr != nil {
				c.logger.Warn("Patch stopped before completion",
					"err", turn.ApplyErr,
					"applied", turn.Applied,
					"entries", len(p),
				)
			} else {
				c.logger.Debug("Patch applied", "entries", len(p))
			}
		}
	}

	turn.Reply = replyText(agentText)
	if strings.Contains(turn.Reply, SentinelToken) {
		turn.Reply = c.readyMessage
		turn.Status = domain.StatusReady
	}

	if c.hooks.OnTurn != nil {
		c.hooks.OnTurn(ctx, &domain.TurnEvent{
			EventBase:    domain.EventBase{Timestamp: time.Now(), Type: domain.EventTurn},
			Status:       turn.Status,
			PatchEntries: len(turn.Patch),
			Applied:      turn.Applied,
			ParseFailed:  turn.ParseErr != nil,
			ApplyFailed:  turn.ApplyErr != nil,
		})
	}
	return turn
}

func (c *Coordinator) apply(doc *domain.Object, p patch.Patch) (int, error) {
	if c.atomic {
		return patch.ApplyAtomic(doc, p, c.patchOpts...)
	}
	return patch.Apply(doc, p, c.patchOpts...)
}

// extractBlock returns the text between the first '{' and the last '}', inclusive.
func extractBlock(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// replyText is everything after the last '}', trimmed. Without a '}' it is the whole text.
func replyText(text string) string {
	if end := strings.LastIndexByte(text, '}'); end >= 0 {
		text = text[end+1:]
	}
	return strings.TrimSpace(text)
}
