package runner

import (
	"context"

	"github.com/aretw0/vibecam"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Reply presents the outcome of a chat turn.
	Reply(ctx context.Context, resp *vibecam.ChatResponse) error

	// Developed presents a finished photo. path is where the print was
	// written, or empty when it was not written to disk.
	Developed(ctx context.Context, photo *vibecam.GenerateResponse, path string) error

	// Input reads the next message from the user.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message to the user (e.g. status updates).
	// This is distinct from agent replies.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)
