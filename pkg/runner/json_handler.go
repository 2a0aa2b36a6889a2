package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/vibecam"
)

// Event is one line written by the JSONHandler.
type Event struct {
	Type    string                    `json:"type"`
	Chat    *vibecam.ChatResponse     `json:"chat,omitempty"`
	Photo   *vibecam.GenerateResponse `json:"photo,omitempty"`
	Path    string                    `json:"path,omitempty"`
	Message string                    `json:"message,omitempty"`
}

// Event types.
const (
	EventReply     = "reply"
	EventDeveloped = "developed"
	EventSystem    = "system"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder

	sanitizer *Sanitizer
}

// JSONHandlerOption configures a JSONHandler.
type JSONHandlerOption func(*JSONHandler)

// WithJSONHandlerSanitizer sets the sanitizer applied to every message.
func WithJSONHandlerSanitizer(s *Sanitizer) JSONHandlerOption {
	return func(h *JSONHandler) {
		h.sanitizer = s
	}
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer, opts ...JSONHandlerOption) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *JSONHandler) Reply(ctx context.Context, resp *vibecam.ChatResponse) error {
	return h.Encoder.Encode(Event{Type: EventReply, Chat: resp})
}

func (h *JSONHandler) Developed(ctx context.Context, photo *vibecam.GenerateResponse, path string) error {
	return h.Encoder.Encode(Event{Type: EventDeveloped, Photo: photo, Path: path})
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(Event{Type: EventSystem, Message: msg})
}

// Input reads one line. A line holding a JSON string or an object with a
// "message" field is unwrapped; anything else is taken as plain text.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || strings.TrimSpace(text) == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return h.sanitizer.Clean(val)
	}
	var msg struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(text), &msg); err == nil && msg.Message != "" {
		return h.sanitizer.Clean(msg.Message)
	}
	return h.sanitizer.Clean(text)
}
