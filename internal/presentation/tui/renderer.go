package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders agent replies as markdown.
// Replies fall back to plain text when the renderer cannot be built.
func NewRenderer(width int) func(string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return func(text string) (string, error) { return text, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
