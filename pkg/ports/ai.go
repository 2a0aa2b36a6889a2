package ports

import "context"

// CompletionRequest is one turn sent to the language model.
type CompletionRequest struct {
	SystemInstruction string
	Prompt            string
	Temperature       float64
}

// Completer produces the raw agent text for a turn: an optional JSON patch
// followed by free text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ImageRequest describes a photo to generate.
type ImageRequest struct {
	Prompt      string
	AspectRatio string
	// Reference is an optional character image, as a data URI or URL.
	Reference string
}

// ImageGenerator renders a prompt into an image reference the asset fetcher
// can resolve: an http(s) URL or a data: URI.
type ImageGenerator interface {
	Generate(ctx context.Context, req ImageRequest) (string, error)
}
