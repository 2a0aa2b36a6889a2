// Package testutils holds fakes shared by package tests.
package testutils

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/vibecam/pkg/asset"
	"github.com/aretw0/vibecam/pkg/darkroom"
	"github.com/aretw0/vibecam/pkg/ports"
)

// ErrScriptExhausted is returned by ScriptedCompleter once every reply was used.
var ErrScriptExhausted = errors.New("script exhausted")

// ScriptedCompleter answers completions with canned agent replies, in order.
// It records every request it receives.
type ScriptedCompleter struct {
	mu       sync.Mutex
	replies  []string
	Requests []ports.CompletionRequest
}

func NewScriptedCompleter(replies ...string) *ScriptedCompleter {
	return &ScriptedCompleter{replies: replies}
}

func (s *ScriptedCompleter) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, req)
	if len(s.replies) == 0 {
		return "", ErrScriptExhausted
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

// StaticGenerator returns the same image reference for every request.
type StaticGenerator struct {
	mu       sync.Mutex
	Ref      string
	Err      error
	Requests []ports.ImageRequest
}

func (g *StaticGenerator) Generate(ctx context.Context, req ports.ImageRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Requests = append(g.Requests, req)
	return g.Ref, g.Err
}

// OfflineFetcher fails every download like an unreachable host.
type OfflineFetcher struct{}

func (OfflineFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	return nil, &asset.FetchFailure{Reference: ref, Attempts: 1, Err: errors.New("offline")}
}

// PNGDataURI encodes a solid w×h PNG as a data URI.
func PNGDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 60, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return asset.EncodeDataURI("image/png", buf.Bytes())
}

// PinnedCompositor captions with the built-in Go Bold font only, so tests do
// not depend on the fonts installed on the host.
func PinnedCompositor() *darkroom.Compositor {
	return darkroom.NewCompositor(darkroom.WithFontChain(darkroom.FontChain{
		darkroom.GoBoldFont(darkroom.DefaultFontSize),
	}))
}
