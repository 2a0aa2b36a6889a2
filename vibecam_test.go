package vibecam_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/vibecam"
	"github.com/aretw0/vibecam/pkg/asset"
	"github.com/aretw0/vibecam/pkg/darkroom"
	"github.com/aretw0/vibecam/pkg/domain"
	"github.com/aretw0/vibecam/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedCompleter struct {
	replies []string
	err     error
	prompts []ports.CompletionRequest
}

func (s *scriptedCompleter) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	s.prompts = append(s.prompts, req)
	if s.err != nil {
		return "", s.err
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

type fakeGenerator struct {
	ref  string
	err  error
	reqs []ports.ImageRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req ports.ImageRequest) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.ref, f.err
}

func pngDataURI(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 300, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			img.Set(x, y, color.RGBA{20, 40, 60, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return asset.EncodeDataURI("image/png", buf.Bytes())
}

func bundledFonts() vibecam.Option {
	return vibecam.WithCompositor(darkroom.NewCompositor(darkroom.WithFontChain(darkroom.FontChain{
		darkroom.GoBoldFont(darkroom.DefaultFontSize),
	})))
}

func TestEngine_ChatConversation(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{
		`{"scene.overall_description": "rainy Tokyo street", "subjects[0].name": "Mika"} What is Mika wearing?`,
		`{"subjects[0].outfit": "yellow raincoat", "full_prompt_string": "Mika in a yellow raincoat"} SCHEMA_READY`,
	}}
	eng := vibecam.New(completer, nil, vibecam.WithReadyMessage("Developing..."))
	ctx := context.Background()

	doc := eng.Init()
	first, err := eng.Chat(ctx, vibecam.ChatRequest{Message: "Tokyo at night with Mika", Schema: doc})
	require.NoError(t, err)
	assert.Equal(t, "What is Mika wearing?", first.Reply)
	assert.False(t, first.IsReady)
	assert.Equal(t, domain.StatusCollecting, first.Status)
	assert.Equal(t, []string{"scene.overall_description", "subjects[0].name"}, first.PatchApplied.Keys())

	// The caller's document is untouched.
	scene, _ := doc.Object(domain.KeyScene)
	assert.Equal(t, "", scene.String("overall_description"))

	second, err := eng.Chat(ctx, vibecam.ChatRequest{Message: "a yellow raincoat", Schema: first.Schema})
	require.NoError(t, err)
	assert.True(t, second.IsReady)
	assert.Equal(t, "Developing...", second.Reply)

	subjects, _ := second.Schema.Get(domain.KeySubjects)
	require.Len(t, subjects, 1)
	mika := subjects.([]any)[0].(*domain.Object)
	assert.Equal(t, "Mika", mika.String("name"))
	assert.Equal(t, "yellow raincoat", mika.String("outfit"))

	require.Len(t, completer.prompts, 2)
	assert.Contains(t, completer.prompts[1].Prompt, `"name": "Mika"`)
	assert.Equal(t, vibecam.DefaultTemperature, completer.prompts[1].Temperature)
}

func TestEngine_ChatFallsBackWhenCompletionFails(t *testing.T) {
	eng := vibecam.New(&scriptedCompleter{err: errors.New("503")}, nil)

	resp, err := eng.Chat(context.Background(), vibecam.ChatRequest{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Error connecting to AI.", resp.Reply)
	assert.False(t, resp.IsReady)
	assert.Equal(t, 0, resp.PatchApplied.Len())
	assert.True(t, domain.Equal(domain.NewDocument(), resp.Schema))
}

func TestEngine_ChatRejectsEmptyMessage(t *testing.T) {
	eng := vibecam.New(nil, nil)
	_, err := eng.Chat(context.Background(), vibecam.ChatRequest{Message: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
}

func TestEngine_ChatResponseJSONKeepsOrder(t *testing.T) {
	eng := vibecam.New(&scriptedCompleter{replies: []string{`{"z": 1, "a": 2} ok`}}, nil)

	resp, err := eng.Chat(context.Background(), vibecam.ChatRequest{Message: "x", Schema: domain.NewObject()})
	require.NoError(t, err)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"patch_applied":{"z":1,"a":2}`)
	assert.Contains(t, string(raw), `"is_ready":false`)
}

func TestEngine_GenerateDevelopsPrint(t *testing.T) {
	gen := &fakeGenerator{ref: pngDataURI(t)}
	stamp := time.Date(2024, 5, 1, 13, 7, 0, 0, time.UTC)
	eng := vibecam.New(nil, gen, bundledFonts(), vibecam.WithClock(func() time.Time { return stamp }))

	doc := domain.NewDocument()
	doc.Set(domain.KeyFullPromptString, "Mika in a yellow raincoat, shot on Leica camera, neon glow")
	cam, _ := doc.Object(domain.KeyCamera)
	cam.Set("camera_style", "Cinestill 800T")

	resp, err := eng.Generate(context.Background(), vibecam.GenerateRequest{
		Schema:         doc,
		CharacterImage: "https://example.com/me.png",
		CameraSettings: map[string]any{"iso": "800"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Watermarked)
	assert.True(t, strings.HasPrefix(resp.ImageURL, darkroom.DataURIPrefix))
	assert.Equal(t, "Cinestill 800T", resp.Camera)
	assert.Equal(t, "16:9", resp.AspectRatio)
	assert.True(t, strings.HasPrefix(resp.PromptUsed, "Mika in a yellow raincoat, neon glow, shot on Cinestill 800T"))
	assert.True(t, strings.HasSuffix(resp.PromptUsed, "ISO 800"))

	require.Len(t, gen.reqs, 1)
	assert.Equal(t, "16:9", gen.reqs[0].AspectRatio)
	assert.Equal(t, "https://example.com/me.png", gen.reqs[0].Reference)
}

type failingFetcher struct{}

func (failingFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	return nil, &asset.FetchFailure{Reference: ref, Attempts: 3, Err: errors.New("timeout")}
}

func TestEngine_GeneratePassesThroughOnFetchFailure(t *testing.T) {
	gen := &fakeGenerator{ref: "https://replicate.example/out.png"}
	eng := vibecam.New(nil, gen, vibecam.WithFetcher(failingFetcher{}))

	resp, err := eng.Generate(context.Background(), vibecam.GenerateRequest{Schema: domain.NewDocument()})
	require.NoError(t, err)
	assert.False(t, resp.Watermarked)
	assert.Equal(t, "https://replicate.example/out.png", resp.ImageURL)
}

func TestEngine_GenerateErrors(t *testing.T) {
	eng := vibecam.New(nil, &fakeGenerator{err: errors.New("quota")})

	_, err := eng.Generate(context.Background(), vibecam.GenerateRequest{})
	assert.ErrorIs(t, err, domain.ErrMissingSchema)

	_, err = eng.Generate(context.Background(), vibecam.GenerateRequest{Schema: domain.NewDocument()})
	assert.ErrorContains(t, err, "quota")
}

func TestEngine_Hooks(t *testing.T) {
	var turns, develops int
	hooks := domain.LifecycleHooks{
		OnTurn:    func(context.Context, *domain.TurnEvent) { turns++ },
		OnDevelop: func(context.Context, *domain.DevelopEvent) { develops++ },
	}
	eng := vibecam.New(
		&scriptedCompleter{replies: []string{"hi"}},
		&fakeGenerator{ref: pngDataURI(t)},
		vibecam.WithLifecycleHooks(hooks),
		bundledFonts(),
	)

	_, err := eng.Chat(context.Background(), vibecam.ChatRequest{Message: "x"})
	require.NoError(t, err)
	_, err = eng.Generate(context.Background(), vibecam.GenerateRequest{Schema: domain.NewDocument()})
	require.NoError(t, err)

	assert.Equal(t, 1, turns)
	assert.Equal(t, 1, develops)
}
