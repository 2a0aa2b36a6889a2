package runner_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/vibecam"
	"github.com/aretw0/vibecam/pkg/adapters/memory"
	"github.com/aretw0/vibecam/pkg/asset"
	"github.com/aretw0/vibecam/pkg/darkroom"
	"github.com/aretw0/vibecam/pkg/domain"
	"github.com/aretw0/vibecam/pkg/ports"
	"github.com/aretw0/vibecam/pkg/runner"
	"github.com/aretw0/vibecam/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scripted struct {
	replies []string
}

func (s *scripted) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	if len(s.replies) == 0 {
		return "", errors.New("script exhausted")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

type generator struct {
	ref   string
	calls int
}

func (g *generator) Generate(ctx context.Context, req ports.ImageRequest) (string, error) {
	g.calls++
	return g.ref, nil
}

func pngRef(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 320, 240))))
	return asset.EncodeDataURI("image/png", buf.Bytes())
}

type offline struct{}

func (offline) Fetch(ctx context.Context, ref string) ([]byte, error) {
	return nil, &asset.FetchFailure{Reference: ref, Attempts: 1, Err: errors.New("offline")}
}

func newEngine(completer ports.Completer, gen ports.ImageGenerator, opts ...vibecam.Option) *vibecam.Engine {
	opts = append([]vibecam.Option{vibecam.WithCompositor(
		darkroom.NewCompositor(darkroom.WithFontChain(darkroom.FontChain{darkroom.GoBoldFont(darkroom.DefaultFontSize)})),
	)}, opts...)
	return vibecam.New(completer, gen, opts...)
}

func TestRunner_ConversationDevelopsWhenReady(t *testing.T) {
	gen := &generator{ref: pngRef(t)}
	eng := newEngine(&scripted{replies: []string{
		`{"scene.theme": "rainy night"} Who is in the photo?`,
		`{"subjects[0].name": "Mika", "full_prompt_string": "Mika under neon rain"} SCHEMA_READY`,
	}}, gen)

	store := memory.NewStore()
	out := &bytes.Buffer{}
	dir := t.TempDir()
	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	r := runner.NewRunner(
		runner.WithEngine(eng),
		runner.WithSessions(session.NewManager(store)),
		runner.WithSessionID("cli"),
		runner.WithOutputDir(dir),
		runner.WithClock(func() time.Time { return stamp }),
		runner.WithInputHandler(runner.NewJSONHandler(strings.NewReader("a rainy night\nMika\n"), out)),
	)
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, 1, gen.calls)
	assert.Contains(t, out.String(), `"reply":"Who is in the photo?"`)
	assert.Contains(t, out.String(), `"type":"developed"`)

	path := filepath.Join(dir, "vibecam-20240102-030405.jpg")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8}, data[:2])

	saved, err := store.Load(context.Background(), "cli")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, saved.Status)
	assert.Equal(t, "Mika under neon rain", saved.Document.String(domain.KeyFullPromptString))
}

func TestRunner_ResumesSession(t *testing.T) {
	store := memory.NewStore()
	existing := domain.NewSession("resume")
	existing.Document.Set(domain.KeyFullPromptString, "an old prompt")
	require.NoError(t, store.Save(context.Background(), "resume", existing))

	gen := &generator{ref: "https://img.example/broken.png"}
	out := &bytes.Buffer{}
	r := runner.NewRunner(
		runner.WithEngine(newEngine(nil, gen, vibecam.WithFetcher(offline{}))),
		runner.WithSessions(session.NewManager(store)),
		runner.WithSessionID("resume"),
		runner.WithInputHandler(runner.NewJSONHandler(strings.NewReader("/generate\nquit\nnever read\n"), out)),
	)
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, 1, gen.calls)
	assert.Contains(t, out.String(), `"prompt_used":"an old prompt, shot on Fujifilm Superia 400`)
	assert.NotContains(t, out.String(), "never read")
}

func TestRunner_FallbackReplyKeepsLooping(t *testing.T) {
	out := &bytes.Buffer{}
	r := runner.NewRunner(
		runner.WithEngine(newEngine(&scripted{}, nil)),
		runner.WithInputHandler(runner.NewJSONHandler(strings.NewReader("hello\nagain\n"), out)),
	)
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, 2, strings.Count(out.String(), "Error connecting to AI."))
}

func TestRunner_RequiresEngine(t *testing.T) {
	r := runner.NewRunner(runner.WithInputHandler(runner.NewJSONHandler(strings.NewReader(""), &bytes.Buffer{})))
	assert.ErrorIs(t, r.Run(context.Background()), runner.ErrNoEngine)
}
