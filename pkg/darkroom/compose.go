package darkroom

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	"github.com/aretw0/vibecam/internal/logging"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
)

// Inset is the distance, in pixels, between the stamp and the bottom and right edges.
const Inset = 50

// ShadowOffset is how far the shadow pass is shifted right and down.
const ShadowOffset = 2

var (
	ShadowColor = color.NRGBA{R: 50, G: 0, B: 0, A: 128}
	StampColor  = color.NRGBA{R: 255, G: 140, B: 0, A: 230}
)

// DecodeError means the fetched bytes are not a supported image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Compositor burns captions into images.
type Compositor struct {
	fonts  FontChain
	logger *slog.Logger
}

// CompositorOption configures a Compositor.
type CompositorOption func(*Compositor)

// WithFontChain replaces the font lookup order. When no loader of chain
// succeeds, Overlay still stamps the caption with the bitmap face.
func WithFontChain(chain FontChain) CompositorOption {
	return func(c *Compositor) {
		if len(chain) > 0 {
			c.fonts = chain
		}
	}
}

func WithCompositorLogger(logger *slog.Logger) CompositorOption {
	return func(c *Compositor) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewCompositor(opts ...CompositorOption) *Compositor {
	c := &Compositor{
		fonts:  DefaultFontChain(DefaultFontSize),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Overlay decodes data and stamps caption with the default compositor.
func Overlay(data []byte, caption Caption) (*image.RGBA, error) {
	return NewCompositor().Overlay(data, caption)
}

// Overlay decodes data and stamps caption in the bottom-right corner.
//
// The text is laid out so that its box ends Inset pixels from the right and
// bottom edges. It is drawn twice on a transparent layer, first as a dark
// shadow shifted by ShadowOffset and then in the stamp color, and the layer
// is alpha-composited over the picture. Images smaller than the stamp get a
// partially or fully clipped caption.
func (c *Compositor) Overlay(data []byte, caption Caption) (*image.RGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	face, name, err := c.fonts.Face()
	if err != nil {
		// The bitmap face is built in and cannot fail to load.
		c.logger.Warn("Font chain exhausted, using bitmap face", "err", err)
		last := BitmapFont()
		face, _ = last.Load()
		name = last.Name
	}
	c.logger.Debug("Stamping caption", "font", name)

	bounds := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), src, bounds.Min, draw.Src)

	text := caption.Text()
	ink, _ := font.BoundString(face, text)
	textW := ink.Max.X.Ceil() - ink.Min.X.Floor()
	textH := ink.Max.Y.Ceil() - ink.Min.Y.Floor()

	// Top-left of the layout box, measured from the line's ascender.
	x := out.Bounds().Dx() - textW - Inset
	y := out.Bounds().Dy() - textH - Inset
	ascent := face.Metrics().Ascent

	layer := image.NewRGBA(out.Bounds())
	stamp := func(dx, dy int, col color.Color) {
		d := &font.Drawer{
			Dst:  layer,
			Src:  image.NewUniform(col),
			Face: face,
			Dot:  fixed.Point26_6{X: fixed.I(x + dx), Y: fixed.I(y+dy) + ascent},
		}
		d.DrawString(text)
	}
	stamp(ShadowOffset, ShadowOffset, ShadowColor)
	stamp(0, 0, StampColor)

	draw.Draw(out, out.Bounds(), layer, image.Point{}, draw.Over)
	return out, nil
}
