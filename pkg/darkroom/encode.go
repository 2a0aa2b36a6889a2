package darkroom

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
)

// JPEGQuality is the quality used for prints.
const JPEGQuality = 95

// DataURIPrefix precedes the base64 payload of every print.
const DataURIPrefix = "data:image/jpeg;base64,"

// EncodeError means the final image could not be serialized.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode image: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Encode flattens img to opaque RGB and returns it as a JPEG data URI.
// Transparency is discarded, not blended against a background.
func Encode(img image.Image) (string, error) {
	if img == nil {
		return "", &EncodeError{Err: fmt.Errorf("nil image")}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Flatten(img), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return "", &EncodeError{Err: err}
	}
	return DataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Flatten drops the alpha channel, keeping each pixel's straight color.
func Flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return out
}
