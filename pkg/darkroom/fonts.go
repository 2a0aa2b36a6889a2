package darkroom

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

// DefaultFontSize is the stamp size in pixels for scalable faces.
const DefaultFontSize = 24

// DefaultFontFiles are tried in order before falling back to the bundled fonts.
// Bare names are looked up in the working directory and the usual font folders.
var DefaultFontFiles = []string{
	"Arial.ttf",
	"arial.ttf",
	"/System/Library/Fonts/Helvetica.ttc",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"DejaVuSans-Bold.ttf",
}

var fontDirs = []string{
	"/usr/share/fonts/truetype/dejavu",
	"/usr/share/fonts/truetype/msttcorefonts",
	"/usr/share/fonts/TTF",
	"/Library/Fonts",
	"/System/Library/Fonts/Supplemental",
	`C:\Windows\Fonts`,
}

// FontLoader produces a face or reports why it could not.
type FontLoader struct {
	Name string
	Load func() (font.Face, error)
}

// FontChain is an ordered list of loaders; the first that succeeds wins.
type FontChain []FontLoader

// ErrNoFont is returned when every loader of a chain failed.
var ErrNoFont = errors.New("no usable font")

// Face returns the first face the chain can load, with the loader name.
func (c FontChain) Face() (font.Face, string, error) {
	var errs []error
	for _, l := range c {
		face, err := l.Load()
		if err == nil && face != nil {
			return face, l.Name, nil
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", l.Name, err))
		}
	}
	return nil, "", errors.Join(append([]error{ErrNoFont}, errs...)...)
}

// DefaultFontChain tries system font files at size, then the bundled Go Bold
// font at size, then the fixed-size bitmap face.
func DefaultFontChain(size float64) FontChain {
	chain := make(FontChain, 0, len(DefaultFontFiles)+2)
	for _, path := range DefaultFontFiles {
		chain = append(chain, FileFont(path, size))
	}
	return append(chain, GoBoldFont(size), BitmapFont())
}

// FileFont loads a TrueType/OpenType file or the first font of a collection.
func FileFont(path string, size float64) FontLoader {
	return FontLoader{
		Name: path,
		Load: func() (font.Face, error) {
			data, err := readFontFile(path)
			if err != nil {
				return nil, err
			}
			var f *opentype.Font
			if strings.EqualFold(filepath.Ext(path), ".ttc") {
				coll, err := opentype.ParseCollection(data)
				if err != nil {
					return nil, err
				}
				f, err = coll.Font(0)
				if err != nil {
					return nil, err
				}
			} else if f, err = opentype.Parse(data); err != nil {
				return nil, err
			}
			return newFace(f, size)
		},
	}
}

// GoBoldFont loads the Go Bold font shipped with golang.org/x/image.
func GoBoldFont(size float64) FontLoader {
	return FontLoader{
		Name: "gobold",
		Load: func() (font.Face, error) {
			f, err := opentype.Parse(gobold.TTF)
			if err != nil {
				return nil, err
			}
			return newFace(f, size)
		},
	}
}

// BitmapFont is the last resort; it cannot be scaled.
func BitmapFont() FontLoader {
	return FontLoader{
		Name: "basicfont",
		Load: func() (font.Face, error) {
			return basicfont.Face7x13, nil
		},
	}
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func readFontFile(path string) ([]byte, error) {
	if filepath.IsAbs(path) || strings.ContainsRune(path, filepath.Separator) {
		return os.ReadFile(path)
	}
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	for _, dir := range fontDirs {
		if data, derr := os.ReadFile(filepath.Join(dir, path)); derr == nil {
			return data, nil
		}
	}
	return nil, err
}
