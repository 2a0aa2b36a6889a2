package cli

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// maxCharacterImage bounds reference images read from disk.
const maxCharacterImage = 10 << 20

// LoadCharacterImage turns a --character-image value into a reference the
// engine accepts. URLs and data URIs pass through; anything else is read as
// a file and inlined as a data URI.
func LoadCharacterImage(ref string) (string, error) {
	switch {
	case ref == "":
		return "", nil
	case strings.HasPrefix(ref, "data:"),
		strings.HasPrefix(ref, "http://"),
		strings.HasPrefix(ref, "https://"):
		return ref, nil
	}

	info, err := os.Stat(ref)
	if err != nil {
		return "", fmt.Errorf("character image: %w", err)
	}
	if info.Size() > maxCharacterImage {
		return "", fmt.Errorf("character image %s is larger than %d bytes", ref, maxCharacterImage)
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return "", fmt.Errorf("character image: %w", err)
	}

	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("character image %s is %s, not an image", ref, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
