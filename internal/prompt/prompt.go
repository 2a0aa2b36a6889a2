// Package prompt builds the text sent to the language and image models.
package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/vibecam/pkg/camera"
	"github.com/aretw0/vibecam/pkg/domain"
)

// SystemInstruction frames the completion model as the document filler.
const SystemInstruction = `You are VibeCameraGPT. Your goal is to fill the Vibe Camera JSON Schema.
Output ONLY a JSON patch (a subset of the dictionary) to update the schema based on user input.
Keys may be dotted paths with list indices, for example "subjects[0].name" or "environment.lighting.type".
After the patch, if the schema is not complete enough to generate a photo, ask a question.
If the schema is ready, set "full_prompt_string" with a detailed Stable Diffusion prompt and output "SCHEMA_READY" at the end.

IMPORTANT:
- The system will automatically add camera specifications from the schema.camera field.
- Focus on describing the scene, subject, mood, lighting, and composition.`

// CharacterInstruction is added when the user supplied a reference image.
const CharacterInstruction = "User has provided a reference character image. " +
	"The 'subjects' field should represent this character. " +
	"Do NOT ask for subject description unless necessary for context. " +
	"You can assume the subject is 'the character in the reference photo'."

// Turn renders the per-turn user prompt.
func Turn(doc *domain.Object, userInput string, hasCharacterImage bool) (string, error) {
	current, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}
	extra := ""
	if hasCharacterImage {
		extra = CharacterInstruction
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current Schema: %s\n", current)
	fmt.Fprintf(&b, "User Input: %s\n", userInput)
	fmt.Fprintf(&b, "Has Character Image: %t\n\n", hasCharacterImage)
	b.WriteString("Remember:\n")
	b.WriteString("1. Return a JSON patch to update fields.\n")
	b.WriteString("2. If coordinates are provided in environment, deduce the weather/vibe from that location conceptually.\n")
	fmt.Fprintf(&b, "3. %s\n", extra)
	b.WriteString("4. Ask the next question OR say SCHEMA_READY.\n")
	return b.String(), nil
}

// cameraPhrases strip camera and film mentions the model may have written
// itself, so the preset suffix is the only one left.
var cameraPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)shot on [^,.]+(?:film|camera|lens)`),
	regexp.MustCompile(`(?i)filmed on [^,.]+`),
	regexp.MustCompile(`(?i)(?:kodak|fuji|ilford|cinestill|polaroid|leica|contax|hasselblad)\s+[^,.]+`),
	regexp.MustCompile(`(?i)(?:\d+mm|35mm|medium format|instant film)[^,.]*`),
}

var (
	doubleComma = regexp.MustCompile(`\s*,\s*,\s*`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Image is the resolved image generation request.
type Image struct {
	Prompt   string
	Preset   camera.Preset
	Settings camera.Settings
}

// ForImage builds the image prompt for doc.
//
// The base text is full_prompt_string, or the whole document as JSON when it
// is empty. The camera comes from requested.Model, then camera.camera_style,
// then the catalog default. Manual settings prefer the document's camera
// block, then requested, then the package defaults.
func ForImage(doc *domain.Object, requested camera.Settings, catalog *camera.Catalog) (Image, error) {
	base := doc.String(domain.KeyFullPromptString)
	if base == "" {
		raw, err := json.Marshal(doc)
		if err != nil {
			return Image{}, fmt.Errorf("failed to render document: %w", err)
		}
		base = "Generate a photo based on: " + string(raw)
	}

	cam, _ := doc.Object(domain.KeyCamera)
	name := requested.Model
	if name == "" {
		name = cam.String("camera_style")
	}
	preset := catalog.PresetFor(name)

	settings := camera.Settings{
		Model:    preset.Name,
		Aperture: scalar(cam, "aperture"),
		Shutter:  scalar(cam, "shutter"),
		ISO:      scalar(cam, "iso"),
	}.Merge(requested).Merge(camera.Defaults())

	text := StripCameraPhrases(base)
	text += ", " + preset.PromptSuffix
	text += fmt.Sprintf(", shot with aperture %s, shutter speed %s, ISO %s", settings.Aperture, settings.Shutter, settings.ISO)

	return Image{Prompt: text, Preset: preset, Settings: settings}, nil
}

// scalar reads a string or number field as text.
func scalar(obj *domain.Object, key string) string {
	switch v, _ := obj.Get(key); t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// StripCameraPhrases removes camera/film phrases and tidies the separators left behind.
func StripCameraPhrases(text string) string {
	for _, re := range cameraPhrases {
		text = re.ReplaceAllString(text, "")
	}
	text = doubleComma.ReplaceAllString(text, ", ")
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}
