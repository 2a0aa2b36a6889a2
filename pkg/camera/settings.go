package camera

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Manual exposure defaults used when neither the document nor the request set them.
const (
	DefaultAperture = "f/2.8"
	DefaultShutter  = "1/125"
	DefaultISO      = "400"
)

// Settings are manual camera parameters. Values are free-form strings as the
// agent and clients write them ("f/1.8", "1/60", "800").
type Settings struct {
	Model    string `mapstructure:"model" json:"model,omitempty"`
	Aperture string `mapstructure:"aperture" json:"aperture,omitempty"`
	Shutter  string `mapstructure:"shutter" json:"shutter,omitempty"`
	ISO      string `mapstructure:"iso" json:"iso,omitempty"`
}

// DecodeSettings reads settings from a loose map. Numbers are accepted and
// turned into strings; unknown keys are ignored.
func DecodeSettings(in map[string]any) (Settings, error) {
	var s Settings
	if len(in) == 0 {
		return s, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &s,
		DecodeHook:       stringifyNumbers,
	})
	if err != nil {
		return s, err
	}
	if err := dec.Decode(in); err != nil {
		return s, fmt.Errorf("invalid camera settings: %w", err)
	}
	return s, nil
}

// Merge fills the empty fields of s from fallback.
func (s Settings) Merge(fallback Settings) Settings {
	if s.Model == "" {
		s.Model = fallback.Model
	}
	if s.Aperture == "" {
		s.Aperture = fallback.Aperture
	}
	if s.Shutter == "" {
		s.Shutter = fallback.Shutter
	}
	if s.ISO == "" {
		s.ISO = fallback.ISO
	}
	return s
}

// Defaults returns the manual exposure defaults.
func Defaults() Settings {
	return Settings{Aperture: DefaultAperture, Shutter: DefaultShutter, ISO: DefaultISO}
}

// stringifyNumbers renders fmt.Stringer values (json.Number among them) verbatim.
func stringifyNumbers(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	if s, ok := data.(fmt.Stringer); ok {
		return s.String(), nil
	}
	return data, nil
}
