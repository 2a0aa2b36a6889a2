// Package camera holds the film camera presets used to style generated photos.
package camera

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var builtinPresets []byte

// Preset is a named camera/film look.
type Preset struct {
	Name         string `yaml:"name" json:"name"`
	PromptSuffix string `yaml:"prompt_suffix" json:"prompt_suffix"`
	AspectRatio  string `yaml:"aspect_ratio" json:"aspect_ratio"`
}

// Catalog is an ordered set of presets with a fallback.
type Catalog struct {
	DefaultName string   `yaml:"default" json:"default"`
	Presets     []Preset `yaml:"presets" json:"presets"`
}

var (
	ErrEmptyCatalog   = errors.New("camera catalog has no presets")
	ErrUnknownDefault = errors.New("default preset is not in the catalog")
)

// Builtin returns the embedded catalog.
func Builtin() *Catalog {
	c, err := Parse(builtinPresets, ".yaml")
	if err != nil {
		panic(fmt.Sprintf("camera: embedded presets are invalid: %v", err))
	}
	return c
}

// LoadFile reads a catalog from a YAML or JSON file. A missing path yields the builtin catalog.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Builtin(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read camera catalog: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes a catalog; ext selects JSON for ".json" and YAML otherwise.
func Parse(data []byte, ext string) (*Catalog, error) {
	var c Catalog
	if strings.EqualFold(ext, ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return nil, fmt.Errorf("failed to parse camera catalog: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse camera catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the catalog is usable.
func (c *Catalog) Validate() error {
	if len(c.Presets) == 0 {
		return ErrEmptyCatalog
	}
	for i, p := range c.Presets {
		if p.Name == "" {
			return fmt.Errorf("camera preset %d has no name", i)
		}
	}
	if c.DefaultName == "" {
		c.DefaultName = c.Presets[0].Name
	}
	if _, ok := c.Lookup(c.DefaultName); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDefault, c.DefaultName)
	}
	return nil
}

// Lookup finds a preset by exact name.
func (c *Catalog) Lookup(name string) (Preset, bool) {
	for _, p := range c.Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// Default returns the fallback preset.
func (c *Catalog) Default() Preset {
	p, _ := c.Lookup(c.DefaultName)
	return p
}

// PresetFor resolves a free-form camera name: exact match first, then the
// first preset whose name is contained in name, then the default.
func (c *Catalog) PresetFor(name string) Preset {
	if p, ok := c.Lookup(name); ok {
		return p
	}
	for _, p := range c.Presets {
		if name != "" && strings.Contains(name, p.Name) {
			return p
		}
	}
	return c.Default()
}

// Names lists preset names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Presets))
	for i, p := range c.Presets {
		names[i] = p.Name
	}
	return names
}
