package darkroom

import (
	"encoding/json"
	"time"

	"github.com/aretw0/vibecam/pkg/domain"
)

// Brand is the fixed label printed after the timestamp.
const Brand = "VIBE CAM"

// stampLayout renders two-digit year, month, day, hour and minute separated by spaces.
const stampLayout = "06 01 02 15:04"

// Caption is the data printed on a photo.
type Caption struct {
	Time        time.Time
	Coordinates string
}

// Text renders the stamp: 'YY MM DD HH:MM  VIBE CAM, followed by two spaces
// and the coordinates when present.
func (c Caption) Text() string {
	text := "'" + c.Time.Format(stampLayout) + "  " + Brand
	if c.Coordinates != "" {
		text += "  " + c.Coordinates
	}
	return text
}

// CaptionFor builds the caption of doc at the given instant, using
// environment.coordinates when set.
func CaptionFor(doc *domain.Object, now time.Time) Caption {
	c := Caption{Time: now}
	env, ok := doc.Object(domain.KeyEnvironment)
	if !ok {
		return c
	}
	switch v, _ := env.Get(domain.KeyCoordinates); t := v.(type) {
	case nil:
	case string:
		c.Coordinates = t
	default:
		if b, err := json.Marshal(t); err == nil {
			c.Coordinates = string(b)
		}
	}
	return c
}
