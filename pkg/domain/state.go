package domain

import "time"

// Status is the conversational state of a document.
type Status string

const (
	// StatusCollecting is the start state: the agent is still gathering details.
	StatusCollecting Status = "collecting"
	// StatusReady means the agent emitted the sentinel and the document can be developed.
	StatusReady Status = "ready"
)

// Ready reports whether the status allows generation.
func (s Status) Ready() bool {
	return s == StatusReady
}

// Top-level keys of a photo document.
const (
	KeyMetadata         = "metadata"
	KeyStory            = "story"
	KeyScene            = "scene"
	KeySubjects         = "subjects"
	KeyEnvironment      = "environment"
	KeyCamera           = "camera"
	KeyTechnical        = "technical"
	KeyFullPromptString = "full_prompt_string"

	// KeyCoordinates lives under environment and feeds the watermark caption.
	KeyCoordinates = "coordinates"
)

// NewDocument returns the initial photo document every new session starts from.
func NewDocument() *Object {
	doc := NewObject()

	metadata := NewObject()
	metadata.Set("title", "")
	metadata.Set("category", "")
	metadata.Set("version", "1.0")
	doc.Set(KeyMetadata, metadata)

	story := NewObject()
	story.Set("emotion", []any{})
	story.Set("moment", "")
	story.Set("narrative_context", "")
	doc.Set(KeyStory, story)

	scene := NewObject()
	scene.Set("overall_description", "")
	scene.Set("theme", "")
	doc.Set(KeyScene, scene)

	doc.Set(KeySubjects, []any{})

	lighting := NewObject()
	lighting.Set("type", "")
	lighting.Set("intensity", "")
	environment := NewObject()
	environment.Set("location_type", "")
	environment.Set(KeyCoordinates, "")
	environment.Set("time_of_day", "")
	environment.Set("lighting", lighting)
	doc.Set(KeyEnvironment, environment)

	camera := NewObject()
	camera.Set("camera_style", "")
	camera.Set("film_stock", "")
	camera.Set("lens", "")
	doc.Set(KeyCamera, camera)

	technical := NewObject()
	technical.Set("resolution", "1024x1024")
	technical.Set("style_keywords", []any{})
	doc.Set(KeyTechnical, technical)

	doc.Set(KeyFullPromptString, "")
	return doc
}

// Session is a document persisted between turns by an optional store.
// The conversation core never reads it; only outer adapters do.
type Session struct {
	ID        string    `json:"id"`
	Document  *Object   `json:"document"`
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a collecting session holding a fresh document.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Document:  NewDocument(),
		Status:    StatusCollecting,
		UpdatedAt: time.Now().UTC(),
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Document = s.Document.Clone()
	return &out
}
