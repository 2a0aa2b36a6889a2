package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurn         EventType = "turn"
	EventFetchAttempt EventType = "fetch_attempt"
	EventDevelop      EventType = "develop"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// TurnEvent describes one conversational turn folded into a document.
type TurnEvent struct {
	EventBase
	Status       Status `json:"status"`
	PatchEntries int    `json:"patch_entries"`
	Applied      int    `json:"applied"`
	ParseFailed  bool   `json:"parse_failed,omitempty"`
	ApplyFailed  bool   `json:"apply_failed,omitempty"`
}

// FetchEvent describes a single download attempt of a generated asset.
type FetchEvent struct {
	EventBase
	Reference string        `json:"reference"`
	Attempt   int           `json:"attempt"`
	Wait      time.Duration `json:"wait,omitempty"`
	Err       error         `json:"-"`
}

// DevelopEvent describes the outcome of the asset pipeline.
type DevelopEvent struct {
	EventBase
	Watermarked bool          `json:"watermarked"`
	Duration    time.Duration `json:"duration"`
	Err         error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTurn         func(context.Context, *TurnEvent)
	OnFetchAttempt func(context.Context, *FetchEvent)
	OnDevelop      func(context.Context, *DevelopEvent)
}
