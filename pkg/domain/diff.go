package domain

// DocumentDiff represents the changes between two snapshots of a session.
// It is designed to be serialized to JSON for partial updates on the client.
type DocumentDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// Status is set when the conversational status changed.
	Status *Status `json:"status,omitempty"`

	// Changes contains only changed, added or deleted top-level keys.
	// For deletions, the key is present with a nil value.
	// Clients should merge these updates into their local document.
	Changes map[string]any `json:"changes,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire new session (initial load).
func Diff(oldSession, newSession *Session) *DocumentDiff {
	if newSession == nil {
		return nil
	}

	diff := &DocumentDiff{
		SessionID: newSession.ID,
	}

	if oldSession == nil || oldSession.Status != newSession.Status {
		status := newSession.Status
		diff.Status = &status
	}

	var oldDoc *Object
	if oldSession != nil {
		oldDoc = oldSession.Document
	}
	diff.Changes = diffDocument(oldDoc, newSession.Document)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffDocument(old, new *Object) map[string]any {
	delta := make(map[string]any)

	// Added or modified
	new.Range(func(key string, newVal any) bool {
		oldVal, exists := old.Get(key)
		if !exists || !Equal(oldVal, newVal) {
			delta[key] = newVal
		}
		return true
	})

	// Deleted
	old.Range(func(key string, _ any) bool {
		if _, exists := new.Get(key); !exists {
			delta[key] = nil
		}
		return true
	})

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *DocumentDiff) IsEmpty() bool {
	return d.Status == nil && len(d.Changes) == 0
}
