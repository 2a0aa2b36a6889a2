package http

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/vibecam/pkg/domain"
)

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Subscribers returns the number of open streams for a session.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("StreamManager: Broadcasting", "session_id", sessionID, "payload_size", len(msg))

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// Publish serializes the diff between two snapshots and broadcasts it.
func (sm *StreamManager) Publish(before, after *domain.Session) {
	diff := domain.Diff(before, after)
	if diff == nil {
		sm.logger.Debug("No diff calculated", "session_id", after.ID)
		return
	}
	bytes, err := json.Marshal(diff)
	if err != nil {
		sm.logger.Error("Failed to encode diff", "err", err)
		return
	}
	sm.Broadcast(after.ID, string(bytes))
}

// matchesWatch reports whether a serialized diff touches any watched field.
// "status" matches status changes, any other name a top-level document key.
func matchesWatch(msg string, watchList []string) bool {
	var diff domain.DocumentDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watchList {
		field = strings.TrimSpace(field)
		if field == "status" {
			if diff.Status != nil {
				return true
			}
			continue
		}
		if _, ok := diff.Changes[field]; ok {
			return true
		}
	}
	return false
}
