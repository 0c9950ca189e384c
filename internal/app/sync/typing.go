package sync

import (
	"sync"
	"time"
)

// Tracker holds ephemeral typing presence. A signal lives for one TTL and
// then simply stops being visible; no explicit stop message is required.
// Outgoing signals are debounced so a keystroke burst produces at most one
// publish per debounce window.
type Tracker struct {
	mu       sync.Mutex
	ttl      time.Duration
	debounce time.Duration
	now      func() time.Time
	expiry   map[string]time.Time
	lastEmit map[string]time.Time
}

func NewTracker(ttl, debounce time.Duration) *Tracker {
	return &Tracker{
		ttl:      ttl,
		debounce: debounce,
		now:      time.Now,
		expiry:   make(map[string]time.Time),
		lastEmit: make(map[string]time.Time),
	}
}

func key(conversationID, participantID string) string {
	return conversationID + ":" + participantID
}

// Signal records a local keystroke and reports whether the signal should be
// published now (debounce window elapsed) or suppressed.
func (t *Tracker) Signal(conversationID, participantID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.now()
	k := key(conversationID, participantID)
	t.expiry[k] = n.Add(t.ttl)

	if last, ok := t.lastEmit[k]; ok && n.Sub(last) < t.debounce {
		return false
	}
	t.lastEmit[k] = n
	return true
}

// Observe records a remotely delivered typing signal.
func (t *Tracker) Observe(conversationID, participantID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expiry[key(conversationID, participantID)] = t.now().Add(t.ttl)
}

// Clear drops the signal immediately. Invoked the instant a message from
// that participant is sent or merged.
func (t *Tracker) Clear(conversationID, participantID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key(conversationID, participantID)
	delete(t.expiry, k)
	delete(t.lastEmit, k)
}

// Active returns the participants with a non-expired signal in the
// conversation, excluding the observer.
func (t *Tracker) Active(conversationID, observerID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.now()
	prefix := conversationID + ":"
	var active []string
	for k, exp := range t.expiry {
		if len(k) <= len(prefix) || k[:len(prefix)] != prefix {
			continue
		}
		participant := k[len(prefix):]
		if participant == observerID {
			continue
		}
		if exp.After(n) {
			active = append(active, participant)
		} else {
			delete(t.expiry, k)
			delete(t.lastEmit, k)
		}
	}
	return active
}
