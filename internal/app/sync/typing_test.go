package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestTracker(start time.Time) (*Tracker, *time.Time) {
	clock := start
	tracker := NewTracker(4*time.Second, time.Second)
	tracker.now = func() time.Time { return clock }
	return tracker, &clock
}

func TestTrackerSignalExpiresWithoutStop(t *testing.T) {
	tracker, clock := newTestTracker(time.Unix(1000, 0))

	tracker.Observe("c1", "bob")
	assert.Equal(t, []string{"bob"}, tracker.Active("c1", "alice"))

	*clock = clock.Add(3 * time.Second)
	assert.Equal(t, []string{"bob"}, tracker.Active("c1", "alice"), "still inside the TTL")

	*clock = clock.Add(2 * time.Second)
	assert.Empty(t, tracker.Active("c1", "alice"), "expired with no stop signal")
}

func TestTrackerSignalDebounce(t *testing.T) {
	tracker, clock := newTestTracker(time.Unix(1000, 0))

	assert.True(t, tracker.Signal("c1", "alice"), "first keystroke publishes")
	assert.False(t, tracker.Signal("c1", "alice"), "burst is suppressed")

	*clock = clock.Add(500 * time.Millisecond)
	assert.False(t, tracker.Signal("c1", "alice"))

	*clock = clock.Add(600 * time.Millisecond)
	assert.True(t, tracker.Signal("c1", "alice"), "debounce window elapsed")
}

func TestTrackerSuppressedSignalStillRefreshesTTL(t *testing.T) {
	tracker, clock := newTestTracker(time.Unix(1000, 0))

	tracker.Signal("c1", "alice")
	*clock = clock.Add(3 * time.Second)
	tracker.Signal("c1", "alice")

	// Expiry counts from the latest keystroke even when its publish was
	// debounced away.
	*clock = clock.Add(3 * time.Second)
	assert.Equal(t, []string{"alice"}, tracker.Active("c1", "bob"))
}

func TestTrackerClearIsImmediate(t *testing.T) {
	tracker, _ := newTestTracker(time.Unix(1000, 0))

	tracker.Observe("c1", "bob")
	tracker.Clear("c1", "bob")
	assert.Empty(t, tracker.Active("c1", "alice"))
}

func TestTrackerActiveScopesByConversationAndObserver(t *testing.T) {
	tracker, _ := newTestTracker(time.Unix(1000, 0))

	tracker.Observe("c1", "alice")
	tracker.Observe("c1", "bob")
	tracker.Observe("c2", "carol")

	active := tracker.Active("c1", "alice")
	assert.Equal(t, []string{"bob"}, active, "observer excluded, other conversations invisible")
}
