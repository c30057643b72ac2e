// Package events provides a fan-out broadcaster for catalog lifecycle events.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ChoBioLab/xenium-explorer-files/internal/metrics"
)

const (
	EventLoaded   = "loaded"
	EventReloaded = "reloaded"
	EventFailed   = "failed"
)

// Event describes a change to the published catalog.
type Event struct {
	Type      string `json:"type"`
	Location  string `json:"location"`
	Files     int    `json:"files,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Broadcaster fans catalog events out to subscribers. It remembers the
// latest event so a new subscriber learns the current catalog state.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	last        *Event
	closed      bool
}

// NewBroadcaster creates a new event broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe adds a new subscriber and returns its event channel. The
// latest published event, if any, is queued first. After Close the
// channel is returned already closed. The caller must call Unsubscribe
// when done.
func (b *Broadcaster) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	if b.last != nil {
		ch <- *b.last
	}
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	metrics.SetEventSubscribers(int64(b.Count()))
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
	b.mu.Unlock()
	metrics.SetEventSubscribers(int64(b.Count()))
}

// Publish sends an event to all subscribers. Non-blocking: drops events
// for slow consumers.
func (b *Broadcaster) Publish(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.last = &event
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
	metrics.RecordEvent(event.Type)
}

// Latest returns the most recently published event.
func (b *Broadcaster) Latest() (Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.last == nil {
		return Event{}, false
	}
	return *b.last, true
}

// Close closes every subscriber channel, ending their streams. Later
// publishes are dropped.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
	b.mu.Unlock()
	metrics.SetEventSubscribers(0)
}

// Count returns the current number of subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// MarshalEvent serializes an event to JSON.
func MarshalEvent(e Event) ([]byte, error) {
	return json.Marshal(e)
}
