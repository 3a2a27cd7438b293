// Package hub fans out history changes to interested subscribers.
// It knows nothing about how subscribers deliver events: each one receives
// events through a non-blocking Send.
package hub

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.klb.dev/recall/internal/history"
)

// Kind identifies what happened to the history.
type Kind string

const (
	Added   Kind = "added"
	Copied  Kind = "copied"
	Cleared Kind = "cleared"
	Cleaned Kind = "cleaned"
)

// Event describes one change to the history.
type Event struct {
	Kind Kind
	// Item is the entry added or copied. Zero for Cleared and Cleaned.
	Item history.Item
	// Removed is the number of entries dropped by Cleared or Cleaned.
	Removed int
	At      time.Time
}

// Subscriber is anything that wants to hear about history changes.
type Subscriber interface {
	ID() string
	// Send delivers an event to the subscriber. Must be non-blocking.
	Send(Event)
}

// Hub routes history events to all registered subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]Subscriber
	latest *Event
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{subs: make(map[string]Subscriber)}
}

// Register adds a subscriber and immediately delivers the latest event, if
// any.
func (h *Hub) Register(s Subscriber) {
	h.mu.Lock()
	h.subs[s.ID()] = s
	latest := h.latest
	total := len(h.subs)
	h.mu.Unlock()

	slog.Debug("subscriber registered", "subscriber", s.ID(), "total", total)

	if latest != nil {
		s.Send(*latest)
	}
}

// Unregister removes a subscriber from the hub.
func (h *Hub) Unregister(s Subscriber) {
	h.mu.Lock()
	delete(h.subs, s.ID())
	total := len(h.subs)
	h.mu.Unlock()

	slog.Debug("subscriber unregistered", "subscriber", s.ID(), "total", total)
}

// Publish records ev as the latest event and fans it out to every
// subscriber. A zero At is set to the current time.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	h.mu.Lock()
	h.latest = &ev
	targets := make([]Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	for _, s := range targets {
		s.Send(ev)
	}
}

// Latest returns the most recently published event.
func (h *Hub) Latest() (Event, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return Event{}, false
	}
	return *h.latest, true
}

// Subscribers returns the IDs of all registered subscribers, sorted.
func (h *Hub) Subscribers() []string {
	h.mu.RLock()
	out := make([]string, 0, len(h.subs))
	for id := range h.subs {
		out = append(out, id)
	}
	h.mu.RUnlock()
	slices.Sort(out)
	return out
}
