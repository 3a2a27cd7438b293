package hub

import (
	"log/slog"
	"sync"
)

// Chan is a Subscriber that buffers events on a channel. Events arriving
// while the buffer is full are dropped.
type Chan struct {
	id string
	ch chan Event

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewChan returns a channel subscriber with room for size pending events.
func NewChan(id string, size int) *Chan {
	if size < 1 {
		size = 1
	}
	return &Chan{id: id, ch: make(chan Event, size)}
}

func (c *Chan) ID() string { return c.id }

// Send implements Subscriber.
func (c *Chan) Send(ev Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.ch <- ev:
	default:
		slog.Warn("subscriber channel full, dropping", "subscriber", c.id, "event", ev.Kind)
	}
}

// Events returns the channel events are delivered on. It is closed by Close.
func (c *Chan) Events() <-chan Event { return c.ch }

// Close stops delivery and closes the events channel.
func (c *Chan) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.ch)
		c.mu.Unlock()
	})
}
