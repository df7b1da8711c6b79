package presence

import (
	"sync"

	"github.com/vellum-social/vellum-server/internal/store"
	"github.com/vellum-social/vellum-server/internal/utils"
)

// EventKind is a notification pushed to a live channel.
type EventKind int

const (
	// EventNewMessage notifies the recipient about a new direct message.
	EventNewMessage EventKind = iota
)

// Event is delivered to a user's live channel.
type Event struct {
	Kind    EventKind
	Message *store.Message
}

// Channel is one client connection's delivery queue. Sends are non-blocking;
// a slow consumer drops events rather than stalling the write path.
type Channel struct {
	id     string
	events chan Event
	done   chan struct{}
	once   sync.Once
}

// NewChannel constructs a channel with a small buffer.
func NewChannel() *Channel {
	return &Channel{
		id:     utils.NewID(),
		events: make(chan Event, 8),
		done:   make(chan struct{}),
	}
}

// ID returns the channel's unique identity.
func (c *Channel) ID() string {
	return c.id
}

// Events is the receive side consumed by the connection's write loop.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// Done is closed when the channel is no longer live.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// TrySend delivers an event without blocking. Returns false if the channel
// is closed or its buffer is full.
func (c *Channel) TrySend(ev Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- ev:
		return true
	default:
		// Drop if slow consumer.
		return false
	}
}

// Close marks the channel dead. Safe to call more than once.
func (c *Channel) Close() {
	c.once.Do(func() { close(c.done) })
}
