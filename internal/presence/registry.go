// Package presence tracks which users currently have a live delivery
// channel. It is the single source of truth for "is this user reachable for
// push", and it is intentionally best-effort: absence means the client falls
// back to polling history, not an error.
package presence

import "sync"

// Registry maps user IDs to their active channel. At most one channel per
// user; a new registration replaces (and closes) the previous one.
type Registry struct {
	mu       sync.Mutex
	channels map[int64]*Channel
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[int64]*Channel),
	}
}

// Register binds a channel to a user. Last-registered wins: any prior
// channel for the user is closed so its connection loop terminates.
func (r *Registry) Register(userID int64, ch *Channel) {
	r.mu.Lock()
	prev := r.channels[userID]
	r.channels[userID] = ch
	r.mu.Unlock()

	if prev != nil && prev != ch {
		prev.Close()
	}
}

// Unregister removes the user's entry only if it still is ch. A stale
// disconnect racing a fresh connection must not evict the newer channel.
func (r *Registry) Unregister(userID int64, ch *Channel) {
	r.mu.Lock()
	if r.channels[userID] == ch {
		delete(r.channels, userID)
	}
	r.mu.Unlock()
}

// Lookup returns the user's live channel, or nil if the user is offline.
func (r *Registry) Lookup(userID int64) *Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channels[userID]
}

// Online reports the number of registered users.
func (r *Registry) Online() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}
