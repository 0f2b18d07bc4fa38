/*
Package state contains the per-browser-session application state: the signed-in
user, the memoized guild list, per-guild configuration caches, and the current
guild selection.

This file defines the change-event names and the Emitter, the observer registry
through which the rest of the application reacts to state changes. Delivery is
synchronous and follows registration order, so observers see every transition
exactly once and in a deterministic sequence.
*/
package state

import "sync"

// Change-event names emitted by the state container and its models.
const (
	// EventReady fires once, after the first session check completes
	// (successfully or not).
	EventReady = "ready"

	// EventUserSet fires whenever the cached user changes, including the
	// transition to signed-out.
	EventUserSet = "user.set"

	// EventGuildsSet fires whenever the user's guild list is (re)fetched.
	EventGuildsSet = "guilds.set"

	// EventGuildSelected fires whenever the current guild selection changes,
	// including the transition to no selection.
	EventGuildSelected = "guild.selected"

	// EventConfigSaved fires after a configuration write is accepted by the backend.
	EventConfigSaved = "config.saved"
)

// Event is one state-change notification.
type Event struct {
	// Name is one of the Event* constants above.
	Name string `json:"type"`

	// GuildID identifies the guild a guild-scoped event refers to. Empty for
	// session-wide events and for deselection.
	GuildID string `json:"guild_id,omitempty"`

	// LoggedIn accompanies EventUserSet and reports whether a user is present
	// after the change.
	LoggedIn bool `json:"logged_in,omitempty"`
}

// Emitter is a minimal synchronous observer registry. Observers receive events
// in the order they subscribed; an observer that unsubscribes stops receiving
// events immediately.
type Emitter struct {
	mu     sync.Mutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn func(Event)
}

// NewEmitter constructs an empty Emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Subscribe registers fn as an observer and returns the function that removes it.
// Observers must unsubscribe when their owner goes away, otherwise the handler
// leaks onto a dead view.
func (e *Emitter) Subscribe(fn func(Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscription{id: id, fn: fn})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		for idx, sub := range e.subs {
			if sub.id == id {
				e.subs = append(e.subs[:idx], e.subs[idx+1:]...)
				return
			}
		}
	}
}

// Emit delivers ev to every current observer, synchronously, in registration order.
// The subscriber list is snapshotted first so observers may subscribe or
// unsubscribe from within their handler without deadlocking.
func (e *Emitter) Emit(ev Event) {
	e.mu.Lock()
	snapshot := make([]subscription, len(e.subs))
	copy(snapshot, e.subs)
	e.mu.Unlock()

	for _, sub := range snapshot {
		sub.fn(ev)
	}
}

// SubscriberCount returns the number of currently registered observers.
func (e *Emitter) SubscriberCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.subs)
}
