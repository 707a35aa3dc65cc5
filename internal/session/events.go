package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/openlearn/courseware/internal/models"
)

// EventType classifies session lifecycle events.
type EventType string

const (
	EventLogin           EventType = "LOGIN"
	EventLogout          EventType = "LOGOUT"
	EventTokenRefreshed  EventType = "TOKEN_REFRESHED"
	EventAuthError       EventType = "AUTH_ERROR"
	EventSessionRestored EventType = "SESSION_RESTORED"
)

// Event is an immutable notification published once per corresponding
// session transition. By the time a listener receives it, the new state
// is already visible through Store.Snapshot.
type Event struct {
	ID   uuid.UUID
	Type EventType
	Time time.Time

	// User is set for LOGIN, TOKEN_REFRESHED and authenticated
	// SESSION_RESTORED events.
	User *models.User

	// Err is set for AUTH_ERROR events.
	Err error
}

// Listener receives published events. Listeners are invoked synchronously
// in subscription order; a panicking listener is isolated and logged.
type Listener func(Event)

type busEntry struct {
	id int
	fn Listener
}

// Bus is an in-process publish/subscribe channel for session events.
// There is no buffering: events published before a listener subscribes
// are not replayed.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	listeners []busEntry
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a listener and returns its unsubscribe function.
// A listener subscribed while an event is being delivered does not
// receive that event.
func (b *Bus) Subscribe(fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.listeners = append(b.listeners, busEntry{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, entry := range b.listeners {
			if entry.id == id {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the event to a snapshot of the current listeners.
// It never panics, no matter what a listener does.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	snapshot := make([]busEntry, len(b.listeners))
	copy(snapshot, b.listeners)
	b.mu.Unlock()

	for _, entry := range snapshot {
		deliver(entry.fn, event)
	}
}

func deliver(fn Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().
				Interface("panic", r).
				Str("event_type", string(event.Type)).
				Msg("session event listener panicked")
		}
	}()
	fn(event)
}
