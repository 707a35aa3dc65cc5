package session

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEvent(eventType EventType) Event {
	return Event{ID: uuid.New(), Type: eventType, Time: time.Now()}
}

func TestBus_DeliveryOrder(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.Subscribe(func(e Event) { order = append(order, "first") })
	bus.Subscribe(func(e Event) { order = append(order, "second") })
	bus.Subscribe(func(e Event) { order = append(order, "third") })

	bus.Publish(makeEvent(EventLogin))

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	var got []EventType
	unsubscribe := bus.Subscribe(func(e Event) { got = append(got, e.Type) })

	bus.Publish(makeEvent(EventLogin))
	unsubscribe()
	bus.Publish(makeEvent(EventLogout))

	require.Len(t, got, 1)
	assert.Equal(t, EventLogin, got[0])

	// Unsubscribing twice must not disturb other listeners
	unsubscribe()
}

func TestBus_NoReplay(t *testing.T) {
	bus := NewBus()

	bus.Publish(makeEvent(EventLogin))

	var got []Event
	bus.Subscribe(func(e Event) { got = append(got, e) })

	assert.Empty(t, got, "events published before subscription are not replayed")
}

func TestBus_PanickingListenerIsIsolated(t *testing.T) {
	bus := NewBus()

	var delivered bool
	bus.Subscribe(func(e Event) { panic("listener bug") })
	bus.Subscribe(func(e Event) { delivered = true })

	require.NotPanics(t, func() {
		bus.Publish(makeEvent(EventAuthError))
	})

	assert.True(t, delivered, "listeners after a panicking one still run")
}

func TestBus_SubscribeDuringDelivery(t *testing.T) {
	bus := NewBus()

	var lateCalls int
	bus.Subscribe(func(e Event) {
		bus.Subscribe(func(e Event) { lateCalls++ })
	})

	bus.Publish(makeEvent(EventLogin))
	assert.Zero(t, lateCalls, "a listener added during delivery does not see that event")

	bus.Publish(makeEvent(EventLogout))
	assert.Equal(t, 1, lateCalls)
}

func TestBus_UnsubscribeDuringDelivery(t *testing.T) {
	bus := NewBus()

	var calls int
	var unsubscribe func()
	unsubscribe = bus.Subscribe(func(e Event) {
		calls++
		unsubscribe()
	})

	bus.Publish(makeEvent(EventLogin))
	bus.Publish(makeEvent(EventLogout))

	assert.Equal(t, 1, calls)
}

func TestBus_EventCarriesError(t *testing.T) {
	bus := NewBus()

	cause := errors.New("boom")
	var got Event
	bus.Subscribe(func(e Event) { got = e })

	event := makeEvent(EventAuthError)
	event.Err = cause
	bus.Publish(event)

	assert.Equal(t, EventAuthError, got.Type)
	assert.ErrorIs(t, got.Err, cause)
	assert.NotEqual(t, uuid.Nil, got.ID)
}
