package messaging

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emma-hub/emma-backend/internal/domain/shared"
)

func syncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = false
	return NewInMemoryEventBus(cfg)
}

func TestEventBus_SubscribeAndPublish(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var received []shared.Event
	err := bus.Subscribe(shared.EventParticipantRegistered, func(e shared.Event) error {
		received = append(received, e)
		return nil
	})
	require.NoError(t, err)

	event := shared.NewParticipantRegisteredEvent("p-1", "one@example.com", "Dana", "11")
	require.NoError(t, bus.Publish(event))

	require.Len(t, received, 1)
	assert.Equal(t, shared.EventParticipantRegistered, received[0].EventType())
}

func TestEventBus_TypeFiltering(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var registered, updated int
	require.NoError(t, bus.Subscribe(shared.EventParticipantRegistered, func(shared.Event) error {
		registered++
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventParticipantUpdated, func(shared.Event) error {
		updated++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewParticipantRegisteredEvent("p-1", "one@example.com", "Dana", "11")))
	require.NoError(t, bus.Publish(shared.NewParticipantUpdatedEvent("p-1", "one@example.com")))
	require.NoError(t, bus.Publish(shared.NewParticipantUpdatedEvent("p-1", "one@example.com")))

	assert.Equal(t, 1, registered)
	assert.Equal(t, 2, updated)
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var seen int
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		seen++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewParticipantRegisteredEvent("p-1", "one@example.com", "Dana", "11")))
	require.NoError(t, bus.Publish(shared.NewParticipantUpdatedEvent("p-1", "one@example.com")))

	assert.Equal(t, 2, seen)
}

func TestEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var called bool
	require.NoError(t, bus.Subscribe(shared.EventParticipantRegistered, func(shared.Event) error {
		return errors.New("handler boom")
	}))
	require.NoError(t, bus.Subscribe(shared.EventParticipantRegistered, func(shared.Event) error {
		called = true
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewParticipantRegisteredEvent("p-1", "one@example.com", "Dana", "11")))
	assert.True(t, called)
}

func TestEventBus_AsyncDelivery(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = true
	cfg.WorkerPoolSize = 2
	bus := NewInMemoryEventBus(cfg)

	var (
		mu    sync.Mutex
		count int
	)
	require.NoError(t, bus.Subscribe(shared.EventParticipantRegistered, func(shared.Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(shared.NewParticipantRegisteredEvent("p-1", "one@example.com", "Dana", "11")))
	}

	// Close waits for in-flight handlers.
	require.NoError(t, bus.Close())
	assert.Equal(t, 5, count)
}

func TestEventBus_ClosedRejectsPublish(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewParticipantRegisteredEvent("p-1", "one@example.com", "Dana", "11"))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventParticipantRegistered, func(shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestEventBus_Metrics(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	require.NoError(t, bus.Subscribe(shared.EventParticipantRegistered, func(shared.Event) error {
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventParticipantRegistered, func(shared.Event) error {
		return errors.New("handler boom")
	}))

	require.NoError(t, bus.Publish(shared.NewParticipantRegisteredEvent("p-1", "one@example.com", "Dana", "11")))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalPublished)
	assert.Equal(t, int64(2), snap.TotalHandlerExecs)
	assert.InDelta(t, 0.5, snap.HandlerSuccessRate, 1e-9)
}
