package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishRunsHandlersInSubscriptionOrder(t *testing.T) {
	bus := NewEventBus()
	var calls []int
	for i := 1; i <= 5; i++ {
		n := i
		bus.Subscribe(SettingsUpdatedType, func(Event) error {
			calls = append(calls, n)
			return nil
		})
	}

	err := bus.Publish(NewEvent(context.Background(), SettingsUpdatedType, SettingsUpdated{Key: "clubName"}))

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, calls)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()
	called := 0
	unsubscribe := bus.Subscribe(HolidaysSeededType, func(Event) error {
		called++
		return nil
	})

	unsubscribe()
	require.NoError(t, bus.Publish(NewEvent(context.Background(), HolidaysSeededType, HolidaysSeeded{})))

	assert.Zero(t, called)
}

func TestSubscribeTyped(t *testing.T) {
	bus := NewEventBus()
	var received []EventsSnapshotReplaced
	SubscribeTyped(bus, EventsSnapshotReplacedType, func(e EventT[EventsSnapshotReplaced]) error {
		received = append(received, e.Data)
		return nil
	})

	// given a payload of the wrong type and one of the right type
	require.NoError(t, bus.Publish(NewEvent(context.Background(), EventsSnapshotReplacedType, "not a snapshot")))
	require.NoError(t, bus.Publish(NewEvent(context.Background(), EventsSnapshotReplacedType, EventsSnapshotReplaced{Version: 2, Count: 7})))

	// then only the typed payload reaches the handler
	assert.Equal(t, []EventsSnapshotReplaced{{Version: 2, Count: 7}}, received)
}

func TestEventBus_CollectsErrorsAndPanics(t *testing.T) {
	bus := NewEventBus()
	boom := errors.New("boom")
	reached := false
	bus.Subscribe(ExportCompletedType, func(Event) error { return boom })
	bus.Subscribe(ExportCompletedType, func(Event) error { panic("kaput") })
	bus.Subscribe(ExportCompletedType, func(Event) error {
		reached = true
		return nil
	})

	err := bus.Publish(NewEvent(context.Background(), ExportCompletedType, ExportCompleted{}))

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "kaput")
	assert.True(t, reached)
}

func TestEventBus_CancelledContext(t *testing.T) {
	bus := NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bus.Publish(NewEvent(ctx, SettingsUpdatedType, SettingsUpdated{}))

	assert.ErrorIs(t, err, context.Canceled)
}
