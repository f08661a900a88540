package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/flowgate/flowgate/pkg/channels/gochannel"
	"github.com/flowgate/flowgate/pkg/eventbus"
	"github.com/flowgate/flowgate/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)
	ctx := context.Background()

	received := make(chan any, 1)

	require.NoError(t, bus.Handle(events.ExecutionFinishedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	published := events.ExecutionFinished{
		BaseEvent:  events.NewBaseEvent(events.ExecutionFinishedEvent, "ws-1", "wf-1", "exec-1"),
		Steps:      3,
		DurationMS: 120,
	}

	require.NoError(t, bus.Publish(ctx, "ws-1", published))

	select {
	case event := <-received:
		finished, ok := event.(*events.ExecutionFinished)
		require.True(t, ok)
		assert.Equal(t, "ws-1", finished.WorkspaceID)
		assert.Equal(t, "exec-1", finished.ExecutionID)
		assert.Equal(t, 3, finished.Steps)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_UnhandledTypesAreDropped(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)
	ctx := context.Background()

	received := make(chan any, 1)

	require.NoError(t, bus.Handle(events.ExecutionFailedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	started := events.ExecutionStarted{
		BaseEvent: events.NewBaseEvent(events.ExecutionStartedEvent, "ws-1", "", "exec-1"),
		NodeCount: 2,
	}

	require.NoError(t, bus.Publish(ctx, "ws-1", started))

	select {
	case <-received:
		t.Fatal("handler for a different event type should not fire")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
