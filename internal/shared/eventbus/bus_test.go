package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = RetryPolicy{MaxRetries: 2, Delay: time.Millisecond}

func TestEventBus_SubscribePublish(t *testing.T) {
	bus := NewEventBus(nil)
	var got Event
	bus.Subscribe("capture", func(ctx context.Context, event Event) error {
		got = event
		return nil
	}, EventTypeDocumentCreated)

	err := bus.Publish(context.Background(), NewEvent(EventTypeDocumentCreated, "users/alice", "test"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "users/alice", got.Data())
	assert.Equal(t, "test", got.Source())

	got = nil
	require.NoError(t, bus.Publish(context.Background(), NewEvent(EventTypeDocumentDeleted, nil, "test")))
	assert.Nil(t, got)
}

func TestEventBus_PublishWithoutHandlers(t *testing.T) {
	bus := NewEventBus(nil)
	assert.NoError(t, bus.Publish(context.Background(), NewEvent("nobody.listens", nil, "test")))
}

func TestEventBus_RetriesThenSucceeds(t *testing.T) {
	bus := NewEventBusWithRetry(nil, fastRetry)
	var calls int32
	bus.Subscribe("flaky", func(ctx context.Context, event Event) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, EventTypeDocumentDeleted)

	require.NoError(t, bus.Publish(context.Background(), NewEvent(EventTypeDocumentDeleted, nil, "test")))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestEventBus_FailureDoesNotStopOtherSubscribers(t *testing.T) {
	bus := NewEventBusWithRetry(nil, fastRetry)
	permanent := errors.New("permanent")
	var delivered int32
	bus.Subscribe("broken", func(ctx context.Context, event Event) error {
		return permanent
	}, EventTypeDocumentDeleted)
	bus.Subscribe("healthy", func(ctx context.Context, event Event) error {
		atomic.AddInt32(&delivered, 1)
		return nil
	}, EventTypeDocumentDeleted)

	err := bus.Publish(context.Background(), NewEvent(EventTypeDocumentDeleted, nil, "test"))
	require.Error(t, err)
	assert.ErrorIs(t, err, permanent)
	assert.Contains(t, err.Error(), "broken failed after 3 attempts")
	assert.Equal(t, int32(1), atomic.LoadInt32(&delivered))
}

func TestEventBus_CancelledContextStopsRetries(t *testing.T) {
	bus := NewEventBusWithRetry(nil, RetryPolicy{MaxRetries: 5, Delay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	bus.Subscribe("cancel", func(ctx context.Context, event Event) error {
		cancel()
		return errors.New("boom")
	}, EventTypeDocumentUpdated)

	err := bus.Publish(ctx, NewEvent(EventTypeDocumentUpdated, nil, "test"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEventBus_SubscribersAndReplace(t *testing.T) {
	bus := NewEventBus(nil)
	noop := func(ctx context.Context, event Event) error { return nil }
	bus.Subscribe("realtime", noop, DocumentEventTypes...)
	bus.Subscribe("recorder", noop, EventTypeDocumentCreated)
	bus.Subscribe("recorder", noop, EventTypeDocumentDeleted)

	assert.Equal(t, []string{"realtime"}, bus.Subscribers(EventTypeDocumentCreated))
	assert.Equal(t, []string{"realtime", "recorder"}, bus.Subscribers(EventTypeDocumentDeleted))

	bus.Unsubscribe("realtime")
	assert.Empty(t, bus.Subscribers(EventTypeCollectionDeleted))
	assert.Equal(t, []string{"recorder"}, bus.Subscribers(EventTypeDocumentDeleted))
}
