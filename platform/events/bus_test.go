package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinged struct{ BaseEvent }

func (pinged) EventName() string { return "test.pinged" }

func TestPublishSyncJoinsHandlerErrors(t *testing.T) {
	bus := NewInMemoryBus(nil)
	boom := errors.New("boom")
	var calls int32

	bus.Subscribe("test.pinged", HandlerFunc(func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return boom
	}))
	bus.Subscribe("test.pinged", HandlerFunc(func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))

	event := pinged{BaseEvent: NewBaseEvent()}
	err := bus.PublishSync(context.Background(), event)
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, event.ID().String())
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestPublishDetachesFromCancelledContext(t *testing.T) {
	bus := NewInMemoryBus(nil)
	seen := make(chan error, 1)

	bus.Subscribe("test.pinged", HandlerFunc(func(ctx context.Context, _ Event) error {
		seen <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, pinged{BaseEvent: NewBaseEvent()})
	bus.Wait()

	select {
	case err := <-seen:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewInMemoryBus(nil)
	bus.Publish(context.Background(), pinged{BaseEvent: NewBaseEvent()})
	require.NoError(t, bus.PublishSync(context.Background(), pinged{BaseEvent: NewBaseEvent()}))
}

func TestNewBaseEventIDsAreUnique(t *testing.T) {
	a, b := NewBaseEvent(), NewBaseEvent()
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, time.UTC, a.OccurredAt().Location())
}
