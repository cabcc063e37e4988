package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
)

type pingEvent struct {
	BaseEvent
}

func (pingEvent) EventName() string { return "test.ping" }

func TestPublishRunsAllHandlers(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var calls atomic.Int32

	for i := 0; i < 3; i++ {
		bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, event Event) error {
			calls.Add(1)
			return nil
		}))
	}

	bus.Publish(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	bus.Wait()

	if calls.Load() != 3 {
		t.Fatalf("expected 3 handler calls, got %d", calls.Load())
	}
}

func TestPublishSurvivesCanceledContextAndPanics(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var sawCanceled atomic.Bool

	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, event Event) error {
		panic("boom")
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, event Event) error {
		sawCanceled.Store(ctx.Err() != nil)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, pingEvent{BaseEvent: NewBaseEvent()})
	bus.Wait()

	if sawCanceled.Load() {
		t.Fatal("async handlers must not observe the publisher's cancellation")
	}
}

func TestPublishSyncJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(nil)
	errA := errors.New("a failed")

	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, event Event) error { return errA }))
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, event Event) error { return nil }))

	err := bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, errA) {
		t.Fatalf("expected joined error to contain errA, got %v", err)
	}

	if err := bus.PublishSync(context.Background(), pingEvent{}); !errors.Is(err, errA) {
		t.Fatalf("expected errA again, got %v", err)
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewInMemoryBus(nil)
	bus.Publish(context.Background(), pingEvent{})
	if err := bus.PublishSync(context.Background(), pingEvent{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type pongEvent struct {
	BaseEvent
}

func (pongEvent) EventName() string { return "test.pong" }

func TestSubscribeAllRegistersEveryName(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var calls atomic.Int32
	SubscribeAll(bus, HandlerFunc(func(ctx context.Context, event Event) error {
		calls.Add(1)
		return nil
	}), "test.ping", "test.pong")

	_ = bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	_ = bus.PublishSync(context.Background(), pongEvent{BaseEvent: NewBaseEvent()})

	if calls.Load() != 2 {
		t.Fatalf("expected both events handled, got %d", calls.Load())
	}
}

func TestIDOfKeepsStampedID(t *testing.T) {
	stamped := pingEvent{BaseEvent: NewBaseEvent()}
	if IDOf(stamped) != stamped.ID {
		t.Fatal("expected the stamped id")
	}

	bare := pingEvent{}
	first, second := IDOf(bare), IDOf(bare)
	if first == uuid.Nil || first == second {
		t.Fatalf("expected fresh ids for an unstamped event, got %s and %s", first, second)
	}
}
