package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishNotifiesInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var calls []string
	bus.Subscribe(func(ctx context.Context) { calls = append(calls, "first") })
	bus.Subscribe(func(ctx context.Context) { calls = append(calls, "second") })
	bus.Subscribe(func(ctx context.Context) { calls = append(calls, "third") })

	bus.Publish(ctx)

	assert.Equal(t, []string{"first", "second", "third"}, calls)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	count := 0
	unsubscribe := bus.Subscribe(func(ctx context.Context) { count++ })

	bus.Publish(ctx)
	unsubscribe()
	unsubscribe()
	bus.Publish(ctx)

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, bus.Len())
}

func TestBus_PublishWithoutListeners(t *testing.T) {
	bus := NewBus()

	assert.NotPanics(t, func() { bus.Publish(context.Background()) })
}

func TestBus_ListenerMayUnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	count := 0
	var unsubscribe func()
	unsubscribe = bus.Subscribe(func(ctx context.Context) {
		count++
		unsubscribe()
	})

	bus.Publish(ctx)
	bus.Publish(ctx)

	assert.Equal(t, 1, count)
}
