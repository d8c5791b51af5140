package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	var calls []string
	d.Subscribe(EventOrderFailed, func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.Email)
		return boom
	})
	d.Subscribe(EventOrderFailed, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.Email)
		return nil
	})
	d.Subscribe(EventOrderConfirmed, func(context.Context, Event) error {
		calls = append(calls, "confirmed")
		return nil
	})

	err := d.Publish(context.Background(), New(EventOrderFailed, "ana@example.com", nil))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first:ana@example.com", "second:ana@example.com"}, calls)
}

func TestPublishWithoutListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), New(EventUserCreated, "ana@example.com", UserCreatedPayload{Name: "ana"})))
}
