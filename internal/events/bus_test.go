package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"concierge/internal/events"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := events.New()

	received := make(chan events.Event, 1)
	bus.Subscribe(events.TopicStepChanged, func(event events.Event) {
		received <- event
	})

	bus.Publish(events.Event{
		FlowID:  "flow-1",
		Topic:   events.TopicStepChanged,
		Payload: "time",
	})

	select {
	case event := <-received:
		assert.Equal(t, "flow-1", event.FlowID)
		assert.Equal(t, "time", event.Payload)
		assert.False(t, event.At.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event was never delivered")
	}
}

func TestBusTopicsAreIndependent(t *testing.T) {
	bus := events.New()

	degraded := make(chan events.Event, 1)
	bus.Subscribe(events.TopicDegraded, func(event events.Event) {
		degraded <- event
	})

	bus.Publish(events.Event{FlowID: "flow-1", Topic: events.TopicStepChanged})

	select {
	case <-degraded:
		t.Fatal("subscriber received an event from another topic")
	case <-time.After(50 * time.Millisecond):
	}

	bus.Publish(events.Event{FlowID: "flow-1", Topic: events.TopicDegraded})

	select {
	case event := <-degraded:
		assert.Equal(t, events.TopicDegraded, event.Topic)
	case <-time.After(time.Second):
		t.Fatal("event was never delivered")
	}
}

func TestBusMultipleSubscribers(t *testing.T) {
	bus := events.New()

	first := make(chan struct{}, 1)
	second := make(chan struct{}, 1)

	bus.Subscribe(events.TopicBookingConfirmed, func(events.Event) { first <- struct{}{} })
	bus.Subscribe(events.TopicBookingConfirmed, func(events.Event) { second <- struct{}{} })

	bus.Publish(events.Event{FlowID: "flow-1", Topic: events.TopicBookingConfirmed})

	for _, ch := range []chan struct{}{first, second} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("a subscriber never received the event")
		}
	}
}

func TestBusPreservesExplicitTimestamp(t *testing.T) {
	bus := events.New()

	received := make(chan events.Event, 1)
	bus.Subscribe(events.TopicStepChanged, func(event events.Event) {
		received <- event
	})

	at := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	bus.Publish(events.Event{FlowID: "flow-1", Topic: events.TopicStepChanged, At: at})

	select {
	case event := <-received:
		assert.True(t, event.At.Equal(at))
	case <-time.After(time.Second):
		t.Fatal("event was never delivered")
	}
}
