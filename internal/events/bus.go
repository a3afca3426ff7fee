package events

import (
	"concierge/shared/timezone"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	TopicStepChanged      = "flow.step_changed"
	TopicDegraded         = "flow.degraded"
	TopicBookingConfirmed = "flow.booking_confirmed"
)

// Event is a notification published by a booking flow. Cross-component
// triggers go through the bus so the wiring stays visible in DI instead of
// being broadcast through a shared global.
type Event struct {
	FlowID  string
	Topic   string
	At      time.Time
	Payload any
}

type Handler func(event Event)

type Bus interface {
	Publish(event Event)
	Subscribe(topic string, handler Handler)
}

type busImpl struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// New creates a bus with the audit subscriber already attached.
func New() Bus {
	bus := &busImpl{
		handlers: map[string][]Handler{},
	}

	registerAudit(bus)

	return bus
}

func (b *busImpl) Subscribe(topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Publish dispatches asynchronously. Handlers must not be able to block or
// fail a flow transition.
func (b *busImpl) Publish(event Event) {
	if event.At.IsZero() {
		event.At = timezone.Now()
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Topic]))
	copy(handlers, b.handlers[event.Topic])
	b.mu.RUnlock()

	for _, handler := range handlers {
		go handler(event)
	}
}

func registerAudit(bus Bus) {
	audit := func(event Event) {
		log.Info().
			Str("flow_id", event.FlowID).
			Str("topic", event.Topic).
			Time("at", event.At).
			Msg("flow event")
	}

	bus.Subscribe(TopicStepChanged, audit)
	bus.Subscribe(TopicDegraded, audit)
	bus.Subscribe(TopicBookingConfirmed, audit)
}
