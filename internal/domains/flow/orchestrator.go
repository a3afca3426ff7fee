package flow

import (
	"concierge/internal/domains/availability"
	"concierge/internal/domains/scheduling"
	"concierge/internal/events"
	"concierge/shared/constant"
	"concierge/shared/failure"
	"concierge/shared/timezone"
	"context"
	"sync"
	"time"
)

// DayView is one calendar day as the date picker sees it.
type DayView struct {
	Day   availability.Day
	Slots []time.Time
}

// MonthView is the availability answer for one visible month. When the flow
// is degraded no live data is returned and the view is expected to fall
// back to the external booking link.
type MonthView struct {
	Degraded bool
	Days     []DayView
}

// Snapshot is a read-only copy of the flow state for rendering.
type Snapshot struct {
	ID       string
	Step     Step
	Draft    Draft
	Result   *scheduling.BookingResult
	Message  string
	Degraded bool
}

// Orchestrator owns one booking widget's machine and availability cache and
// is the only place that triggers gateway fetches. It holds no booking
// rules itself. All state is instance scoped: a second widget never
// inherits this one's cache or degraded flag.
type Orchestrator struct {
	mu sync.Mutex

	id       string
	machine  *Machine
	cache    *availability.Cache
	gateway  scheduling.Gateway
	bus      events.Bus
	degraded bool
	closed   bool
	fetchSeq uint64
	lastSeen time.Time
}

func newOrchestrator(id string, gateway scheduling.Gateway, leads LeadRecorder, bus events.Bus) *Orchestrator {
	return &Orchestrator{
		id:       id,
		machine:  NewMachine(gateway, leads),
		cache:    availability.NewCache(),
		gateway:  gateway,
		bus:      bus,
		lastSeen: timezone.Now(),
	}
}

func (o *Orchestrator) ID() string {
	return o.id
}

// LoadMonth fetches availability for the visible month and feeds it into
// the cache. Once the flow is degraded every further navigation is a no-op:
// a single unavailable fetch is treated as evidence the integration is
// broken for the whole session, not as a transient blip.
func (o *Orchestrator) LoadMonth(ctx context.Context, month string) (MonthView, error) {
	o.mu.Lock()

	if o.closed {
		o.mu.Unlock()

		return MonthView{}, failure.NotFound("booking flow not found") //nolint:wrapcheck
	}

	o.lastSeen = timezone.Now()

	start, end, err := monthRange(month)
	if err != nil {
		o.mu.Unlock()

		return MonthView{}, err
	}

	if o.degraded {
		view := o.buildMonthView(start, end)
		o.mu.Unlock()

		return view, nil
	}

	o.fetchSeq++
	seq := o.fetchSeq
	o.mu.Unlock()

	fetched, fetchErr := o.gateway.FetchAvailability(ctx, start, end)

	o.mu.Lock()
	defer o.mu.Unlock()

	// A flow that was closed while the request was in flight no longer
	// exists; late results must not be applied to it.
	if o.closed {
		return MonthView{}, failure.NotFound("booking flow not found") //nolint:wrapcheck
	}

	// Stale responses from rapid back-and-forth navigation are discarded:
	// only the latest issued fetch may update the cache.
	if seq != o.fetchSeq {
		return o.buildMonthView(start, end), nil
	}

	if fetchErr != nil {
		if scheduling.IsUnavailable(fetchErr) && !o.degraded {
			o.degraded = true
			o.bus.Publish(events.Event{FlowID: o.id, Topic: events.TopicDegraded})
		}

		return o.buildMonthView(start, end), nil
	}

	o.cache.Upsert(fetched)

	return o.buildMonthView(start, end), nil
}

func (o *Orchestrator) buildMonthView(start, end time.Time) MonthView {
	view := MonthView{
		Degraded: o.degraded,
	}

	loc := timezone.GetLocation()

	for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 0, 1) {
		day := availability.DayOf(cursor)

		if !o.cache.Checked(day) {
			continue
		}

		view.Days = append(view.Days, DayView{
			Day:   day,
			Slots: availability.DisplayOrder(o.cache.SlotsFor(day), loc),
		})
	}

	return view
}

// SlotsFor answers from the cache only, in display order. It never fetches.
func (o *Orchestrator) SlotsFor(day availability.Day) []time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()

	return availability.DisplayOrder(o.cache.SlotsFor(day), timezone.GetLocation())
}

func (o *Orchestrator) HasAvailability(day availability.Day) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.cache.HasAvailability(day)
}

func (o *Orchestrator) SelectDate(day availability.Day) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return failure.NotFound("booking flow not found") //nolint:wrapcheck
	}

	o.lastSeen = timezone.Now()

	if err := o.machine.SelectDate(day); err != nil {
		return err
	}

	o.publishStep()

	return nil
}

func (o *Orchestrator) SelectTime(slot time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return failure.NotFound("booking flow not found") //nolint:wrapcheck
	}

	o.lastSeen = timezone.Now()

	if err := o.machine.SelectTime(slot); err != nil {
		return err
	}

	o.publishStep()

	return nil
}

func (o *Orchestrator) Submit(ctx context.Context, attendee Attendee, notes, serviceInterest string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return failure.NotFound("booking flow not found") //nolint:wrapcheck
	}

	o.lastSeen = timezone.Now()

	if err := o.machine.Submit(ctx, attendee, notes, serviceInterest); err != nil {
		return err
	}

	o.publishStep()
	o.bus.Publish(events.Event{
		FlowID:  o.id,
		Topic:   events.TopicBookingConfirmed,
		Payload: o.machine.Result().UID,
	})

	return nil
}

func (o *Orchestrator) GoBack() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	o.lastSeen = timezone.Now()

	before := o.machine.Step()
	o.machine.GoBack()

	if o.machine.Step() != before {
		o.publishStep()
	}
}

func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	o.lastSeen = timezone.Now()

	o.machine.Reset()
	o.publishStep()
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	return Snapshot{
		ID:       o.id,
		Step:     o.machine.Step(),
		Draft:    o.machine.Draft(),
		Result:   o.machine.Result(),
		Message:  o.machine.Message(),
		Degraded: o.degraded,
	}
}

func (o *Orchestrator) Degraded() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.degraded
}

func (o *Orchestrator) close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.closed = true
}

func (o *Orchestrator) idleSince() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.lastSeen
}

func (o *Orchestrator) publishStep() {
	o.bus.Publish(events.Event{
		FlowID:  o.id,
		Topic:   events.TopicStepChanged,
		Payload: string(o.machine.Step()),
	})
}

// monthRange expands YYYY-MM into an inclusive range from the first day to
// the end of the last day, in the application timezone.
func monthRange(month string) (time.Time, time.Time, error) {
	parsed, err := time.ParseInLocation(constant.MonthFormat, month, timezone.GetLocation())
	if err != nil {
		return time.Time{}, time.Time{}, failure.BadRequestFromString("invalid month, expected YYYY-MM") //nolint:wrapcheck
	}

	start := parsed
	end := parsed.AddDate(0, 1, 0).Add(-time.Second)

	return start, end, nil
}
