package flow

import (
	"concierge/internal/domains/availability"
	"concierge/internal/domains/lead/model/dto"
	"concierge/internal/domains/scheduling"
	"concierge/shared/failure"
	"concierge/shared/timezone"
	"concierge/shared/validator"
	"context"
	"time"
)

type Step string

const (
	StepDate    Step = "date"
	StepTime    Step = "time"
	StepForm    Step = "form"
	StepConfirm Step = "confirm"
)

const genericBookingError = "failed to book the appointment, please try again"

// Attendee is validated explicitly before the gateway is invoked, so the
// correctness rules live here and not in any particular presentation layer.
type Attendee struct {
	Name     string `json:"name"      validate:"required,max=100"`
	Email    string `json:"email"     validate:"required,email,max=100"`
	TimeZone string `json:"time_zone" validate:"required,timezone"`
}

func (a *Attendee) Validate() error {
	return validator.ValidateStruct(a) //nolint:wrapcheck
}

// Draft is the in-progress selection. Only step transitions mutate it;
// views never touch it directly.
type Draft struct {
	SelectedDate    availability.Day
	SelectedTime    *time.Time
	Attendee        *Attendee
	Notes           string
	ServiceInterest string
}

// LeadRecorder is the best-effort CRM side effect fired after a booking
// succeeds. Its single method returns nothing: failure there can never roll
// back or block a booking.
type LeadRecorder interface {
	Record(ctx context.Context, req dto.RecordLeadRequest)
}

// Machine drives the four-step booking flow. It is not safe for concurrent
// use; the owning orchestrator serializes access.
type Machine struct {
	step    Step
	draft   Draft
	result  *scheduling.BookingResult
	message string

	gateway scheduling.Gateway
	leads   LeadRecorder
}

func NewMachine(gateway scheduling.Gateway, leads LeadRecorder) *Machine {
	return &Machine{
		step:    StepDate,
		gateway: gateway,
		leads:   leads,
	}
}

func (m *Machine) Step() Step {
	return m.step
}

func (m *Machine) Draft() Draft {
	return m.draft
}

func (m *Machine) Result() *scheduling.BookingResult {
	return m.result
}

// Message returns the error banner for the form step, empty when there is
// none.
func (m *Machine) Message() string {
	return m.message
}

// SelectDate is valid from the date and time steps; re-selecting from the
// time view clears the chosen slot. Dates before the current day are
// rejected without any state change, re-checking what the view layer should
// already enforce.
func (m *Machine) SelectDate(day availability.Day) error {
	if m.step != StepDate && m.step != StepTime {
		return failure.Conflict("a date can only be chosen before the form is reached") //nolint:wrapcheck
	}

	if day.Before(availability.DayOf(timezone.Now())) {
		return failure.BadRequestFromString("cannot book a date in the past") //nolint:wrapcheck
	}

	m.draft.SelectedDate = day
	m.draft.SelectedTime = nil
	m.step = StepTime

	return nil
}

func (m *Machine) SelectTime(slot time.Time) error {
	if m.step != StepTime {
		return failure.Conflict("a time can only be chosen after a date") //nolint:wrapcheck
	}

	if m.draft.SelectedDate == "" {
		return failure.Conflict("no date selected") //nolint:wrapcheck
	}

	m.draft.SelectedTime = &slot
	m.step = StepForm

	return nil
}

// Submit validates the attendee, books the slot, and on success fires the
// lead side effect and moves to confirm. On any gateway failure the step
// and the draft are preserved so nothing has to be retyped.
func (m *Machine) Submit(ctx context.Context, attendee Attendee, notes, serviceInterest string) error {
	if m.step != StepForm {
		return failure.Conflict("the form can only be submitted from the form step") //nolint:wrapcheck
	}

	if m.draft.SelectedTime == nil {
		return failure.Conflict("no time selected") //nolint:wrapcheck
	}

	m.draft.Attendee = &attendee
	m.draft.Notes = notes
	m.draft.ServiceInterest = serviceInterest

	if err := attendee.Validate(); err != nil {
		return err
	}

	result, err := m.gateway.CreateBooking(ctx, scheduling.BookingRequest{
		Start:           *m.draft.SelectedTime,
		Name:            attendee.Name,
		Email:           attendee.Email,
		TimeZone:        attendee.TimeZone,
		Notes:           notes,
		ServiceInterest: serviceInterest,
	})
	if err != nil {
		if scheduling.IsRejected(err) {
			m.message = scheduling.MessageOf(err)
		} else {
			m.message = genericBookingError
		}

		return err
	}

	m.result = &result
	m.message = ""
	m.step = StepConfirm

	go func() {
		c := context.WithoutCancel(ctx)

		m.leads.Record(c, dto.RecordLeadRequest{
			Name:            attendee.Name,
			Email:           attendee.Email,
			Timezone:        attendee.TimeZone,
			Notes:           notes,
			ServiceInterest: serviceInterest,
			BookingUID:      result.UID,
			BookingStart:    result.Start,
		})
	}()

	return nil
}

// GoBack steps from time to date or from form to time, and is a no-op
// everywhere else. A confirmed booking can only be left through Reset.
func (m *Machine) GoBack() {
	switch m.step {
	case StepTime:
		m.step = StepDate
	case StepForm:
		m.step = StepTime
	case StepDate, StepConfirm:
	}
}

// Reset returns to the date step and discards the draft, any stored booking
// result, and any error banner.
func (m *Machine) Reset() {
	m.step = StepDate
	m.draft = Draft{}
	m.result = nil
	m.message = ""
}
