package dto

import (
	"concierge/internal/domains/flow"
	"concierge/shared/timezone"
	"time"
)

type CreateFlowRequest struct {
	Name  string `json:"name"  validate:"omitempty,max=100"`
	Email string `json:"email" validate:"omitempty,email,max=100"`
}

type SelectDateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type SelectTimeRequest struct {
	Time time.Time `json:"time" validate:"required"`
}

type SubmitRequest struct {
	Attendee        flow.Attendee `json:"attendee"         validate:"required"`
	Notes           string        `json:"notes"            validate:"omitempty,max=1000"`
	ServiceInterest string        `json:"service_interest" validate:"omitempty,max=200"`
}

type AttendeeResponse struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	TimeZone string `json:"time_zone"`
}

type DraftResponse struct {
	SelectedDate    string            `json:"selected_date,omitempty"`
	SelectedTime    string            `json:"selected_time,omitempty"`
	Attendee        *AttendeeResponse `json:"attendee,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	ServiceInterest string            `json:"service_interest,omitempty"`
}

type BookingResponse struct {
	ID         string `json:"id"`
	UID        string `json:"uid"`
	Status     string `json:"status"`
	Start      string `json:"start"`
	End        string `json:"end"`
	MeetingURL string `json:"meeting_url,omitempty"`
}

type FlowStateResponse struct {
	ID       string           `json:"id"`
	Step     string           `json:"step"`
	Degraded bool             `json:"degraded"`
	Message  string           `json:"message,omitempty"`
	Draft    DraftResponse    `json:"draft"`
	Booking  *BookingResponse `json:"booking,omitempty"`
}

func (r *FlowStateResponse) FromSnapshot(snap flow.Snapshot) {
	r.ID = snap.ID
	r.Step = string(snap.Step)
	r.Degraded = snap.Degraded
	r.Message = snap.Message

	r.Draft.SelectedDate = string(snap.Draft.SelectedDate)
	r.Draft.Notes = snap.Draft.Notes
	r.Draft.ServiceInterest = snap.Draft.ServiceInterest

	if snap.Draft.SelectedTime != nil {
		r.Draft.SelectedTime = snap.Draft.SelectedTime.Format(time.RFC3339)
	}

	if snap.Draft.Attendee != nil {
		r.Draft.Attendee = &AttendeeResponse{
			Name:     snap.Draft.Attendee.Name,
			Email:    snap.Draft.Attendee.Email,
			TimeZone: snap.Draft.Attendee.TimeZone,
		}
	}

	if snap.Result != nil {
		r.Booking = &BookingResponse{
			ID:         snap.Result.ID,
			UID:        snap.Result.UID,
			Status:     snap.Result.Status,
			Start:      timezone.Format(snap.Result.Start, time.RFC3339),
			End:        timezone.Format(snap.Result.End, time.RFC3339),
			MeetingURL: snap.Result.MeetingURL,
		}
	}
}

type DayResponse struct {
	Date     string   `json:"date"`
	HasSlots bool     `json:"has_slots"`
	Slots    []string `json:"slots"`
}

type MonthAvailabilityResponse struct {
	Month       string        `json:"month"`
	Degraded    bool          `json:"degraded"`
	FallbackURL string        `json:"fallback_url,omitempty"`
	Days        []DayResponse `json:"days"`
}

func (r *MonthAvailabilityResponse) FromView(month string, view flow.MonthView, fallbackURL string) {
	r.Month = month
	r.Degraded = view.Degraded

	if view.Degraded {
		r.FallbackURL = fallbackURL
	}

	r.Days = make([]DayResponse, len(view.Days))
	for i, day := range view.Days {
		slots := make([]string, len(day.Slots))
		for j, slot := range day.Slots {
			slots[j] = timezone.Format(slot, time.RFC3339)
		}

		r.Days[i] = DayResponse{
			Date:     string(day.Day),
			HasSlots: len(slots) > 0,
			Slots:    slots,
		}
	}
}
