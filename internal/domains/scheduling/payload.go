package scheduling

import (
	"encoding/json"
	"time"
)

const statusSuccess = "success"

type slotEntry struct {
	Time time.Time `json:"time"`
}

type slotsEnvelope struct {
	Status string `json:"status"`
	Data   struct {
		Slots map[string][]slotEntry `json:"slots"`
	} `json:"data"`
}

type attendeePayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	TimeZone string `json:"timeZone"`
}

type bookingPayload struct {
	Start           string          `json:"start"`
	EventTypeID     int             `json:"eventTypeId,omitempty"`
	EventTypeSlug   string          `json:"eventTypeSlug,omitempty"`
	Username        string          `json:"username,omitempty"`
	Attendee        attendeePayload `json:"attendee"`
	Notes           string          `json:"notes,omitempty"`
	ServiceInterest string          `json:"serviceInterest,omitempty"`
}

type bookingData struct {
	ID         json.Number `json:"id"`
	UID        string      `json:"uid"`
	Status     string      `json:"status"`
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	MeetingURL string      `json:"meetingUrl"`
}

type bookingEnvelope struct {
	Status string          `json:"status"`
	Data   *bookingData    `json:"data"`
	Error  json.RawMessage `json:"error"`
}

type structuredError struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

// extractErrorMessage accepts both error shapes the provider emits: a bare
// string and a structured object with a message field.
func extractErrorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var bare string
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare
	}

	var structured structuredError
	if err := json.Unmarshal(raw, &structured); err == nil && structured.Message != "" {
		return structured.Message
	}

	return ""
}
