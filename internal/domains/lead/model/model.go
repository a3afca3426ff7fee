package model

import (
	"concierge/shared/model"
	"time"
)

const (
	TableName  = "leads"
	EntityName = "lead"

	FieldID              = "id"
	FieldName            = "name"
	FieldEmail           = "email"
	FieldTimezone        = "timezone"
	FieldNotes           = "notes"
	FieldServiceInterest = "service_interest"
	FieldBookingUID      = "booking_uid"
	FieldBookingStart    = "booking_start"
	FieldSource          = "source"
)

type Lead struct {
	ID              string    `db:"id"`
	Name            string    `db:"name"`
	Email           string    `db:"email"`
	Timezone        string    `db:"timezone"`
	Notes           string    `db:"notes"`
	ServiceInterest string    `db:"service_interest"`
	BookingUID      string    `db:"booking_uid"`
	BookingStart    time.Time `db:"booking_start"`
	Source          string    `db:"source"`
	model.Metadata
}
