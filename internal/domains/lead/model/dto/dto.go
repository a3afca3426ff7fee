package dto

import (
	"concierge/internal/domains/lead/model"
	"concierge/shared"
	"concierge/shared/constant"
	gDto "concierge/shared/dto"
	gModel "concierge/shared/model"
	"concierge/shared/timezone"
	"time"

	"github.com/google/uuid"
)

const sourceBookingFlow = "booking_flow"

type RecordLeadRequest struct {
	Name            string    `json:"name"             validate:"required,max=100"`
	Email           string    `json:"email"            validate:"required,email,max=100"`
	Timezone        string    `json:"timezone"         validate:"omitempty,max=64"`
	Notes           string    `json:"notes"            validate:"omitempty,max=1000"`
	ServiceInterest string    `json:"service_interest" validate:"omitempty,max=200"`
	BookingUID      string    `json:"booking_uid"      validate:"omitempty,max=100"`
	BookingStart    time.Time `json:"booking_start"`
}

func (r *RecordLeadRequest) ToModel() model.Lead {
	return model.Lead{
		ID:              uuid.NewString(),
		Name:            r.Name,
		Email:           r.Email,
		Timezone:        r.Timezone,
		Notes:           r.Notes,
		ServiceInterest: r.ServiceInterest,
		BookingUID:      r.BookingUID,
		BookingStart:    r.BookingStart,
		Source:          sourceBookingFlow,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  sourceBookingFlow,
			ModifiedBy: sourceBookingFlow,
		},
	}
}

type LeadResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Timezone        string `json:"timezone"`
	Notes           string `json:"notes"`
	ServiceInterest string `json:"service_interest"`
	BookingUID      string `json:"booking_uid"`
	BookingStart    string `json:"booking_start"`
	Source          string `json:"source"`
	gDto.Metadata
}

func (r *LeadResponse) FromModel(model model.Lead) {
	r.ID = model.ID
	r.Name = model.Name
	r.Email = model.Email
	r.Timezone = model.Timezone
	r.Notes = model.Notes
	r.ServiceInterest = model.ServiceInterest
	r.BookingUID = model.BookingUID
	r.BookingStart = timezone.Format(model.BookingStart, constant.DateFormat)
	r.Source = model.Source
	r.Metadata.FromModel(model.Metadata)
}

type GetLeadsResponse struct {
	Leads     []LeadResponse `json:"leads"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetLeadsResponse) FromModels(models []model.Lead, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Leads = make([]LeadResponse, len(models))
	for i, mod := range models {
		r.Leads[i].FromModel(mod)
	}
}
