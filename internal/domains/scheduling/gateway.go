package scheduling

//go:generate go run go.uber.org/mock/mockgen -source=./gateway.go -destination=./mocks/gateway_mock.go -package=mocks

import (
	"bytes"
	"concierge/config"
	"concierge/infras/otel"
	"concierge/internal/domains/availability"
	"concierge/shared/constant"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultTimeoutSeconds = 10

	actionParam = "action"
	actionSlots = "slots"
	actionBook  = "book"
)

// BookingRequest is a single booking submission. The caller invokes
// CreateBooking at most once per user confirmation; the gateway does not
// deduplicate.
type BookingRequest struct {
	Start           time.Time
	Name            string
	Email           string
	TimeZone        string
	Notes           string
	ServiceInterest string
}

// BookingResult is the provider's confirmation. Created once, immutable.
type BookingResult struct {
	ID         string
	UID        string
	Status     string
	Start      time.Time
	End        time.Time
	MeetingURL string
}

// Gateway is the only component allowed to perform network I/O against the
// external scheduling provider. It performs no retries: a rejection or
// outage is surfaced immediately and the retry decision belongs to the
// person operating the flow.
type Gateway interface {
	FetchAvailability(ctx context.Context, rangeStart, rangeEnd time.Time) (availability.Availability, error)
	CreateBooking(ctx context.Context, req BookingRequest) (BookingResult, error)
}

type gatewayImpl struct {
	config *config.Config
	client *http.Client
	otel   otel.Otel
}

func New(config *config.Config, ot otel.Otel) Gateway {
	timeout := config.Provider.TimeoutSeconds
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds
	}

	return &gatewayImpl{
		config: config,
		client: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		otel: ot,
	}
}

// FetchAvailability requests slots for an inclusive date range. Every day in
// the range appears in the result, so days the provider omitted come back as
// checked with no availability.
func (g *gatewayImpl) FetchAvailability(ctx context.Context, rangeStart, rangeEnd time.Time) (res availability.Availability, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".FetchAvailability")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := url.Values{}
	query.Set(actionParam, actionSlots)
	query.Set("startTime", rangeStart.Format(constant.DateFormat))
	query.Set("endTime", rangeEnd.Format(constant.DateFormat))
	query.Set("eventTypeSlug", g.config.Provider.EventTypeSlug)
	query.Set("username", g.config.Provider.Username)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, g.config.Provider.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to build availability request")

		return nil, Unavailable()
	}

	g.setHeaders(request)

	response, err := g.client.Do(request)
	if err != nil {
		log.Error().Err(err).Msg("failed to reach scheduling provider for availability")

		return nil, Unavailable()
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		log.Error().Int("status", response.StatusCode).Msg("scheduling provider returned non-2xx for availability")

		return nil, Unavailable()
	}

	envelope := slotsEnvelope{}
	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil {
		log.Error().Err(err).Msg("failed to decode availability response")

		return nil, Unavailable()
	}

	if envelope.Status != statusSuccess || envelope.Data.Slots == nil {
		log.Error().Str("status", envelope.Status).Msg("availability response has no slot data")

		return nil, Unavailable()
	}

	res = availability.Availability{}

	for dateStr, entries := range envelope.Data.Slots {
		day, err := availability.ParseDay(dateStr)
		if err != nil {
			log.Error().Str("date", dateStr).Msg("availability response has malformed date key")

			return nil, Unavailable()
		}

		slots := make([]time.Time, 0, len(entries))
		for _, entry := range entries {
			slots = append(slots, entry.Time)
		}

		res[day] = slots
	}

	for cursor := rangeStart; !cursor.After(rangeEnd); cursor = cursor.AddDate(0, 0, 1) {
		day := availability.DayOf(cursor)
		if _, ok := res[day]; !ok {
			res[day] = []time.Time{}
		}
	}

	return res, nil
}

// CreateBooking submits one booking. A structured error payload from the
// provider surfaces as a rejection with its message; any other failure is
// classified unavailable.
func (g *gatewayImpl) CreateBooking(ctx context.Context, req BookingRequest) (res BookingResult, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".CreateBooking")
	defer scope.End()
	defer scope.TraceIfError(err)

	payload := bookingPayload{
		Start:           req.Start.Format(constant.DateFormat),
		EventTypeID:     g.config.Provider.EventTypeID,
		EventTypeSlug:   g.config.Provider.EventTypeSlug,
		Username:        g.config.Provider.Username,
		Attendee:        attendeePayload{Name: req.Name, Email: req.Email, TimeZone: req.TimeZone},
		Notes:           req.Notes,
		ServiceInterest: req.ServiceInterest,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal booking payload")

		return res, Unavailable()
	}

	query := url.Values{}
	query.Set(actionParam, actionBook)

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.Provider.BaseURL+"?"+query.Encode(), bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Msg("failed to build booking request")

		return res, Unavailable()
	}

	g.setHeaders(request)
	request.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)

	response, err := g.client.Do(request)
	if err != nil {
		log.Error().Err(err).Msg("failed to reach scheduling provider for booking")

		return res, Unavailable()
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		log.Error().Err(err).Msg("failed to read booking response")

		return res, Unavailable()
	}

	envelope := bookingEnvelope{}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		log.Error().Err(err).Int("status", response.StatusCode).Msg("failed to decode booking response")

		return res, Unavailable()
	}

	ok := response.StatusCode >= http.StatusOK && response.StatusCode < http.StatusMultipleChoices

	if !ok || envelope.Status != statusSuccess || envelope.Data == nil {
		if message := extractErrorMessage(envelope.Error); message != "" {
			log.Warn().Str("reason", message).Msg("scheduling provider rejected booking")

			return res, Rejected(message)
		}

		log.Error().Int("status", response.StatusCode).Msg("booking failed without a provider reason")

		return res, Unavailable()
	}

	res = BookingResult{
		ID:         envelope.Data.ID.String(),
		UID:        envelope.Data.UID,
		Status:     envelope.Data.Status,
		Start:      envelope.Data.Start,
		End:        envelope.Data.End,
		MeetingURL: envelope.Data.MeetingURL,
	}

	scope.AddEvent("Booking created with provider reference " + res.UID)

	return res, nil
}

func (g *gatewayImpl) setHeaders(request *http.Request) {
	request.Header.Set(constant.RequestHeaderAuthorization, "Bearer "+g.config.Provider.Token)
}
