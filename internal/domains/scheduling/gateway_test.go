package scheduling_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"concierge/config"
	"concierge/infras/otel/mocks"
	"concierge/internal/domains/availability"
	"concierge/internal/domains/scheduling"
)

func newTestGateway(baseURL string) scheduling.Gateway {
	cfg := &config.Config{}
	cfg.Provider.BaseURL = baseURL
	cfg.Provider.Token = "test-token"
	cfg.Provider.EventTypeID = 42
	cfg.Provider.EventTypeSlug = "intro-call"
	cfg.Provider.Username = "concierge"
	cfg.Provider.TimeoutSeconds = 2

	return scheduling.New(cfg, mocks.NewOtel())
}

func TestGatewayFetchAvailability(t *testing.T) {
	rangeStart := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd := time.Date(2026, 9, 3, 23, 59, 59, 0, time.UTC)

	t.Run("successful fetch fills omitted days as checked and empty", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "slots", r.URL.Query().Get("action"))
			assert.Equal(t, "intro-call", r.URL.Query().Get("eventTypeSlug"))
			assert.Equal(t, "concierge", r.URL.Query().Get("username"))
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"status": "success",
				"data": {
					"slots": {
						"2026-09-01": [{"time": "2026-09-01T09:00:00Z"}, {"time": "2026-09-01T10:00:00Z"}],
						"2026-09-02": []
					}
				}
			}`))
		}))
		defer server.Close()

		gateway := newTestGateway(server.URL)

		result, err := gateway.FetchAvailability(context.Background(), rangeStart, rangeEnd)

		assert.NoError(t, err)
		assert.Len(t, result[availability.Day("2026-09-01")], 2)
		assert.Empty(t, result[availability.Day("2026-09-02")])

		// The provider never mentioned the third day, but it was part of the
		// requested range, so it comes back checked with nothing bookable.
		slots, checked := result[availability.Day("2026-09-03")]
		assert.True(t, checked)
		assert.Empty(t, slots)
	})

	t.Run("non-2xx is unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		gateway := newTestGateway(server.URL)

		_, err := gateway.FetchAvailability(context.Background(), rangeStart, rangeEnd)

		assert.Error(t, err)
		assert.True(t, scheduling.IsUnavailable(err))
	})

	t.Run("malformed body is unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status": "success", "data": `))
		}))
		defer server.Close()

		gateway := newTestGateway(server.URL)

		_, err := gateway.FetchAvailability(context.Background(), rangeStart, rangeEnd)

		assert.Error(t, err)
		assert.True(t, scheduling.IsUnavailable(err))
	})

	t.Run("unreachable provider is unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		server.Close()

		gateway := newTestGateway(server.URL)

		_, err := gateway.FetchAvailability(context.Background(), rangeStart, rangeEnd)

		assert.Error(t, err)
		assert.True(t, scheduling.IsUnavailable(err))
	})
}

func TestGatewayCreateBooking(t *testing.T) {
	req := scheduling.BookingRequest{
		Start:           time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		Name:            "Ada",
		Email:           "ada@example.com",
		TimeZone:        "Europe/London",
		Notes:           "first visit",
		ServiceInterest: "consultation",
	}

	t.Run("successful booking", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "book", r.URL.Query().Get("action"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"status": "success",
				"data": {
					"id": 12345,
					"uid": "u1",
					"status": "ACCEPTED",
					"start": "2026-09-01T09:00:00Z",
					"end": "2026-09-01T09:30:00Z",
					"meetingUrl": "https://meet.example.com/u1"
				}
			}`))
		}))
		defer server.Close()

		gateway := newTestGateway(server.URL)

		result, err := gateway.CreateBooking(context.Background(), req)

		assert.NoError(t, err)
		assert.Equal(t, "12345", result.ID)
		assert.Equal(t, "u1", result.UID)
		assert.Equal(t, "ACCEPTED", result.Status)
		assert.Equal(t, "https://meet.example.com/u1", result.MeetingURL)
	})

	t.Run("structured rejection carries the provider message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{
				"status": "error",
				"error": {"code": "SLOT_TAKEN", "message": "Slot already booked"}
			}`))
		}))
		defer server.Close()

		gateway := newTestGateway(server.URL)

		_, err := gateway.CreateBooking(context.Background(), req)

		assert.Error(t, err)
		assert.True(t, scheduling.IsRejected(err))
		assert.Equal(t, "Slot already booked", scheduling.MessageOf(err))
	})

	t.Run("bare string rejection carries the provider message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status": "error", "error": "Attendee email is invalid"}`))
		}))
		defer server.Close()

		gateway := newTestGateway(server.URL)

		_, err := gateway.CreateBooking(context.Background(), req)

		assert.Error(t, err)
		assert.True(t, scheduling.IsRejected(err))
		assert.Equal(t, "Attendee email is invalid", scheduling.MessageOf(err))
	})

	t.Run("failure without a reason is unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"status": "error"}`))
		}))
		defer server.Close()

		gateway := newTestGateway(server.URL)

		_, err := gateway.CreateBooking(context.Background(), req)

		assert.Error(t, err)
		assert.True(t, scheduling.IsUnavailable(err))
	})

	t.Run("unreadable body is unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json at all`))
		}))
		defer server.Close()

		gateway := newTestGateway(server.URL)

		_, err := gateway.CreateBooking(context.Background(), req)

		assert.Error(t, err)
		assert.True(t, scheduling.IsUnavailable(err))
	})
}
