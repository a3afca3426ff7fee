package flow_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"concierge/config"
	"concierge/infras/otel/mocks"
	"concierge/internal/domains/flow"
	flowDto "concierge/internal/domains/flow/dto"
	leadMocks "concierge/internal/domains/lead/mocks"
	"concierge/internal/domains/scheduling"
	schedulingMocks "concierge/internal/domains/scheduling/mocks"
	"concierge/internal/events"
	flowHandler "concierge/internal/handlers/flow"
	"concierge/shared/constant"
	"concierge/shared/timezone"
)

type flowEnvelope struct {
	Data flowDto.FlowStateResponse `json:"data"`
}

type availabilityEnvelope struct {
	Data flowDto.MonthAvailabilityResponse `json:"data"`
}

func setupHandler(t *testing.T) (*chi.Mux, *flow.Manager, *schedulingMocks.MockGateway) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockGateway := schedulingMocks.NewMockGateway(ctrl)

	cfg := &config.Config{}
	cfg.Provider.FallbackURL = "https://cal.example.com/concierge"

	manager := flow.NewManager(cfg, mockGateway, leadMocks.NewMockLeadService(ctrl), events.New())
	t.Cleanup(manager.Shutdown)

	handler := flowHandler.New(manager, cfg, mocks.NewOtel())

	router := chi.NewRouter()
	handler.Router(router)

	return router, manager, mockGateway
}

func createFlow(t *testing.T, router *chi.Mux) flowDto.FlowStateResponse {
	t.Helper()

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/flows/", nil))

	assert.Equal(t, http.StatusCreated, recorder.Code)

	envelope := flowEnvelope{}
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))

	return envelope.Data
}

func TestHandlerCreateFlow(t *testing.T) {
	router, _, _ := setupHandler(t)

	state := createFlow(t, router)

	assert.NotEmpty(t, state.ID)
	assert.Equal(t, "date", state.Step)
	assert.False(t, state.Degraded)
}

func TestHandlerGetFlowNotFound(t *testing.T) {
	router, _, _ := setupHandler(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/flows/unknown", nil))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestHandlerDegradedAvailabilityStillAnswers(t *testing.T) {
	router, _, mockGateway := setupHandler(t)

	state := createFlow(t, router)

	mockGateway.EXPECT().
		FetchAvailability(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, scheduling.Unavailable()).
		Times(1)

	month := timezone.Now().AddDate(0, 1, 0).Format(constant.MonthFormat)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/flows/"+state.ID+"/availability?month="+month, nil))

	// Degraded is an answer, not an error.
	assert.Equal(t, http.StatusOK, recorder.Code)

	envelope := availabilityEnvelope{}
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))

	assert.True(t, envelope.Data.Degraded)
	assert.Equal(t, "https://cal.example.com/concierge", envelope.Data.FallbackURL)
	assert.Empty(t, envelope.Data.Days)
}

func TestHandlerAvailabilityInvalidMonth(t *testing.T) {
	router, _, _ := setupHandler(t)

	state := createFlow(t, router)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/flows/"+state.ID+"/availability?month=soon", nil))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandlerSelectDate(t *testing.T) {
	router, _, _ := setupHandler(t)

	state := createFlow(t, router)

	day := timezone.Now().AddDate(0, 0, 7).Format(constant.DayFormat)
	body := strings.NewReader(`{"date": "` + day + `"}`)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/flows/"+state.ID+"/date", body))

	assert.Equal(t, http.StatusOK, recorder.Code)

	envelope := flowEnvelope{}
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))

	assert.Equal(t, "time", envelope.Data.Step)
	assert.Equal(t, day, envelope.Data.Draft.SelectedDate)
}

func TestHandlerSubmitFromWrongStep(t *testing.T) {
	router, _, _ := setupHandler(t)

	state := createFlow(t, router)

	body := strings.NewReader(`{"attendee": {"name": "Ada", "email": "a@b.com", "time_zone": "UTC"}}`)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/flows/"+state.ID+"/submit", body))

	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestHandlerCloseFlow(t *testing.T) {
	router, manager, _ := setupHandler(t)

	state := createFlow(t, router)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodDelete, "/flows/"+state.ID, nil))

	assert.Equal(t, http.StatusOK, recorder.Code)

	_, err := manager.Get(state.ID)
	assert.Error(t, err)
}
