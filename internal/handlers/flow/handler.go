package flow

import (
	"concierge/config"
	"concierge/infras/otel"
	"concierge/internal/domains/availability"
	"concierge/internal/domains/flow"
	"concierge/internal/domains/flow/dto"
	"concierge/shared/constant"
	"concierge/shared/validator"
	"concierge/transport/http/response"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	manager *flow.Manager
	cfg     *config.Config
	otel    otel.Otel
}

func New(manager *flow.Manager, cfg *config.Config, otel otel.Otel) Handler {
	return Handler{
		manager: manager,
		cfg:     cfg,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/flows", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateFlow)
		routerGroup.Get("/{id}", handler.GetFlow)
		routerGroup.Delete("/{id}", handler.CloseFlow)
		routerGroup.Get("/{id}/availability", handler.GetAvailability)
		routerGroup.Post("/{id}/date", handler.SelectDate)
		routerGroup.Post("/{id}/time", handler.SelectTime)
		routerGroup.Post("/{id}/submit", handler.Submit)
		routerGroup.Post("/{id}/back", handler.GoBack)
		routerGroup.Post("/{id}/reset", handler.Reset)
	})
}

// CreateFlow starts a new booking flow at the date step. When the request
// carries a valid access token the attendee fields are prefilled from its
// claims so returning visitors type less.
func (handler *Handler) CreateFlow(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateFlow")
	defer scope.End()

	orch := handler.manager.Create()

	snap := orch.Snapshot()

	name, _ := ctx.Value(constant.ContextKeyUserName).(string)
	email, _ := ctx.Value(constant.ContextKeyUserEmail).(string)

	res := dto.FlowStateResponse{}
	res.FromSnapshot(snap)

	if name != "" || email != "" {
		res.Draft.Attendee = &dto.AttendeeResponse{
			Name:  name,
			Email: email,
		}
	}

	scope.AddEvent("Booking flow created " + snap.ID)

	response.WithJSON(writer, http.StatusCreated, res)
}

func (handler *Handler) GetFlow(writer http.ResponseWriter, request *http.Request) {
	_, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetFlow")
	defer scope.End()

	orch, err := handler.manager.Get(chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking flow")

		response.WithError(writer, err)

		return
	}

	res := dto.FlowStateResponse{}
	res.FromSnapshot(orch.Snapshot())

	response.WithJSON(writer, http.StatusOK, res)
}

func (handler *Handler) CloseFlow(writer http.ResponseWriter, request *http.Request) {
	_, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CloseFlow")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	if err := handler.manager.Close(id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to close booking flow")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Booking flow closed " + id)

	response.WithMessage(writer, http.StatusOK, "Booking flow closed successfully")
}

// GetAvailability loads the requested month through the flow's orchestrator.
// A degraded flow still answers 200, with the degraded flag and the external
// fallback link set instead of live slots.
func (handler *Handler) GetAvailability(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAvailability")
	defer scope.End()

	orch, err := handler.manager.Get(chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking flow")

		response.WithError(writer, err)

		return
	}

	month := request.URL.Query().Get(constant.RequestParamMonth)

	view, err := orch.LoadMonth(ctx, month)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("month", month).Msg("failed to load month availability")

		response.WithError(writer, err)

		return
	}

	res := dto.MonthAvailabilityResponse{}
	res.FromView(month, view, handler.cfg.Provider.FallbackURL)

	response.WithJSON(writer, http.StatusOK, res)
}

func (handler *Handler) SelectDate(writer http.ResponseWriter, request *http.Request) {
	_, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SelectDate")
	defer scope.End()

	orch, err := handler.manager.Get(chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking flow")

		response.WithError(writer, err)

		return
	}

	req := dto.SelectDateRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	day, err := availability.ParseDay(req.Date)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse selected date")

		response.WithError(writer, err)

		return
	}

	if err := orch.SelectDate(day); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to select date")

		response.WithError(writer, err)

		return
	}

	res := dto.FlowStateResponse{}
	res.FromSnapshot(orch.Snapshot())

	response.WithJSON(writer, http.StatusOK, res)
}

func (handler *Handler) SelectTime(writer http.ResponseWriter, request *http.Request) {
	_, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SelectTime")
	defer scope.End()

	orch, err := handler.manager.Get(chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking flow")

		response.WithError(writer, err)

		return
	}

	req := dto.SelectTimeRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := orch.SelectTime(req.Time); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to select time")

		response.WithError(writer, err)

		return
	}

	res := dto.FlowStateResponse{}
	res.FromSnapshot(orch.Snapshot())

	response.WithJSON(writer, http.StatusOK, res)
}

// Submit books the selected slot. On a provider rejection the flow stays on
// the form step with its draft intact, and the error carries the provider's
// message so the visitor knows what to change.
func (handler *Handler) Submit(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Submit")
	defer scope.End()

	orch, err := handler.manager.Get(chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking flow")

		response.WithError(writer, err)

		return
	}

	req := dto.SubmitRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := orch.Submit(ctx, req.Attendee, req.Notes, req.ServiceInterest); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to submit booking")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Booking confirmed for flow " + orch.ID())

	res := dto.FlowStateResponse{}
	res.FromSnapshot(orch.Snapshot())

	response.WithJSON(writer, http.StatusOK, res)
}

func (handler *Handler) GoBack(writer http.ResponseWriter, request *http.Request) {
	_, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GoBack")
	defer scope.End()

	orch, err := handler.manager.Get(chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking flow")

		response.WithError(writer, err)

		return
	}

	orch.GoBack()

	res := dto.FlowStateResponse{}
	res.FromSnapshot(orch.Snapshot())

	response.WithJSON(writer, http.StatusOK, res)
}

func (handler *Handler) Reset(writer http.ResponseWriter, request *http.Request) {
	_, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Reset")
	defer scope.End()

	orch, err := handler.manager.Get(chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking flow")

		response.WithError(writer, err)

		return
	}

	orch.Reset()

	res := dto.FlowStateResponse{}
	res.FromSnapshot(orch.Snapshot())

	response.WithJSON(writer, http.StatusOK, res)
}
