package lead

import (
	"concierge/infras/otel"
	"concierge/internal/domains/lead/model"
	"concierge/internal/domains/lead/service"
	"concierge/shared/constant"
	gDto "concierge/shared/dto"
	"concierge/transport/http/response"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Lead
	otel    otel.Otel
}

func New(service service.Lead, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router, apiKey func(http.Handler) http.Handler) {
	router.Route("/leads", func(routerGroup chi.Router) {
		routerGroup.Use(apiKey)
		routerGroup.Get("/", handler.GetLeads)
	})
}

// GetLeads lists the recorded CRM leads for internal consumers. It sits
// behind the API key middleware; the public booking flow never reads leads.
func (handler *Handler) GetLeads(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetLeads")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	email := r.URL.Query().Get(model.FieldEmail)
	serviceInterest := r.URL.Query().Get(model.FieldServiceInterest)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if email != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldEmail,
			Operator: gDto.FilterOperatorEq,
			Value:    email,
			Table:    model.TableName,
		})
	}

	if serviceInterest != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldServiceInterest,
			Operator: gDto.FilterOperatorEq,
			Value:    serviceInterest,
			Table:    model.TableName,
		})
	}

	leads, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get leads")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Leads retrieved successfully")

	response.WithJSON(w, http.StatusOK, leads)
}
