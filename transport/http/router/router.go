package router

import (
	"concierge/internal/handlers/flow"
	"concierge/internal/handlers/lead"
	"concierge/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Flow flow.Handler
	Lead lead.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	Auth           middleware.Auth
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		routerGroup.Group(func(public chi.Router) {
			public.Use(r.Auth.Identity)
			r.DomainHandlers.Flow.Router(public)
		})

		r.DomainHandlers.Lead.Router(routerGroup, r.Auth.APIKey)
	})
}

func New(domainHandlers DomainHandlers, auth middleware.Auth) Router {
	return Router{
		DomainHandlers: domainHandlers,
		Auth:           auth,
	}
}
