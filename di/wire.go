//go:build wireinject
// +build wireinject

package di

import (
	"concierge/config"
	"concierge/infras/jwt"
	"concierge/infras/kafka"
	"concierge/infras/otel"
	"concierge/infras/postgres"
	"concierge/infras/redis"
	"concierge/internal/domains/flow"
	"concierge/internal/domains/scheduling"
	"concierge/internal/events"
	flowHandler "concierge/internal/handlers/flow"
	leadHandler "concierge/internal/handlers/lead"
	"concierge/shared/cache"
	"concierge/transport/http"
	"concierge/transport/http/middleware"
	"concierge/transport/http/router"

	leadRepository "concierge/internal/domains/lead/repository"
	leadService "concierge/internal/domains/lead/service"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var leadDomain = wire.NewSet(
	leadRepository.New,
	leadService.New,
	wire.Bind(new(flow.LeadRecorder), new(leadService.Lead)),
)

var flowDomain = wire.NewSet(
	scheduling.New,
	events.New,
	flow.NewManager,
)

var domains = wire.NewSet(
	leadDomain,
	flowDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	flowHandler.New,
	leadHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}
