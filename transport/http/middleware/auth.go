package middleware

import (
	"concierge/config"
	"concierge/infras/jwt"
	"concierge/infras/otel"
	"concierge/shared/constant"
	"concierge/shared/failure"
	"concierge/transport/http/response"
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Auth carries the two authentication concerns of the service: an API key
// gate for internal endpoints, and a best-effort identity prefill for the
// public booking flow.
type Auth interface {
	APIKey(next http.Handler) http.Handler
	Identity(next http.Handler) http.Handler
}

type authImpl struct {
	jwtService jwt.JWT
	otel       otel.Otel
	cfg        *config.Config
}

func NewAuthMiddleware(jwtService jwt.JWT, otel otel.Otel, cfg *config.Config) Auth {
	return &authImpl{
		jwtService: jwtService,
		otel:       otel,
		cfg:        cfg,
	}
}

// APIKey guards internal service-to-service endpoints. Requests without the
// correct key are rejected outright.
func (m *authImpl) APIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		_, scope := m.otel.NewScope(ctx, constant.OtelHandlerScopeName, "api_key.middleware")

		apiKey := request.Header.Get(constant.RequestHeaderAPIKey)

		if apiKey == "" || apiKey != m.cfg.App.APIKey {
			err := failure.ForbiddenError

			response.WithError(writer, err)

			scope.TraceError(err)
			scope.End()

			return
		}

		scope.SetAttribute("http.source", "internal")
		scope.End()

		next.ServeHTTP(writer, request)
	})
}

// Identity reads the hosting application's access token when one is sent
// and puts the visitor's name and email on the context so the booking form
// can be prefilled. The booking flow itself is anonymous: a missing or
// invalid token never blocks the request.
func (m *authImpl) Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		_, scope := m.otel.NewScope(ctx, constant.OtelHandlerScopeName, "identity.middleware")

		authHeader := request.Header.Get(constant.RequestHeaderAuthorization)
		if authHeader == "" {
			scope.End()
			next.ServeHTTP(writer, request)

			return
		}

		tokenString, err := jwt.ExtractTokenFromHeader(authHeader)
		if err != nil {
			log.Warn().Err(err).Msg("malformed authorization header, continuing anonymously")

			scope.End()
			next.ServeHTTP(writer, request)

			return
		}

		claims, err := m.jwtService.ParseAccessToken(tokenString)
		if err != nil {
			log.Warn().Err(err).Msg("invalid access token, continuing anonymously")

			scope.End()
			next.ServeHTTP(writer, request)

			return
		}

		ctx = context.WithValue(ctx, constant.ContextKeyUserID, claims.Subject)
		ctx = context.WithValue(ctx, constant.ContextKeyUserName, claims.Name)
		ctx = context.WithValue(ctx, constant.ContextKeyUserEmail, claims.Email)

		scope.End()
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}
