package jwt

import (
	"concierge/config"
	"concierge/shared/failure"
	"fmt"
	"strings"

	jwtGo "github.com/golang-jwt/jwt/v5"
)

// Claims carries the identity fields the hosting application embeds in its
// access tokens. The booking flow only reads attendee metadata from them.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwtGo.RegisteredClaims
}

type JWT interface {
	ParseAccessToken(token string) (Claims, error)
}

type jwtImpl struct {
	config *config.Config
}

func New(config *config.Config) JWT {
	return &jwtImpl{
		config: config,
	}
}

func (j *jwtImpl) ParseAccessToken(token string) (Claims, error) {
	claims := Claims{}

	parsed, err := jwtGo.ParseWithClaims(token, &claims, func(t *jwtGo.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtGo.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return []byte(j.config.JWT.AccessSecret), nil
	})

	if err != nil || !parsed.Valid {
		return Claims{}, failure.Unauthorized("invalid access token") //nolint:wrapcheck
	}

	return claims, nil
}

// ExtractTokenFromHeader strips the Bearer scheme from an Authorization
// header value.
func ExtractTokenFromHeader(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", failure.Unauthorized("invalid authorization header format") //nolint:wrapcheck
	}

	return parts[1], nil
}
