package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"pizzeria/internal/core/domain/model/identity"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const actorContextKey = "pizzeria.actor"

// Authenticator resolves the bearer token of a request to an Actor. Tokens are
// HS256-signed; the subject is a user id, the email claim is the fallback.
type Authenticator struct {
	secret    []byte
	directory ports.UserDirectory
	parser    *jwt.Parser
}

func NewAuthenticator(secret []byte, directory ports.UserDirectory) *Authenticator {
	return &Authenticator{
		secret:    secret,
		directory: directory,
		parser:    jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Middleware rejects unauthenticated requests and stores the actor on the context.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "bearer token missing")
			}

			actor, err := a.Authenticate(c, raw)
			if err != nil {
				return err
			}

			c.Set(actorContextKey, actor)
			return next(c)
		}
	}
}

// Authenticate verifies the token and looks the principal up in the user directory.
func (a *Authenticator) Authenticate(c echo.Context, raw string) (identity.Actor, error) {
	claims := jwt.MapClaims{}
	if _, err := a.parser.ParseWithClaims(raw, claims, a.key); err != nil {
		return identity.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "token verification failed")
	}

	ctx := c.Request().Context()
	var (
		actor identity.Actor
		err   error
	)
	if subject, _ := claims["sub"].(string); subject != "" {
		id, parseErr := kernel.UUIDFromString(subject)
		if parseErr != nil {
			return identity.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "token subject is not a user id")
		}
		actor, err = a.directory.FindByID(ctx, id)
	} else if email, _ := claims["email"].(string); email != "" {
		actor, err = a.directory.FindByEmail(ctx, email)
	} else {
		return identity.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "token names no principal")
	}

	if errors.Is(err, errs.ErrObjectNotFound) {
		return identity.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "unknown principal")
	}
	return actor, err
}

func (a *Authenticator) key(*jwt.Token) (any, error) {
	return a.secret, nil
}

// IssueToken signs a token for actor. Used by tooling and tests.
func IssueToken(secret []byte, actor identity.Actor, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   actor.ID().String(),
		"email": actor.Email(),
		"role":  actor.Role().String(),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ActorFrom returns the principal stored by Authenticator.Middleware.
func ActorFrom(c echo.Context) (identity.Actor, error) {
	actor, ok := c.Get(actorContextKey).(identity.Actor)
	if !ok {
		return identity.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return actor, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
