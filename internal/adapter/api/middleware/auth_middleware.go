package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/normalize"
	"socialmall/internal/domain/raw"
	"socialmall/pkg/errors"
	"socialmall/pkg/logger"
	"socialmall/pkg/response"
)

const (
	ContextUserID = "uid"
	contextMe     = "me"
)

// TokenVerifier returns the subject of a valid token in whatever shape the
// issuer put it: a bare id, a boxed id or an object.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (interface{}, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return m.authenticate(next, false)
}

// AuthenticateWebSocket also accepts the token as a ?token= query
// parameter, since browsers cannot set headers on a websocket handshake.
func (m *AuthMiddleware) AuthenticateWebSocket(next echo.HandlerFunc) echo.HandlerFunc {
	return m.authenticate(next, true)
}

func (m *AuthMiddleware) authenticate(next echo.HandlerFunc, allowQuery bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := bearerToken(c.Request().Header.Get("Authorization"))
		if err != nil && allowQuery && c.QueryParam("token") != "" {
			token, err = c.QueryParam("token"), nil
		}
		if err != nil {
			return response.Error(c, err)
		}

		subject, err := m.verifier.VerifyToken(c.Request().Context(), token)
		if err != nil {
			logger.Debug("Token rejected: %v", err)
			return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
		}

		me := normalize.ResolveID(raw.From(subject))
		if !me.Resolved() {
			logger.Warn("Token subject %v does not carry a usable user id", subject)
			return response.Error(c, errors.Unauthorized("Token does not identify a user", nil))
		}

		c.Set(ContextUserID, me.String())
		c.Set(contextMe, me)
		return next(c)
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.Unauthorized("Authorization header is required", nil)
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.Unauthorized("Invalid authorization format", nil)
	}
	return parts[1], nil
}

// CurrentUser returns the authenticated user, or the unresolved id outside
// an authenticated route.
func CurrentUser(c echo.Context) entity.ID {
	if me, ok := c.Get(contextMe).(entity.ID); ok {
		return me
	}
	return entity.UnresolvedID
}
