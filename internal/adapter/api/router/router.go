package router

import (
	"github.com/labstack/echo/v4"

	"socialmall/internal/adapter/api/middleware"
	"socialmall/internal/infrastructure/ratelimit"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	SetupHealthRouter(e)
	SetupInboxRouter(e, authMiddleware)
	SetupConversationRouter(e, authMiddleware)
	SetupPostRouter(e, authMiddleware, limiter)
	SetupUploadRouter(e, authMiddleware, limiter)
	SetupWebSocketRouter(e, authMiddleware)
}
