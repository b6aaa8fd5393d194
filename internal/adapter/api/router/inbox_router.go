package router

import (
	"github.com/labstack/echo/v4"

	"socialmall/internal/adapter/api/handler"
	"socialmall/internal/adapter/api/middleware"
)

func SetupInboxRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	inboxHandler := handler.GetInboxHandler()

	inbox := e.Group("/v1/inbox")
	inbox.Use(authMiddleware.Authenticate)
	inbox.GET("", inboxHandler.GetInbox)
}
