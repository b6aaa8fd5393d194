package router

import (
	"github.com/labstack/echo/v4"

	"socialmall/internal/adapter/api/handler"
	"socialmall/internal/adapter/api/middleware"
)

// SetupConversationRouter registers the chat routes. Sends and creation are
// rate limited inside the use case, which knows the session.
func SetupConversationRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	chatHandler := handler.GetChatHandler()

	conversations := e.Group("/v1/conversations")
	conversations.Use(authMiddleware.Authenticate)

	conversations.POST("", chatHandler.CreateConversation)
	conversations.POST("/:id/open", chatHandler.OpenConversation)
	conversations.GET("/:id/messages", chatHandler.GetMessages)
	conversations.POST("/:id/messages", chatHandler.SendMessage)
}
