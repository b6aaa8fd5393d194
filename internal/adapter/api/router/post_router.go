package router

import (
	"github.com/labstack/echo/v4"

	"socialmall/internal/adapter/api/handler"
	"socialmall/internal/adapter/api/middleware"
	"socialmall/internal/infrastructure/ratelimit"
)

func SetupPostRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	threadHandler := handler.GetThreadHandler()

	posts := e.Group("/v1/posts")
	posts.Use(authMiddleware.Authenticate)

	posts.GET("/:id", threadHandler.GetPost)
	posts.POST("/:id/comments", threadHandler.AddComment, middleware.RateLimit(limiter, ratelimit.ActionComment))
	posts.DELETE("/:id/comments/:commentId", threadHandler.DeleteComment)
	posts.POST("/:id/like", threadHandler.ToggleLike, middleware.RateLimit(limiter, ratelimit.ActionLike))
	posts.POST("/:id/comments/:commentId/like", threadHandler.ToggleCommentLike, middleware.RateLimit(limiter, ratelimit.ActionLike))

	shops := e.Group("/v1/shops")
	shops.Use(authMiddleware.Authenticate)
	shops.GET("/:id/feed", threadHandler.GetShopFeed)
}
