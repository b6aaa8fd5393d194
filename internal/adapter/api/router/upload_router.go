package router

import (
	"github.com/labstack/echo/v4"

	"socialmall/internal/adapter/api/handler"
	"socialmall/internal/adapter/api/middleware"
	"socialmall/internal/infrastructure/ratelimit"
	"socialmall/pkg/logger"
)

func SetupUploadRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	fileHandler := handler.GetFileHandler()
	if fileHandler == nil {
		logger.Warn("No attachment storage configured, /v1/uploads disabled")
		return
	}

	uploads := e.Group("/v1/uploads")
	uploads.Use(authMiddleware.Authenticate)
	uploads.POST("", fileHandler.UploadFile, middleware.RateLimit(limiter, ratelimit.ActionUpload))
	uploads.DELETE("", fileHandler.DeleteUpload)
}
