package router

import (
	"github.com/labstack/echo/v4"

	"socialmall/internal/adapter/api/handler"
	"socialmall/pkg/metrics"
)

func SetupHealthRouter(e *echo.Echo) {
	healthHandler := handler.GetHealthHandler()
	e.GET("/health", healthHandler.CheckHealth)
	e.GET("/ready", healthHandler.CheckReadiness)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}
