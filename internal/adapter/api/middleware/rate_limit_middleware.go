package middleware

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"socialmall/internal/infrastructure/ratelimit"
	"socialmall/pkg/errors"
	"socialmall/pkg/logger"
	"socialmall/pkg/response"
)

// RateLimit limits action per authenticated user, falling back to the
// client IP on routes without a user.
func RateLimit(limiter *ratelimit.RateLimiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, _ := c.Get(ContextUserID).(string)
			if key == "" {
				key = "ip:" + c.RealIP()
			}

			ok, wait := limiter.Allow(key, action)
			if !ok {
				retry := int(math.Ceil(wait.Seconds()))
				if retry < 1 {
					retry = 1
				}
				logger.Warn("RATE LIMIT: %s on %s (retry in %s)", key, action, wait.Round(time.Millisecond))
				c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
				return response.Error(c, errors.TooManyRequests(fmt.Sprintf("Rate limit exceeded. Try again in %ds", retry)))
			}
			return next(c)
		}
	}
}
