package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/octobees/personalizer/internal/config"
)

// RateLimiter guards one route with a shared token bucket sized from cfg.
// Rejected calls get 429 with a Retry-After hint. A zero cfg disables the limit.
func RateLimiter(path string, cfg config.RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Requests <= 0 || cfg.Interval <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	every := cfg.Interval / time.Duration(cfg.Requests)
	if every <= 0 {
		every = time.Second
	}
	bucket := rate.NewLimiter(rate.Every(every), cfg.Requests)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodOptions || c.Path() != path {
				return next(c)
			}

			r := bucket.Reserve()
			if wait := r.Delay(); wait > 0 {
				r.Cancel()
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}
