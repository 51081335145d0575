package router

import (
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/octobees/personalizer/internal/config"
	"github.com/octobees/personalizer/internal/handler"
	middlewarepkg "github.com/octobees/personalizer/internal/middleware"
)

const personalizePath = "/api/personalize"

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Personalize *handler.PersonalizeHandler
	Enrichment  *handler.EnrichmentHandler
	OTP         *handler.OTPHandler
	Health      *handler.HealthHandler
}

// Register installs middleware, the error renderer and all HTTP routes.
func Register(e *echo.Echo, cfg *config.Config, handlers Handlers) {
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(nil))
	e.Use(echoMiddleware.Recover())
	e.Use(middlewarepkg.CORS(cfg.AllowedOrigins))

	e.GET("/healthz", handlers.Health.Live)

	api := e.Group("/api")
	api.POST("/personalize", handlers.Personalize.Personalize, middlewarepkg.RateLimiter(personalizePath, cfg.RateLimitPersonalize))
	api.GET("/reverse-contact", handlers.Enrichment.Lookup)
	api.POST("/send-otp", handlers.OTP.Send)
	api.POST("/verify-otp", handlers.OTP.Verify)
	api.GET("/db-test", handlers.Health.Database)
	api.GET("/test", handlers.Health.Hello)
}
