package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/personalizer/internal/dto"
	"github.com/octobees/personalizer/internal/middleware"
)

// CollectionLister reports the collections present in the document store.
type CollectionLister interface {
	ListCollections(ctx context.Context) ([]string, error)
}

// HealthHandler serves connectivity and liveness endpoints.
type HealthHandler struct {
	store CollectionLister
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(store CollectionLister) *HealthHandler {
	return &HealthHandler{store: store}
}

// Database handles GET /api/db-test.
func (h *HealthHandler) Database(c echo.Context) error {
	collections, err := h.store.ListCollections(c.Request().Context())
	if err != nil {
		middleware.Logger(c.Request().Context()).Error("db test failed", zap.Error(err))
		return Error(c, http.StatusInternalServerError, err.Error())
	}
	if collections == nil {
		collections = []string{}
	}

	return c.JSON(http.StatusOK, dto.DatabaseStatusResponse{
		Message:     "Database connection successful!",
		Collections: collections,
	})
}

// Hello handles GET /api/test.
func (h *HealthHandler) Hello(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.HelloResponse{Message: "Hello from the API!"})
}

// Live handles GET /healthz.
func (h *HealthHandler) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
