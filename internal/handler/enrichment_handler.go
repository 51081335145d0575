package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/personalizer/internal/dto"
	"github.com/octobees/personalizer/internal/entity"
	"github.com/octobees/personalizer/internal/middleware"
	"github.com/octobees/personalizer/internal/service"
)

// EnrichmentLookup fetches fresh provider data for a visitor.
type EnrichmentLookup interface {
	Lookup(ctx context.Context, id entity.Identifier) (entity.ContactData, error)
}

// EnrichmentHandler serves the raw enrichment lookup endpoint.
type EnrichmentHandler struct {
	lookup EnrichmentLookup
}

// NewEnrichmentHandler constructs an EnrichmentHandler.
func NewEnrichmentHandler(lookup EnrichmentLookup) *EnrichmentHandler {
	return &EnrichmentHandler{lookup: lookup}
}

// Lookup handles GET /api/reverse-contact?email=... or ?linkedInUrl=...
func (h *EnrichmentHandler) Lookup(c echo.Context) error {
	var q dto.EnrichmentQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return Error(c, http.StatusBadRequest, "invalid query")
	}

	id, err := entity.NewIdentifier(q.Email, q.LinkedInURL)
	if err != nil {
		return Error(c, http.StatusBadRequest, "Missing required field: email or linkedInUrl")
	}

	data, err := h.lookup.Lookup(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			return Error(c, http.StatusNotFound, "No ReverseContact data found for that "+id.Label())
		}
		middleware.Logger(c.Request().Context()).Error("enrichment lookup failed", zap.String("identifier", string(id.Kind)), zap.Error(err))
		return Error(c, http.StatusInternalServerError, "Failed to fetch ReverseContact data")
	}

	return c.JSON(http.StatusOK, data)
}
