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

// Personalizer produces or recalls the pitch for a visitor.
type Personalizer interface {
	Personalize(ctx context.Context, id entity.Identifier) (*entity.Pitch, error)
}

// PersonalizeHandler serves the pitch generation endpoint.
type PersonalizeHandler struct {
	personalizer Personalizer
}

// NewPersonalizeHandler constructs a PersonalizeHandler.
func NewPersonalizeHandler(personalizer Personalizer) *PersonalizeHandler {
	return &PersonalizeHandler{personalizer: personalizer}
}

// Personalize handles POST /api/personalize.
func (h *PersonalizeHandler) Personalize(c echo.Context) error {
	var req dto.PersonalizeRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	id, err := entity.NewIdentifier(req.Email, req.LinkedInURL)
	if err != nil {
		return Error(c, http.StatusBadRequest, "Missing required field: email or linkedInUrl")
	}

	pitch, err := h.personalizer.Personalize(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrContactNotFound):
			return Error(c, http.StatusNotFound, "No ReverseContact data found for that "+id.Label())
		case errors.Is(err, service.ErrExtraction):
			return Error(c, http.StatusInternalServerError, "Failed to parse AI JSON.")
		case errors.Is(err, service.ErrUpstream):
			middleware.Logger(c.Request().Context()).Error("personalize upstream failure", zap.String("identifier", string(id.Kind)), zap.Error(err))
			return Error(c, http.StatusInternalServerError, err.Error())
		default:
			middleware.Logger(c.Request().Context()).Error("personalize failed", zap.String("identifier", string(id.Kind)), zap.Error(err))
			return Error(c, http.StatusInternalServerError, "Failed to generate content")
		}
	}

	return c.JSON(http.StatusOK, renderPitch(pitch))
}

// renderPitch shapes the record by what it holds, not by the current mode.
func renderPitch(p *entity.Pitch) any {
	if p.AIMessage != nil && !p.HasSections() {
		return dto.MessageResponse{Message: *p.AIMessage}
	}
	return p.Sections
}
