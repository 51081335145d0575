package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/personalizer/internal/dto"
	"github.com/octobees/personalizer/internal/middleware"
	"github.com/octobees/personalizer/internal/service"
)

// OTPIssuer sends and checks one-time codes.
type OTPIssuer interface {
	Send(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) error
}

// OTPHandler serves the one-time code endpoints.
type OTPHandler struct {
	otp OTPIssuer
}

// NewOTPHandler constructs an OTPHandler.
func NewOTPHandler(otp OTPIssuer) *OTPHandler {
	return &OTPHandler{otp: otp}
}

// Send handles POST /api/send-otp.
func (h *OTPHandler) Send(c echo.Context) error {
	var req dto.SendOTPRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		return Error(c, http.StatusBadRequest, "Email is required")
	}

	if err := h.otp.Send(c.Request().Context(), email); err != nil {
		middleware.Logger(c.Request().Context()).Error("send otp failed", zap.Error(err))
		return Error(c, http.StatusInternalServerError, "Failed to send OTP")
	}

	return c.JSON(http.StatusOK, dto.StatusResponse{Success: true, Message: "OTP sent successfully"})
}

// Verify handles POST /api/verify-otp.
func (h *OTPHandler) Verify(c echo.Context) error {
	var req dto.VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	email := strings.TrimSpace(req.Email)
	code := otpCode(req.OTP)
	if email == "" || code == "" {
		return Error(c, http.StatusBadRequest, "Email and OTP required")
	}

	if err := h.otp.Verify(c.Request().Context(), email, code); err != nil {
		switch {
		case errors.Is(err, service.ErrCodeExpired):
			return Error(c, http.StatusBadRequest, "OTP expired")
		case errors.Is(err, service.ErrInvalidCode):
			return Error(c, http.StatusBadRequest, "Invalid OTP")
		default:
			middleware.Logger(c.Request().Context()).Error("verify otp failed", zap.Error(err))
			return Error(c, http.StatusInternalServerError, "Failed to verify OTP")
		}
	}

	return c.JSON(http.StatusOK, dto.StatusResponse{Success: true, Message: "OTP Verified"})
}

// otpCode accepts the code as a JSON string or number.
func otpCode(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
