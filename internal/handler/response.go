package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error sends an error response in the shared format.
func Error(c echo.Context, status int, message string) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, ErrorResponse{Error: message})
}

// HTTPErrorHandler renders errors that escape handlers, including router 404/405s, as {"error": ...}.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := http.StatusText(status)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		} else {
			message = http.StatusText(status)
		}
		if he.Internal != nil {
			err = he.Internal
		}
	}

	if status == http.StatusMethodNotAllowed {
		message = methodNotAllowedMessage(c.Response().Header().Get(echo.HeaderAllow))
	}

	if status >= http.StatusInternalServerError {
		zap.L().Error("unhandled request error",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = Error(c, status, message)
}

// methodNotAllowedMessage names the accepted method when a route serves exactly one.
func methodNotAllowedMessage(allow string) string {
	var methods []string
	for _, m := range strings.Split(allow, ",") {
		m = strings.TrimSpace(m)
		if m == "" || m == http.MethodOptions || m == http.MethodHead {
			continue
		}
		methods = append(methods, m)
	}
	if len(methods) == 1 {
		return "Method Not Allowed. Use " + methods[0] + "."
	}
	return "Method Not Allowed"
}
