package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/rentora/property-portal/internal/platform"
	"github.com/rentora/property-portal/internal/repository"
)

// HTTPErrorHandler shapes every error body as {"detail": ...}. Platform
// errors carry their mapped status; unexpected errors are logged and
// answered as opaque 500s.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	var detail any = "Internal server error"

	switch {
	case err == repository.ErrForbidden:
		status, detail = http.StatusForbidden, "Not enough permissions"
	case err == repository.ErrConflict:
		status, detail = http.StatusConflict, "Conflict"
	default:
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			detail = he.Message
		} else if pe, ok := platform.AsError(err); ok {
			status = pe.Status
			if status >= http.StatusInternalServerError {
				detail = "Internal server error"
			} else {
				detail = pe.Message
			}
		}
	}

	if status >= http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
		}).WithError(err).Error("request failed")
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, echo.Map{"detail": detail})
}
