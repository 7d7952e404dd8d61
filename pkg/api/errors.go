package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/opsmaestro/maestro/pkg/session"
)

// mapStoreError maps session-store errors to HTTP error responses.
func mapStoreError(err error) *echo.HTTPError {
	if errors.Is(err, session.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Session not found")
	}

	slog.Error("Unexpected session store error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
