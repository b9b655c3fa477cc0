package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-sessions/internal/model"
	"github.com/iliyamo/cinema-sessions/internal/repository"
	"github.com/iliyamo/cinema-sessions/internal/service"
)

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidTimeRange),
		errors.Is(err, model.ErrOutOfRange),
		errors.Is(err, model.ErrInvalidDimensions),
		errors.Is(err, repository.ErrInvalidMovie),
		errors.Is(err, repository.ErrNoChange),
		errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrSessionNotFound),
		errors.Is(err, repository.ErrMovieNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrSchedulingConflict),
		errors.Is(err, model.ErrAlreadyBooked),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrMovieExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON body. Internal errors are not echoed back to
// the client.
func fail(c echo.Context, err error) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	body := echo.Map{"error": err.Error()}
	var conflict *model.SchedulingConflictError
	if errors.As(err, &conflict) {
		body["conflicts"] = conflict.Conflicts
	}
	return c.JSON(status, body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
