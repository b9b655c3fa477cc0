package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-sessions/internal/model"
)

type movieReq struct {
	Title    string `json:"title"`
	Director string `json:"director"`
}

func (h *CinemaHandler) titleParam(c echo.Context) string {
	title := c.Param("title")
	if t, err := url.PathUnescape(title); err == nil {
		return t
	}
	return title
}

// logSaveError keeps a mutation that succeeded in memory but could not
// be saved from being reported as failed.
func (h *CinemaHandler) logSaveError(err error, m model.Movie) {
	if err != nil {
		h.Log.WithError(err).WithField("movie", m.Title).Error("autosave failed")
	}
}

// ListMovies handles GET /v1/movies.
func (h *CinemaHandler) ListMovies(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"items": h.Cinema.Movies()})
}

// CreateMovie handles POST /v1/movies.
func (h *CinemaHandler) CreateMovie(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	m, err := h.Cinema.AddMovie(c.Request().Context(), req.Title, req.Director)
	if m.Title == "" {
		return fail(c, err)
	}
	h.logSaveError(err, m)
	return c.JSON(http.StatusCreated, m)
}

// UpdateMovie handles PATCH /v1/movies/:title. Either field may be set;
// the title change is applied first.
func (h *CinemaHandler) UpdateMovie(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Title == "" && req.Director == "" {
		return badRequest(c, "title or director is required")
	}
	ctx := c.Request().Context()
	title := h.titleParam(c)

	current, err := h.Cinema.FindMovie(title)
	if err != nil {
		return fail(c, err)
	}
	if req.Title != "" {
		m, err := h.Cinema.RenameMovie(ctx, current.Title, req.Title)
		if m.Title == "" {
			return fail(c, err)
		}
		h.logSaveError(err, m)
		current = m
	}
	if req.Director != "" {
		m, err := h.Cinema.SetMovieDirector(ctx, current.Title, req.Director)
		if m.Title == "" {
			return fail(c, err)
		}
		h.logSaveError(err, m)
		current = m
	}
	return c.JSON(http.StatusOK, current)
}

// DeleteMovie handles DELETE /v1/movies/:title.
func (h *CinemaHandler) DeleteMovie(c echo.Context) error {
	title := h.titleParam(c)
	if _, err := h.Cinema.FindMovie(title); err != nil {
		return fail(c, err)
	}
	if err := h.Cinema.RemoveMovie(c.Request().Context(), title); err != nil {
		if statusOf(err) != http.StatusInternalServerError {
			return fail(c, err)
		}
		h.Log.WithError(err).Error("autosave failed")
	}
	return c.NoContent(http.StatusNoContent)
}
