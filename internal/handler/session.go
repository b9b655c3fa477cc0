package handler // handler package exposes the session registry over HTTP

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-sessions/internal/model"
	"github.com/iliyamo/cinema-sessions/internal/service"
)

// CinemaHandler serves session, seat and movie endpoints.
type CinemaHandler struct {
	Cinema *service.Cinema
	Log    logrus.FieldLogger
}

// NewCinemaHandler panics when cinema is nil.
func NewCinemaHandler(cinema *service.Cinema, log logrus.FieldLogger) *CinemaHandler {
	if cinema == nil {
		panic("nil cinema passed to NewCinemaHandler")
	}
	return &CinemaHandler{Cinema: cinema, Log: log}
}

type sessionView struct {
	ID       uint64      `json:"id"`
	Movie    model.Movie `json:"movie"`
	Date     string      `json:"date"`
	Start    string      `json:"start"`
	End      string      `json:"end"`
	Rows     int         `json:"rows"`
	Columns  int         `json:"columns"`
	Booked   int         `json:"booked"`
	Seats    [][]bool    `json:"seats,omitempty"`
	Describe string      `json:"describe"`
}

func viewOf(s *model.Session, withSeats bool) sessionView {
	seats := s.Seats()
	v := sessionView{
		ID:       s.ID,
		Movie:    s.Movie,
		Date:     s.DateString(),
		Start:    s.Start.String(),
		End:      s.End.String(),
		Rows:     seats.Rows(),
		Columns:  seats.Columns(),
		Booked:   seats.BookedCount(),
		Describe: s.Describe(),
	}
	if withSeats {
		v.Seats = seats.Grid()
	}
	return v
}

func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// ListSessions handles GET /v1/sessions. An optional ?date=YYYY-MM-DD
// narrows the list to one day.
func (h *CinemaHandler) ListSessions(c echo.Context) error {
	var (
		sessions []*model.Session
		err      error
	)
	if date := c.QueryParam("date"); date != "" {
		sessions, err = h.Cinema.SessionsOn(date)
		if err != nil {
			return fail(c, err)
		}
	} else {
		sessions = h.Cinema.Sessions()
	}
	items := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, viewOf(s, false))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetSession handles GET /v1/sessions/:id.
func (h *CinemaHandler) GetSession(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	s, err := h.Cinema.Session(id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, viewOf(s, true))
}

// CreateSession handles POST /v1/sessions.
func (h *CinemaHandler) CreateSession(c echo.Context) error {
	var req service.ScheduleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.MovieTitle == "" || req.Date == "" || req.Start == "" || req.End == "" {
		return badRequest(c, "movie_title, date, start and end are required")
	}
	s, err := h.Cinema.ScheduleSession(c.Request().Context(), req)
	if err != nil {
		if s == nil {
			return fail(c, err)
		}
		// Scheduled but not saved.
		h.Log.WithError(err).WithField("session_id", s.ID).Error("autosave failed")
	}
	return c.JSON(http.StatusCreated, viewOf(s, false))
}

// IsSeatBooked handles GET /v1/sessions/:id/seats/:row/:column.
func (h *CinemaHandler) IsSeatBooked(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	row, err1 := strconv.Atoi(c.Param("row"))
	col, err2 := strconv.Atoi(c.Param("column"))
	if err1 != nil || err2 != nil {
		return badRequest(c, "row and column must be integers")
	}
	booked, err := h.Cinema.IsSeatBooked(id, row, col)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"session_id": id, "row": row, "column": col, "booked": booked})
}

// BookSeat handles POST /v1/sessions/:id/seats with body {"row","column"}.
func (h *CinemaHandler) BookSeat(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var body struct {
		Row    *int `json:"row"`
		Column *int `json:"column"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Row == nil || body.Column == nil {
		return badRequest(c, "row and column are required")
	}
	if err := h.Cinema.BookSeat(c.Request().Context(), id, *body.Row, *body.Column); err != nil {
		if statusOf(err) != http.StatusInternalServerError {
			return fail(c, err)
		}
		// The seat is booked in memory; only the snapshot failed.
		h.Log.WithError(err).WithField("session_id", id).Error("autosave failed")
	}
	return c.JSON(http.StatusCreated, echo.Map{"session_id": id, "row": *body.Row, "column": *body.Column, "booked": true})
}

// Snapshot handles POST /v1/snapshot.
func (h *CinemaHandler) Snapshot(c echo.Context) error {
	if err := h.Cinema.Save(c.Request().Context()); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
