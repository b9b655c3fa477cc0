package model

import (
	"fmt"
	"sync"
	"time"
)

// Session is one scheduled screening of a Movie. ID is assigned by the
// registry that stores it and never changes afterwards. Movie, Date, Start
// and End are fixed at creation; only the seat map is mutated, through
// MarkSeat.
type Session struct {
	ID    uint64
	Movie Movie
	Date  time.Time // UTC midnight
	Start TimeOfDay
	End   TimeOfDay

	mu    sync.Mutex
	seats *SeatMap
}

// NewSession validates the time range and allocates a fresh seat map.
func NewSession(movie Movie, date time.Time, start, end TimeOfDay, rows, columns int) (*Session, error) {
	if !start.Valid() || !end.Valid() || start >= end {
		return nil, fmt.Errorf("%w: %s-%s", ErrInvalidTimeRange, start, end)
	}
	seats, err := NewSeatMap(rows, columns)
	if err != nil {
		return nil, err
	}
	return &Session{Movie: movie, Date: NormalizeDate(date), Start: start, End: end, seats: seats}, nil
}

// RestoreSession rebuilds a stored session around an existing seat map.
func RestoreSession(id uint64, movie Movie, date time.Time, start, end TimeOfDay, seats *SeatMap) (*Session, error) {
	if !start.Valid() || !end.Valid() || start >= end {
		return nil, fmt.Errorf("%w: %s-%s", ErrInvalidTimeRange, start, end)
	}
	if seats == nil {
		return nil, fmt.Errorf("%w: missing seat map", ErrInvalidDimensions)
	}
	return &Session{ID: id, Movie: movie, Date: NormalizeDate(date), Start: start, End: end, seats: seats.Clone()}, nil
}

// MarkSeat books one seat of this session.
func (s *Session) MarkSeat(row, column int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seats.Mark(row, column)
}

// IsBooked reports whether a seat of this session is booked.
func (s *Session) IsBooked(row, column int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seats.IsBooked(row, column)
}

// Seats returns a copy of the seat map taken under the session lock.
func (s *Session) Seats() *SeatMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seats.Clone()
}

// Overlaps reports whether both sessions fall on the same date and their
// half-open [Start, End) intervals intersect.
func (s *Session) Overlaps(other *Session) bool {
	if other == nil || !s.Date.Equal(other.Date) {
		return false
	}
	return s.Start < other.End && other.Start < s.End
}

// StartsAt and EndsAt anchor the time range to the session date.
func (s *Session) StartsAt() time.Time { return s.Start.On(s.Date) }
func (s *Session) EndsAt() time.Time   { return s.End.On(s.Date) }

// DateString formats Date with DateLayout.
func (s *Session) DateString() string { return s.Date.Format(DateLayout) }

// Describe renders a one-line summary for display.
func (s *Session) Describe() string {
	return fmt.Sprintf("#%d %s by %s, %s %s-%s",
		s.ID, s.Movie.Title, s.Movie.Director, s.DateString(), s.Start, s.End)
}
