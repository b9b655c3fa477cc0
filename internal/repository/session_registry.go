package repository

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/cinema-sessions/internal/model"
)

// Registry owns every scheduled Session, in identity order, and hands out
// identities. Conflict check and insertion happen under one lock so two
// overlapping sessions can never both be stored. Seat bookings only take
// the registry read lock; each Session serializes its own seat map.
type Registry struct {
	mu       sync.RWMutex
	scope    ConflictScope
	rows     int
	columns  int
	sessions []*model.Session
	byID     map[uint64]*model.Session
	nextID   uint64
}

// ConflictScope decides which sessions compete for the same exhibition
// resource and therefore may not overlap.
type ConflictScope int

const (
	// ScopeScreen treats the cinema as a single screen: any two sessions
	// on the same date with intersecting times conflict.
	ScopeScreen ConflictScope = iota
	// ScopeMovie only rejects overlapping sessions of the same movie.
	ScopeMovie
)

// ParseConflictScope maps "screen" and "movie" to a ConflictScope.
func ParseConflictScope(s string) (ConflictScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "screen":
		return ScopeScreen, nil
	case "movie":
		return ScopeMovie, nil
	}
	return ScopeScreen, fmt.Errorf("unknown conflict scope %q", s)
}

func (c ConflictScope) String() string {
	if c == ScopeMovie {
		return "movie"
	}
	return "screen"
}

// Option customises a Registry.
type Option func(*Registry)

// WithSeatGrid sets the grid used for sessions added through AddSession.
func WithSeatGrid(rows, columns int) Option {
	return func(r *Registry) {
		r.rows = rows
		r.columns = columns
	}
}

// WithConflictScope sets which sessions are checked against each other.
func WithConflictScope(scope ConflictScope) Option {
	return func(r *Registry) {
		r.scope = scope
	}
}

// NewRegistry returns an empty registry whose first identity is 1.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		rows:    model.DefaultRows,
		columns: model.DefaultColumns,
		byID:    make(map[uint64]*model.Session),
		nextID:  1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RestoreRegistry rebuilds a registry from stored sessions. Identities must
// be positive and strictly increasing and no two sessions may overlap;
// anything else fails with model.ErrCorruptData and nothing is kept. The
// next identity continues after the largest restored one.
func RestoreRegistry(sessions []*model.Session, opts ...Option) (*Registry, error) {
	r := NewRegistry(opts...)
	var last uint64
	for i, s := range sessions {
		if s == nil {
			return nil, fmt.Errorf("%w: session at position %d is empty", model.ErrCorruptData, i)
		}
		if s.ID == 0 || s.ID <= last {
			return nil, fmt.Errorf("%w: session id %d out of order after %d", model.ErrCorruptData, s.ID, last)
		}
		if ids := r.conflicts(s); len(ids) > 0 {
			return nil, fmt.Errorf("%w: session %d overlaps session %d", model.ErrCorruptData, s.ID, ids[0])
		}
		r.sessions = append(r.sessions, s)
		r.byID[s.ID] = s
		last = s.ID
	}
	r.nextID = last + 1
	return r, nil
}

// Scope returns the registry's conflict scope.
func (r *Registry) Scope() ConflictScope {
	return r.scope
}

// SeatGrid returns the dimensions used by AddSession.
func (r *Registry) SeatGrid() (rows, columns int) {
	return r.rows, r.columns
}

// AddSession schedules a screening on the registry's default grid and
// returns its identity.
func (r *Registry) AddSession(movie model.Movie, date time.Time, start, end model.TimeOfDay) (uint64, error) {
	return r.AddSessionWithGrid(movie, date, start, end, r.rows, r.columns)
}

// AddSessionWithGrid is AddSession with explicit seat grid dimensions. On
// a conflict it returns a *model.SchedulingConflictError listing every
// overlapping session and stores nothing.
func (r *Registry) AddSessionWithGrid(movie model.Movie, date time.Time, start, end model.TimeOfDay, rows, columns int) (uint64, error) {
	candidate, err := model.NewSession(movie, date, start, end, rows, columns)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if ids := r.conflicts(candidate); len(ids) > 0 {
		return 0, &model.SchedulingConflictError{
			Date:      candidate.DateString(),
			Start:     candidate.Start,
			End:       candidate.End,
			Conflicts: ids,
		}
	}
	candidate.ID = r.nextID
	r.nextID++
	r.sessions = append(r.sessions, candidate)
	r.byID[candidate.ID] = candidate
	return candidate.ID, nil
}

// conflicts must be called with r.mu held (or before r is shared).
func (r *Registry) conflicts(candidate *model.Session) []uint64 {
	var ids []uint64
	for _, s := range r.sessions {
		if r.scope == ScopeMovie && s.Movie.Key() != candidate.Movie.Key() {
			continue
		}
		if s.Overlaps(candidate) {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// GetByID returns the session with the given identity or
// model.ErrSessionNotFound.
func (r *Registry) GetByID(id uint64) (*model.Session, error) {
	s, ok := r.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", model.ErrSessionNotFound, id)
	}
	return s, nil
}

// Lookup is GetByID for callers that only need to branch.
func (r *Registry) Lookup(id uint64) (*model.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// MarkSeatOnSession books a seat on the session with the given identity.
func (r *Registry) MarkSeatOnSession(id uint64, row, column int) error {
	s, err := r.GetByID(id)
	if err != nil {
		return err
	}
	return s.MarkSeat(row, column)
}

// IsSeatBooked reports a seat's state on the session with the given identity.
func (r *Registry) IsSeatBooked(id uint64, row, column int) (bool, error) {
	s, err := r.GetByID(id)
	if err != nil {
		return false, err
	}
	return s.IsBooked(row, column)
}

// Sessions returns the stored sessions in identity order.
func (r *Registry) Sessions() []*model.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*model.Session(nil), r.sessions...)
}

// SessionsOn returns the sessions scheduled on the given date.
func (r *Registry) SessionsOn(date time.Time) []*model.Session {
	day := model.NormalizeDate(date)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Session
	for _, s := range r.sessions {
		if s.Date.Equal(day) {
			out = append(out, s)
		}
	}
	return out
}

// SessionsForMovie returns the sessions screening the given title.
func (r *Registry) SessionsForMovie(title string) []*model.Session {
	key := model.MovieKey(title)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Session
	for _, s := range r.sessions {
		if s.Movie.Key() == key {
			out = append(out, s)
		}
	}
	return out
}

// ReferencesMovie reports whether any session screens the given title.
func (r *Registry) ReferencesMovie(title string) bool {
	return len(r.SessionsForMovie(title)) > 0
}

// Len returns the number of stored sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// NextID returns the identity the next stored session will receive.
func (r *Registry) NextID() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nextID
}
