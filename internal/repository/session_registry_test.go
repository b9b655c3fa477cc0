package repository

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-sessions/internal/model"
)

var (
	meetJoeBlack = model.Movie{Title: "Meet Joe Black", Director: "Director"}
	quitePlace   = model.Movie{Title: "Quite Place", Director: "Director"}
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func clock(t *testing.T, s string) model.TimeOfDay {
	t.Helper()
	tod, err := model.ParseTimeOfDay(s)
	require.NoError(t, err)
	return tod
}

func add(t *testing.T, r *Registry, movie model.Movie, d, start, end string) (uint64, error) {
	t.Helper()
	return r.AddSession(movie, date(t, d), clock(t, start), clock(t, end))
}

func TestRegistryScenario(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	id, err := add(t, r, meetJoeBlack, "2004-11-26", "14:30", "15:50")
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)

	id, err = add(t, r, quitePlace, "2004-12-26", "15:30", "15:50")
	require.NoError(t, err)
	assert.EqualValues(t, 2, id)

	// Session C covers B (15:30-15:50) on the same date, so the single
	// screen rule rejects it.
	_, err = add(t, r, meetJoeBlack, "2004-12-26", "13:30", "16:50")
	var conflict *model.SchedulingConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uint64{2}, conflict.Conflicts)

	id, err = add(t, r, meetJoeBlack, "2004-12-26", "10:00", "12:00")
	require.NoError(t, err)
	assert.EqualValues(t, 3, id)

	_, err = add(t, r, meetJoeBlack, "2004-12-26", "11:30", "16:50")
	require.ErrorIs(t, err, model.ErrSchedulingConflict)
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uint64{2, 3}, conflict.Conflicts)
	assert.Equal(t, 3, r.Len())

	require.NoError(t, r.MarkSeatOnSession(1, 1, 6))
	assert.ErrorIs(t, r.MarkSeatOnSession(1, 1, 6), model.ErrAlreadyBooked)
	assert.ErrorIs(t, r.MarkSeatOnSession(1, 99, 1), model.ErrOutOfRange)
	assert.ErrorIs(t, r.MarkSeatOnSession(42, 1, 1), model.ErrSessionNotFound)

	booked, err := r.IsSeatBooked(1, 1, 6)
	require.NoError(t, err)
	assert.True(t, booked)
}

func TestRegistryConflictLeavesStateUntouched(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	_, err := add(t, r, meetJoeBlack, "2004-12-26", "13:30", "16:50")
	require.NoError(t, err)

	_, err = add(t, r, quitePlace, "2004-12-26", "14:30", "16:50")
	require.ErrorIs(t, err, model.ErrSchedulingConflict)
	assert.Equal(t, 1, r.Len())
	assert.EqualValues(t, 2, r.NextID(), "a rejected session must not consume an identity")

	id, err := add(t, r, quitePlace, "2004-12-26", "16:50", "18:00")
	require.NoError(t, err)
	assert.EqualValues(t, 2, id)
}

func TestRegistryInvalidInputDoesNotConsumeIdentity(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	_, err := add(t, r, meetJoeBlack, "2004-12-26", "16:50", "13:30")
	require.ErrorIs(t, err, model.ErrInvalidTimeRange)

	_, err = r.AddSessionWithGrid(meetJoeBlack, date(t, "2004-12-26"), clock(t, "10:00"), clock(t, "11:00"), 0, 4)
	require.ErrorIs(t, err, model.ErrInvalidDimensions)
	assert.EqualValues(t, 1, r.NextID())
}

func TestRegistryIdentitiesStrictlyIncrease(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	var last uint64
	for day := 1; day <= 20; day++ {
		id, err := add(t, r, meetJoeBlack, fmt.Sprintf("2005-01-%02d", day), "18:00", "20:00")
		require.NoError(t, err)
		require.Greater(t, id, last)
		last = id
	}
	sessions := r.Sessions()
	require.Len(t, sessions, 20)
	for i, s := range sessions {
		assert.EqualValues(t, i+1, s.ID)
	}
}

func TestRegistryCustomGrid(t *testing.T) {
	t.Parallel()
	r := NewRegistry(WithSeatGrid(2, 3))
	rows, cols := r.SeatGrid()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)

	id, err := add(t, r, meetJoeBlack, "2004-11-26", "14:30", "15:50")
	require.NoError(t, err)
	assert.ErrorIs(t, r.MarkSeatOnSession(id, 3, 1), model.ErrOutOfRange)
	require.NoError(t, r.MarkSeatOnSession(id, 2, 3))
}

func TestRegistryLookups(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	_, err := add(t, r, meetJoeBlack, "2004-11-26", "14:30", "15:50")
	require.NoError(t, err)
	_, err = add(t, r, quitePlace, "2004-11-26", "16:00", "17:00")
	require.NoError(t, err)
	_, err = add(t, r, meetJoeBlack, "2004-11-27", "14:30", "15:50")
	require.NoError(t, err)

	s, err := r.GetByID(2)
	require.NoError(t, err)
	assert.Equal(t, quitePlace, s.Movie)

	_, ok := r.Lookup(9)
	assert.False(t, ok)
	_, err = r.GetByID(9)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)

	assert.Len(t, r.SessionsOn(date(t, "2004-11-26")), 2)
	assert.Len(t, r.SessionsForMovie("MEET JOE BLACK"), 2)
	assert.True(t, r.ReferencesMovie("quite place"))
	assert.False(t, r.ReferencesMovie("Heat"))
}

func TestRegistryConcurrentAddsNeverOverlap(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	d, start, end := date(t, "2004-12-26"), clock(t, "13:30"), clock(t, "16:50")
	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.AddSession(meetJoeBlack, d, start, end)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, model.ErrSchedulingConflict))
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, r.Len())
}

func TestRestoreRegistry(t *testing.T) {
	t.Parallel()
	seats, err := model.NewSeatMap(5, 8)
	require.NoError(t, err)
	require.NoError(t, seats.Mark(1, 6))

	s1, err := model.RestoreSession(4, meetJoeBlack, date(t, "2004-11-26"), clock(t, "14:30"), clock(t, "15:50"), seats)
	require.NoError(t, err)
	s2, err := model.RestoreSession(7, quitePlace, date(t, "2004-12-26"), clock(t, "15:30"), clock(t, "15:50"), seats)
	require.NoError(t, err)

	r, err := RestoreRegistry([]*model.Session{s1, s2})
	require.NoError(t, err)
	assert.EqualValues(t, 8, r.NextID())
	booked, err := r.IsSeatBooked(4, 1, 6)
	require.NoError(t, err)
	assert.True(t, booked)

	id, err := add(t, r, quitePlace, "2005-01-01", "10:00", "11:00")
	require.NoError(t, err)
	assert.EqualValues(t, 8, id)
}

func TestRestoreRegistryRejectsInvalidState(t *testing.T) {
	t.Parallel()
	seats, err := model.NewSeatMap(1, 1)
	require.NoError(t, err)
	mk := func(id uint64, d, start, end string) *model.Session {
		s, err := model.RestoreSession(id, meetJoeBlack, date(t, d), clock(t, start), clock(t, end), seats)
		require.NoError(t, err)
		return s
	}

	cases := map[string][]*model.Session{
		"zero id":    {mk(0, "2004-11-26", "10:00", "11:00")},
		"duplicate":  {mk(1, "2004-11-26", "10:00", "11:00"), mk(1, "2004-11-27", "10:00", "11:00")},
		"descending": {mk(2, "2004-11-26", "10:00", "11:00"), mk(1, "2004-11-27", "10:00", "11:00")},
		"overlap":    {mk(1, "2004-11-26", "10:00", "11:00"), mk(2, "2004-11-26", "10:30", "12:00")},
		"nil":        {nil},
	}
	for name, sessions := range cases {
		_, err := RestoreRegistry(sessions)
		assert.ErrorIs(t, err, model.ErrCorruptData, name)
	}
}

func TestRegistryMovieScopeScenario(t *testing.T) {
	t.Parallel()
	r := NewRegistry(WithConflictScope(ScopeMovie))
	assert.Equal(t, ScopeMovie, r.Scope())

	steps := []struct {
		movie      model.Movie
		d          string
		start, end string
		want       uint64
	}{
		{meetJoeBlack, "2004-11-26", "14:30", "15:50", 1},
		{quitePlace, "2004-12-26", "15:30", "15:50", 2},
		{meetJoeBlack, "2004-12-26", "13:30", "16:50", 3},
	}
	for _, st := range steps {
		id, err := add(t, r, st.movie, st.d, st.start, st.end)
		require.NoError(t, err)
		assert.Equal(t, st.want, id)
	}

	_, err := add(t, r, meetJoeBlack, "2004-12-26", "14:30", "16:50")
	var conflict *model.SchedulingConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uint64{3}, conflict.Conflicts)
	assert.Equal(t, 3, r.Len())

	require.NoError(t, r.MarkSeatOnSession(1, 1, 6))
	assert.ErrorIs(t, r.MarkSeatOnSession(1, 1, 6), model.ErrAlreadyBooked)
	assert.ErrorIs(t, r.MarkSeatOnSession(1, 99, 1), model.ErrOutOfRange)
}

func TestParseConflictScope(t *testing.T) {
	t.Parallel()
	s, err := ParseConflictScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeScreen, s)
	s, err = ParseConflictScope(" Movie ")
	require.NoError(t, err)
	assert.Equal(t, ScopeMovie, s)
	assert.Equal(t, "movie", s.String())
	_, err = ParseConflictScope("hall")
	assert.Error(t, err)
}
