package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-sessions/internal/model"
	"github.com/iliyamo/cinema-sessions/internal/persistence"
	"github.com/iliyamo/cinema-sessions/internal/queue"
	"github.com/iliyamo/cinema-sessions/internal/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type failingStore struct{ persistence.MemoryStore }

func (*failingStore) Save(context.Context, *persistence.Snapshot) error {
	return errors.New("disk full")
}

func newCinema(t *testing.T, opts Options) (*Cinema, *persistence.MemoryStore) {
	t.Helper()
	store := persistence.NewMemoryStore()
	c := New(store, opts)
	_, err := c.AddMovie(context.Background(), "Meet Joe Black", "Director")
	require.NoError(t, err)
	_, err = c.AddMovie(context.Background(), "Quite Place", "Director")
	require.NoError(t, err)
	return c, store
}

func TestScheduleAndBook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	pub := &recordingPublisher{}
	c, _ := newCinema(t, Options{Publisher: pub})

	s, err := c.ScheduleSession(ctx, ScheduleRequest{MovieTitle: "meet joe black", Date: "2004-11-26", Start: "14:30", End: "15:50"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, s.ID)
	assert.Equal(t, "Meet Joe Black", s.Movie.Title)

	require.NoError(t, c.BookSeat(ctx, s.ID, 3, 4))
	booked, err := c.IsSeatBooked(s.ID, 3, 4)
	require.NoError(t, err)
	assert.True(t, booked)

	err = c.BookSeat(ctx, s.ID, 3, 4)
	assert.ErrorIs(t, err, model.ErrAlreadyBooked)

	assert.Equal(t, []string{queue.SessionScheduled, queue.SeatBooked}, pub.types())
}

func TestScheduleRejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _ := newCinema(t, Options{})

	_, err := c.ScheduleSession(ctx, ScheduleRequest{MovieTitle: "Quite Place", Date: "2004-12-26", Start: "15:30", End: "15:50"})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  ScheduleRequest
		want error
	}{
		{"unknown movie", ScheduleRequest{MovieTitle: "Heat", Date: "2004-12-26", Start: "10:00", End: "11:00"}, repository.ErrMovieNotFound},
		{"bad date", ScheduleRequest{MovieTitle: "Quite Place", Date: "26.12.2004", Start: "10:00", End: "11:00"}, ErrInvalidInput},
		{"bad start", ScheduleRequest{MovieTitle: "Quite Place", Date: "2004-12-26", Start: "25:00", End: "11:00"}, ErrInvalidInput},
		{"bad end", ScheduleRequest{MovieTitle: "Quite Place", Date: "2004-12-26", Start: "10:00", End: "noon"}, ErrInvalidInput},
		{"inverted range", ScheduleRequest{MovieTitle: "Quite Place", Date: "2004-12-26", Start: "12:00", End: "11:00"}, model.ErrInvalidTimeRange},
		{"overlap", ScheduleRequest{MovieTitle: "Meet Joe Black", Date: "2004-12-26", Start: "13:30", End: "16:50"}, model.ErrSchedulingConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.ScheduleSession(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Len(t, c.Sessions(), 1)
}

func TestMovieScopeAcceptsOtherMovies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _ := newCinema(t, Options{Registry: []repository.Option{repository.WithConflictScope(repository.ScopeMovie)}})

	_, err := c.ScheduleSession(ctx, ScheduleRequest{MovieTitle: "Quite Place", Date: "2004-12-26", Start: "15:30", End: "15:50"})
	require.NoError(t, err)
	s, err := c.ScheduleSession(ctx, ScheduleRequest{MovieTitle: "Meet Joe Black", Date: "2004-12-26", Start: "13:30", End: "16:50"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, s.ID)
}

func TestPublishFailureIsNotReturned(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	c, _ := newCinema(t, Options{Publisher: pub})

	_, err := c.ScheduleSession(ctx, ScheduleRequest{MovieTitle: "Quite Place", Date: "2004-12-26", Start: "15:30", End: "15:50"})
	require.NoError(t, err)
	assert.Len(t, pub.types(), 1)
}

func TestAutosaveAndRestore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, store := newCinema(t, Options{Autosave: true})

	s, err := c.ScheduleSession(ctx, ScheduleRequest{MovieTitle: "Meet Joe Black", Date: "2004-11-26", Start: "14:30", End: "15:50"})
	require.NoError(t, err)
	require.NoError(t, c.BookSeat(ctx, s.ID, 1, 1))
	require.NotEmpty(t, store.Bytes())

	restored := New(store, Options{})
	require.NoError(t, restored.Restore(ctx))
	assert.Len(t, restored.Movies(), 2)

	got, err := restored.Session(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Describe(), got.Describe())
	booked, err := restored.IsSeatBooked(s.ID, 1, 1)
	require.NoError(t, err)
	assert.True(t, booked)

	next, err := restored.ScheduleSession(ctx, ScheduleRequest{MovieTitle: "Quite Place", Date: "2004-11-27", Start: "10:00", End: "11:00"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, next.ID)
}

func TestRestoreEmptyStore(t *testing.T) {
	t.Parallel()
	c := New(persistence.NewMemoryStore(), Options{})
	require.NoError(t, c.Restore(context.Background()))
	assert.Empty(t, c.Sessions())
	assert.Empty(t, c.Movies())
}

func TestAutosaveFailureIsReturned(t *testing.T) {
	t.Parallel()
	c := New(&failingStore{}, Options{Autosave: true})
	_, err := c.AddMovie(context.Background(), "Heat", "Michael Mann")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestMovieEditsGuardReferences(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _ := newCinema(t, Options{})
	_, err := c.ScheduleSession(ctx, ScheduleRequest{MovieTitle: "Meet Joe Black", Date: "2004-11-26", Start: "14:30", End: "15:50"})
	require.NoError(t, err)

	assert.ErrorIs(t, c.RemoveMovie(ctx, "Meet Joe Black"), repository.ErrConflict)
	_, err = c.RenameMovie(ctx, "Meet Joe Black", "Joe Black")
	assert.ErrorIs(t, err, repository.ErrConflict)
	_, err = c.SetMovieDirector(ctx, "Meet Joe Black", "Martin Brest")
	assert.ErrorIs(t, err, repository.ErrConflict)

	m, err := c.RenameMovie(ctx, "Quite Place", "a quiet place")
	require.NoError(t, err)
	assert.Equal(t, "A quiet place", m.Title)
	m, err = c.SetMovieDirector(ctx, "A quiet place", "John Krasinski")
	require.NoError(t, err)
	assert.Equal(t, "John Krasinski", m.Director)
	require.NoError(t, c.RemoveMovie(ctx, "a quiet place"))
	assert.Len(t, c.Movies(), 1)
}

func TestSessionsOn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _ := newCinema(t, Options{})
	_, err := c.ScheduleSession(ctx, ScheduleRequest{MovieTitle: "Meet Joe Black", Date: "2004-11-26", Start: "14:30", End: "15:50"})
	require.NoError(t, err)

	got, err := c.SessionsOn("2004-11-26")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	got, err = c.SessionsOn("2004-11-27")
	require.NoError(t, err)
	assert.Empty(t, got)
	_, err = c.SessionsOn("yesterday")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConcurrentScheduleAndRemoveKeepCatalogueConsistent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := persistence.NewMemoryStore()
	c := New(store, Options{Registry: []repository.Option{repository.WithConflictScope(repository.ScopeMovie)}})

	const n = 40
	for i := 0; i < n; i++ {
		_, err := c.AddMovie(ctx, fmt.Sprintf("Movie %d", i), "Director")
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		title := fmt.Sprintf("Movie %d", i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = c.ScheduleSession(ctx, ScheduleRequest{MovieTitle: title, Date: "2004-12-26", Start: "10:00", End: "11:00"})
		}()
		go func() {
			defer wg.Done()
			_ = c.RemoveMovie(ctx, title)
		}()
	}
	wg.Wait()

	catalogue := make(map[string]bool)
	for _, m := range c.Movies() {
		catalogue[m.Key()] = true
	}
	for _, s := range c.Sessions() {
		assert.True(t, catalogue[s.Movie.Key()], "session %d lost its movie", s.ID)
	}

	require.NoError(t, c.Save(ctx))
	restored := New(store, Options{Registry: []repository.Option{repository.WithConflictScope(repository.ScopeMovie)}})
	require.NoError(t, restored.Restore(ctx))
	assert.Len(t, restored.Sessions(), len(c.Sessions()))
}

func TestRestoreKeepsStoredScope(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, store := newCinema(t, Options{Registry: []repository.Option{repository.WithConflictScope(repository.ScopeMovie)}})
	_, err := c.ScheduleSession(ctx, ScheduleRequest{MovieTitle: "Quite Place", Date: "2004-12-26", Start: "15:30", End: "15:50"})
	require.NoError(t, err)
	_, err = c.ScheduleSession(ctx, ScheduleRequest{MovieTitle: "Meet Joe Black", Date: "2004-12-26", Start: "13:30", End: "16:50"})
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx))

	log, hook := logtest.NewNullLogger()
	restored := New(store, Options{Logger: log})
	require.NoError(t, restored.Restore(ctx))
	assert.Len(t, restored.Sessions(), 2)
	assert.Equal(t, repository.ScopeMovie, restored.Registry().Scope())

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["stored_scope"] == "movie" {
			warned = true
		}
	}
	assert.True(t, warned)
}

type closeCounter struct{ n int }

func (c *closeCounter) Close() error {
	c.n++
	return nil
}

func TestCloseReleasesRegisteredClosers(t *testing.T) {
	t.Parallel()
	c := New(persistence.NewMemoryStore(), Options{})
	first, second := &closeCounter{}, &closeCounter{}
	c.AddCloser(first)
	c.AddCloser(second)

	require.NoError(t, c.Close())
	assert.Equal(t, 1, first.n)
	assert.Equal(t, 1, second.n)
}
