package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-sessions/internal/model"
	"github.com/iliyamo/cinema-sessions/internal/persistence"
	"github.com/iliyamo/cinema-sessions/internal/queue"
	"github.com/iliyamo/cinema-sessions/internal/repository"
)

// ErrInvalidInput wraps caller input that could not be parsed.
var ErrInvalidInput = errors.New("invalid input")

// Options configure a Cinema.
type Options struct {
	Registry  []repository.Option
	Autosave  bool
	Publisher Publisher
	Logger    logrus.FieldLogger
}

// Cinema is the application service in front of the registry and movie
// catalogue. It owns the single Registry instance of the process; every
// caller receives it through this value rather than a package global.
type Cinema struct {
	mu       sync.RWMutex // guards registry/movies replacement on Restore
	registry *repository.Registry
	movies   *repository.MovieRepo

	// catalogMu serialises everything that reads or changes the link between
	// sessions and catalogue movies, so a session never outlives its movie.
	catalogMu sync.Mutex

	store     persistence.Store
	regOpts   []repository.Option
	autosave  bool
	publisher Publisher
	log       logrus.FieldLogger
	closers   []io.Closer
}

// New returns a Cinema with empty state.
func New(store persistence.Store, opts Options) *Cinema {
	c := &Cinema{
		store:     store,
		regOpts:   opts.Registry,
		autosave:  opts.Autosave,
		publisher: opts.Publisher,
		log:       opts.Logger,
	}
	if c.publisher == nil {
		c.publisher = NopPublisher{}
	}
	if c.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		c.log = l
	}
	c.registry = repository.NewRegistry(c.regOpts...)
	c.movies = repository.NewMovieRepo(c.registry)
	return c
}

func (c *Cinema) state() (*repository.Registry, *repository.MovieRepo) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registry, c.movies
}

// Registry exposes the session registry.
func (c *Cinema) Registry() *repository.Registry {
	reg, _ := c.state()
	return reg
}

// Restore replaces the in-memory state with the stored snapshot. An empty
// store leaves the state empty. On model.ErrCorruptData the current state
// is kept and the error returned.
func (c *Cinema) Restore(ctx context.Context) error {
	snap, err := c.store.Load(ctx, c.regOpts...)
	if errors.Is(err, persistence.ErrNoSnapshot) {
		c.log.Info("no snapshot stored; starting empty")
		return nil
	}
	if err != nil {
		return err
	}
	if want := repository.NewRegistry(c.regOpts...).Scope(); snap.Registry.Scope() != want {
		c.log.WithField("stored_scope", snap.Registry.Scope().String()).
			WithField("configured_scope", want.String()).
			Warn("stored sessions conflict under the configured scope; keeping the stored scope")
	}

	movies := repository.NewMovieRepo(snap.Registry)
	for _, m := range snap.Movies {
		if _, err := movies.Add(m.Title, m.Director); err != nil {
			return fmt.Errorf("%w: movie %q: %v", model.ErrCorruptData, m.Title, err)
		}
	}

	c.catalogMu.Lock()
	c.mu.Lock()
	c.registry, c.movies = snap.Registry, movies
	c.mu.Unlock()
	c.catalogMu.Unlock()
	c.log.WithField("sessions", snap.Registry.Len()).WithField("movies", len(snap.Movies)).Info("snapshot restored")
	return nil
}

// Save writes the current state to the store.
func (c *Cinema) Save(ctx context.Context) error {
	c.catalogMu.Lock()
	defer c.catalogMu.Unlock()
	reg, movies := c.state()
	if err := c.store.Save(ctx, &persistence.Snapshot{Registry: reg, Movies: movies.List()}); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	c.log.WithField("sessions", reg.Len()).Debug("snapshot saved")
	return nil
}

func (c *Cinema) afterMutation(ctx context.Context, ev *queue.Event) error {
	if ev != nil {
		if err := c.publisher.Publish(ctx, *ev); err != nil {
			c.log.WithError(err).WithField("event_type", ev.Type).Warn("event not published")
		}
	}
	if c.autosave {
		return c.Save(ctx)
	}
	return nil
}

// ScheduleRequest carries a session request as typed by a caller.
type ScheduleRequest struct {
	MovieTitle string `json:"movie_title"`
	Date       string `json:"date"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// ScheduleSession resolves the movie, parses the date and times and adds
// the session. It returns the stored session.
func (c *Cinema) ScheduleSession(ctx context.Context, req ScheduleRequest) (*model.Session, error) {
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	start, err := model.ParseTimeOfDay(req.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	end, err := model.ParseTimeOfDay(req.End)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	c.catalogMu.Lock()
	reg, movies := c.state()
	movie, err := movies.FindByTitle(req.MovieTitle)
	if err != nil {
		c.catalogMu.Unlock()
		return nil, err
	}
	id, err := reg.AddSession(movie, date, start, end)
	c.catalogMu.Unlock()
	if err != nil {
		c.log.WithError(err).WithField("movie", movie.Title).Info("session rejected")
		return nil, err
	}
	s, err := reg.GetByID(id)
	if err != nil {
		return nil, err
	}
	c.log.WithField("session_id", id).WithField("movie", movie.Title).Info("session scheduled")

	ev := queue.NewSessionScheduled(s)
	return s, c.afterMutation(ctx, &ev)
}

// BookSeat books one seat on a session.
func (c *Cinema) BookSeat(ctx context.Context, sessionID uint64, row, column int) error {
	reg, _ := c.state()
	if err := reg.MarkSeatOnSession(sessionID, row, column); err != nil {
		return err
	}
	s, err := reg.GetByID(sessionID)
	if err != nil {
		return err
	}
	c.log.WithField("session_id", sessionID).WithField("row", row).WithField("column", column).Info("seat booked")

	ev := queue.NewSeatBooked(s, row, column)
	return c.afterMutation(ctx, &ev)
}

// IsSeatBooked reports a seat's state.
func (c *Cinema) IsSeatBooked(sessionID uint64, row, column int) (bool, error) {
	reg, _ := c.state()
	return reg.IsSeatBooked(sessionID, row, column)
}

// Session returns one session by identity.
func (c *Cinema) Session(id uint64) (*model.Session, error) {
	reg, _ := c.state()
	return reg.GetByID(id)
}

// Sessions returns every session in identity order.
func (c *Cinema) Sessions() []*model.Session {
	reg, _ := c.state()
	return reg.Sessions()
}

// SessionsOn returns the sessions on an ISO date.
func (c *Cinema) SessionsOn(date string) ([]*model.Session, error) {
	d, err := model.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	reg, _ := c.state()
	return reg.SessionsOn(d), nil
}

// Movies lists the catalogue.
func (c *Cinema) Movies() []model.Movie {
	_, movies := c.state()
	return movies.List()
}

// FindMovie looks a movie up by title.
func (c *Cinema) FindMovie(title string) (model.Movie, error) {
	_, movies := c.state()
	return movies.FindByTitle(title)
}

// AddMovie adds a movie to the catalogue.
func (c *Cinema) AddMovie(ctx context.Context, title, director string) (model.Movie, error) {
	c.catalogMu.Lock()
	_, movies := c.state()
	m, err := movies.Add(title, director)
	c.catalogMu.Unlock()
	if err != nil {
		return model.Movie{}, err
	}
	c.log.WithField("movie", m.Title).Info("movie added")
	return m, c.afterMutation(ctx, nil)
}

// RemoveMovie deletes a movie no session references.
func (c *Cinema) RemoveMovie(ctx context.Context, title string) error {
	c.catalogMu.Lock()
	_, movies := c.state()
	err := movies.Remove(title)
	c.catalogMu.Unlock()
	if err != nil {
		return err
	}
	c.log.WithField("movie", strings.TrimSpace(title)).Info("movie removed")
	return c.afterMutation(ctx, nil)
}

// RenameMovie changes the title of an unreferenced movie.
func (c *Cinema) RenameMovie(ctx context.Context, title, newTitle string) (model.Movie, error) {
	c.catalogMu.Lock()
	_, movies := c.state()
	m, err := movies.Rename(title, newTitle)
	c.catalogMu.Unlock()
	if err != nil {
		return model.Movie{}, err
	}
	c.log.WithField("movie", m.Title).Info("movie renamed")
	return m, c.afterMutation(ctx, nil)
}

// SetMovieDirector changes the director of an unreferenced movie.
func (c *Cinema) SetMovieDirector(ctx context.Context, title, director string) (model.Movie, error) {
	c.catalogMu.Lock()
	_, movies := c.state()
	m, err := movies.SetDirector(title, director)
	c.catalogMu.Unlock()
	if err != nil {
		return model.Movie{}, err
	}
	c.log.WithField("movie", m.Title).Info("movie director changed")
	return m, c.afterMutation(ctx, nil)
}

// AddCloser registers a resource that Close releases after the store,
// such as a client the store was built on but does not own.
func (c *Cinema) AddCloser(cl io.Closer) {
	c.closers = append(c.closers, cl)
}

// Close releases the store and then every registered closer. It returns the
// first error but always runs them all.
func (c *Cinema) Close() error {
	err := c.store.Close()
	for _, cl := range c.closers {
		if cerr := cl.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
