package repository

import (
	"fmt"
	"strings"
	"sync"

	"github.com/iliyamo/cinema-sessions/internal/model"
)

// MovieReferences answers whether scheduled sessions still screen a movie.
// *Registry implements it.
type MovieReferences interface {
	ReferencesMovie(title string) bool
}

// MovieRepo is the movie catalogue. Titles are matched case-insensitively
// and stored with a capitalised first letter. Movies referenced by a
// session cannot be removed or edited.
type MovieRepo struct {
	mu     sync.RWMutex
	movies []model.Movie
	refs   MovieReferences
}

// NewMovieRepo constructs an empty catalogue. refs may be nil when no
// sessions exist.
func NewMovieRepo(refs MovieReferences) *MovieRepo {
	return &MovieRepo{refs: refs}
}

func (r *MovieRepo) indexOf(title string) int {
	key := model.MovieKey(title)
	for i, m := range r.movies {
		if m.Key() == key {
			return i
		}
	}
	return -1
}

func (r *MovieRepo) referenced(title string) bool {
	return r.refs != nil && r.refs.ReferencesMovie(title)
}

// Add stores a new movie and returns it in stored form.
func (r *MovieRepo) Add(title, director string) (model.Movie, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(director) == "" {
		return model.Movie{}, fmt.Errorf("%w: title and director are required", ErrInvalidMovie)
	}
	m := model.Movie{Title: model.CapitalizeFirst(title), Director: model.CapitalizeFirst(director)}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(m.Title) >= 0 {
		return model.Movie{}, fmt.Errorf("%w: %q", ErrMovieExists, m.Title)
	}
	r.movies = append(r.movies, m)
	return m, nil
}

// FindByTitle returns the movie with the given title or ErrMovieNotFound.
func (r *MovieRepo) FindByTitle(title string) (model.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexOf(title)
	if i < 0 {
		return model.Movie{}, fmt.Errorf("%w: %q", ErrMovieNotFound, strings.TrimSpace(title))
	}
	return r.movies[i], nil
}

// List returns the catalogue in insertion order.
func (r *MovieRepo) List() []model.Movie {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Movie(nil), r.movies...)
}

// Remove deletes a movie that no session references.
func (r *MovieRepo) Remove(title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(title)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrMovieNotFound, strings.TrimSpace(title))
	}
	if r.referenced(title) {
		return fmt.Errorf("%w: %q has scheduled sessions", ErrConflict, r.movies[i].Title)
	}
	r.movies = append(r.movies[:i], r.movies[i+1:]...)
	return nil
}

// Rename changes a movie's title.
func (r *MovieRepo) Rename(title, newTitle string) (model.Movie, error) {
	return r.edit(title, func(m *model.Movie) error {
		if strings.TrimSpace(newTitle) == "" {
			return fmt.Errorf("%w: title is required", ErrInvalidMovie)
		}
		next := model.CapitalizeFirst(newTitle)
		if next == m.Title {
			return ErrNoChange
		}
		if j := r.indexOf(next); j >= 0 && r.movies[j].Key() != m.Key() {
			return fmt.Errorf("%w: %q", ErrMovieExists, next)
		}
		m.Title = next
		return nil
	})
}

// SetDirector changes a movie's director.
func (r *MovieRepo) SetDirector(title, director string) (model.Movie, error) {
	return r.edit(title, func(m *model.Movie) error {
		if strings.TrimSpace(director) == "" {
			return fmt.Errorf("%w: director is required", ErrInvalidMovie)
		}
		next := model.CapitalizeFirst(director)
		if next == m.Director {
			return ErrNoChange
		}
		m.Director = next
		return nil
	})
}

func (r *MovieRepo) edit(title string, apply func(*model.Movie) error) (model.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(title)
	if i < 0 {
		return model.Movie{}, fmt.Errorf("%w: %q", ErrMovieNotFound, strings.TrimSpace(title))
	}
	if r.referenced(title) {
		return model.Movie{}, fmt.Errorf("%w: %q has scheduled sessions", ErrConflict, r.movies[i].Title)
	}
	m := r.movies[i]
	if err := apply(&m); err != nil {
		return model.Movie{}, err
	}
	r.movies[i] = m
	return m, nil
}
