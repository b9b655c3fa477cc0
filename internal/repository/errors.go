// Package repository keeps the in-memory state of the cinema: the session
// registry and the movie catalogue. The sentinel values below let higher
// layers such as handlers tell failure scenarios apart.
package repository

import "errors"

// ErrConflict is returned when a movie cannot be removed or edited because
// scheduled sessions still reference it. Handlers translate it into 409.
var ErrConflict = errors.New("conflict")

// ErrMovieNotFound indicates that no movie matches the requested title.
var ErrMovieNotFound = errors.New("movie not found")

// ErrMovieExists is returned when adding or renaming would duplicate a title.
var ErrMovieExists = errors.New("movie already exists")

// ErrInvalidMovie is returned for a blank title or director.
var ErrInvalidMovie = errors.New("invalid movie")

// ErrNoChange indicates an edit that would set fields equal to current values.
var ErrNoChange = errors.New("no change")
