// Package model holds the scheduling and seat-booking core: seat maps,
// sessions and the error kinds they return. Nothing in this package logs
// or prints; callers decide how failures reach the user.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidTimeRange is returned when a session does not start before it ends.
	ErrInvalidTimeRange = errors.New("invalid time range")
	// ErrSchedulingConflict is returned when a new session overlaps an existing one.
	ErrSchedulingConflict = errors.New("scheduling conflict")
	// ErrOutOfRange is returned when a seat coordinate falls outside the grid.
	ErrOutOfRange = errors.New("seat out of range")
	// ErrAlreadyBooked is returned when marking a seat that is already booked.
	ErrAlreadyBooked = errors.New("seat already booked")
	// ErrSessionNotFound is returned when no session has the requested identity.
	ErrSessionNotFound = errors.New("session not found")
	// ErrCorruptData is returned when persisted state cannot be restored.
	ErrCorruptData = errors.New("corrupt data")
	// ErrInvalidDimensions is returned for a seat grid with rows or columns below one.
	ErrInvalidDimensions = errors.New("invalid seat grid dimensions")
)

// SchedulingConflictError reports which stored sessions a rejected
// candidate overlaps. It matches ErrSchedulingConflict under errors.Is.
type SchedulingConflictError struct {
	Date      string
	Start     TimeOfDay
	End       TimeOfDay
	Conflicts []uint64
}

func (e *SchedulingConflictError) Error() string {
	ids := make([]string, len(e.Conflicts))
	for i, id := range e.Conflicts {
		ids[i] = strconv.FormatUint(id, 10)
	}
	return fmt.Sprintf("%s: %s %s-%s overlaps session(s) %s",
		ErrSchedulingConflict, e.Date, e.Start, e.End, strings.Join(ids, ", "))
}

func (e *SchedulingConflictError) Is(target error) bool {
	return target == ErrSchedulingConflict
}
