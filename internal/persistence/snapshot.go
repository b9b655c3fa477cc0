// Package persistence snapshots the session registry and movie catalogue
// to durable storage and restores them. Restoring is all-or-nothing: any
// structural problem fails the whole load with model.ErrCorruptData.
package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/iliyamo/cinema-sessions/internal/model"
	"github.com/iliyamo/cinema-sessions/internal/repository"
)

// FormatVersion is written into every document.
const FormatVersion = 1

// Snapshot is the state that is saved and restored together.
type Snapshot struct {
	Registry *repository.Registry
	Movies   []model.Movie
}

type document struct {
	Version       int               `json:"version"`
	ConflictScope string            `json:"conflict_scope,omitempty"`
	Movies        []model.Movie     `json:"movies"`
	Sessions      []sessionDocument `json:"sessions"`
}

type sessionDocument struct {
	ID    uint64        `json:"id"`
	Movie model.Movie   `json:"movie"`
	Date  string        `json:"date"`
	Start string        `json:"start"`
	End   string        `json:"end"`
	Seats seatsDocument `json:"seats"`
}

type seatsDocument struct {
	Rows    int      `json:"rows"`
	Columns int      `json:"columns"`
	Booked  [][]bool `json:"booked"` // row-major
}

// Encode serializes the snapshot. Sessions are written in identity order.
func Encode(s *Snapshot) ([]byte, error) {
	doc := toDocument(s)
	return json.MarshalIndent(doc, "", "  ")
}

// Decode parses a document produced by Encode. opts configure the restored
// registry (default seat grid, conflict scope).
func Decode(data []byte, opts ...repository.Option) (*Snapshot, error) {
	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrCorruptData, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", model.ErrCorruptData)
	}
	return fromDocument(doc, opts...)
}

func toDocument(s *Snapshot) document {
	doc := document{Version: FormatVersion, Movies: []model.Movie{}, Sessions: []sessionDocument{}}
	if s == nil {
		return doc
	}
	doc.Movies = append(doc.Movies, s.Movies...)
	if s.Registry == nil {
		return doc
	}
	doc.ConflictScope = s.Registry.Scope().String()
	for _, sess := range s.Registry.Sessions() {
		seats := sess.Seats()
		doc.Sessions = append(doc.Sessions, sessionDocument{
			ID:    sess.ID,
			Movie: sess.Movie,
			Date:  sess.DateString(),
			Start: sess.Start.String(),
			End:   sess.End.String(),
			Seats: seatsDocument{Rows: seats.Rows(), Columns: seats.Columns(), Booked: seats.Grid()},
		})
	}
	return doc
}

func fromDocument(doc document, opts ...repository.Option) (*Snapshot, error) {
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", model.ErrCorruptData, doc.Version)
	}
	var stored *repository.ConflictScope
	if doc.ConflictScope != "" {
		scope, err := repository.ParseConflictScope(doc.ConflictScope)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrCorruptData, err)
		}
		stored = &scope
	}

	catalogue := make(map[string]bool, len(doc.Movies))
	for _, m := range doc.Movies {
		if m.Key() == "" {
			return nil, fmt.Errorf("%w: movie without title", model.ErrCorruptData)
		}
		if catalogue[m.Key()] {
			return nil, fmt.Errorf("%w: duplicate movie %q", model.ErrCorruptData, m.Title)
		}
		catalogue[m.Key()] = true
	}

	sessions := make([]*model.Session, 0, len(doc.Sessions))
	for _, sd := range doc.Sessions {
		s, err := sd.session()
		if err != nil {
			return nil, fmt.Errorf("%w: session %d: %v", model.ErrCorruptData, sd.ID, err)
		}
		if len(catalogue) > 0 && !catalogue[s.Movie.Key()] {
			return nil, fmt.Errorf("%w: session %d references unknown movie %q", model.ErrCorruptData, sd.ID, s.Movie.Title)
		}
		sessions = append(sessions, s)
	}

	// The configured scope wins when the sessions satisfy it. Otherwise the
	// scope they were scheduled under is kept.
	reg, err := repository.RestoreRegistry(sessions, opts...)
	if err != nil && stored != nil && *stored != repository.NewRegistry(opts...).Scope() {
		reg, err = repository.RestoreRegistry(sessions, append(opts[:len(opts):len(opts)], repository.WithConflictScope(*stored))...)
	}
	if err != nil {
		return nil, err
	}
	return &Snapshot{Registry: reg, Movies: append([]model.Movie(nil), doc.Movies...)}, nil
}

func (sd sessionDocument) session() (*model.Session, error) {
	if sd.Movie.Key() == "" {
		return nil, errors.New("movie without title")
	}
	date, err := model.ParseDate(sd.Date)
	if err != nil {
		return nil, err
	}
	start, err := model.ParseTimeOfDay(sd.Start)
	if err != nil {
		return nil, err
	}
	end, err := model.ParseTimeOfDay(sd.End)
	if err != nil {
		return nil, err
	}
	if sd.Seats.Rows <= 0 || sd.Seats.Columns <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", model.ErrInvalidDimensions, sd.Seats.Rows, sd.Seats.Columns)
	}
	if len(sd.Seats.Booked) != sd.Seats.Rows {
		return nil, fmt.Errorf("%d seat rows recorded for a %d row grid", len(sd.Seats.Booked), sd.Seats.Rows)
	}
	// Every row is checked before anything is sized from the declared width.
	for i, row := range sd.Seats.Booked {
		if len(row) != sd.Seats.Columns {
			return nil, fmt.Errorf("row %d has %d seats, want %d", i+1, len(row), sd.Seats.Columns)
		}
	}
	flags := make([]bool, 0, len(sd.Seats.Booked)*sd.Seats.Columns)
	for _, row := range sd.Seats.Booked {
		flags = append(flags, row...)
	}
	seats, err := model.RestoreSeatMap(sd.Seats.Rows, sd.Seats.Columns, flags)
	if err != nil {
		return nil, err
	}
	return model.RestoreSession(sd.ID, sd.Movie, date, start, end, seats)
}
