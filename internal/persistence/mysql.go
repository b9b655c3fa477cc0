package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-sessions/internal/model"
	"github.com/iliyamo/cinema-sessions/internal/repository"
)

const settingConflictScope = "conflict_scope"

// MySQLStore keeps the snapshot relationally: one row per movie and one
// row per session, with the seat grid packed into a row-major string of
// '0'/'1' flags. The conflict scope is a row in settings. Save replaces
// all three tables inside one transaction.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (m *MySQLStore) Save(ctx context.Context, s *Snapshot) (err error) {
	doc := toDocument(s)

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM movies`); err != nil {
		return fmt.Errorf("clear movies: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM settings`); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}
	if doc.ConflictScope != "" {
		if _, err = tx.ExecContext(ctx, `INSERT INTO settings (name, value) VALUES (?, ?)`, settingConflictScope, doc.ConflictScope); err != nil {
			return fmt.Errorf("insert conflict scope: %w", err)
		}
	}

	const insMovie = `INSERT INTO movies (position, title, director) VALUES (?, ?, ?)`
	for i, mv := range doc.Movies {
		if _, err = tx.ExecContext(ctx, insMovie, i+1, mv.Title, mv.Director); err != nil {
			return fmt.Errorf("insert movie %q: %w", mv.Title, err)
		}
	}

	const insSession = `INSERT INTO sessions (id, movie_title, movie_director, show_date, starts_at, ends_at, seat_rows, seat_cols, seats)
                        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, sd := range doc.Sessions {
		if _, err = tx.ExecContext(ctx, insSession,
			sd.ID, sd.Movie.Title, sd.Movie.Director, sd.Date, sd.Start, sd.End,
			sd.Seats.Rows, sd.Seats.Columns, packSeats(sd.Seats.Booked),
		); err != nil {
			return fmt.Errorf("insert session %d: %w", sd.ID, err)
		}
	}
	return nil
}

func (m *MySQLStore) Load(ctx context.Context, opts ...repository.Option) (*Snapshot, error) {
	doc := document{Version: FormatVersion}

	err := m.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE name = ?`, settingConflictScope).Scan(&doc.ConflictScope)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("select conflict scope: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `SELECT title, director FROM movies ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("select movies: %w", err)
	}
	for rows.Next() {
		var mv model.Movie
		if err := rows.Scan(&mv.Title, &mv.Director); err != nil {
			_ = rows.Close()
			return nil, err
		}
		doc.Movies = append(doc.Movies, mv)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	const q = `SELECT id, movie_title, movie_director, show_date, starts_at, ends_at, seat_rows, seat_cols, seats
               FROM sessions ORDER BY id ASC`
	rows, err = m.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			sd     sessionDocument
			packed string
		)
		if err := rows.Scan(
			&sd.ID, &sd.Movie.Title, &sd.Movie.Director, &sd.Date, &sd.Start, &sd.End,
			&sd.Seats.Rows, &sd.Seats.Columns, &packed,
		); err != nil {
			return nil, err
		}
		sd.Seats.Booked = unpackSeats(packed, sd.Seats.Columns)
		doc.Sessions = append(doc.Sessions, sd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(doc.Movies) == 0 && len(doc.Sessions) == 0 {
		return nil, ErrNoSnapshot
	}
	return fromDocument(doc, opts...)
}

func (m *MySQLStore) Close() error {
	return m.db.Close()
}

func packSeats(grid [][]bool) string {
	var b strings.Builder
	for _, row := range grid {
		for _, booked := range row {
			if booked {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
	}
	return b.String()
}

// unpackSeats splits packed flags into rows of the given width. Any byte
// other than '0' or '1', or a length that is not a multiple of columns,
// yields a grid that fromDocument rejects.
func unpackSeats(packed string, columns int) [][]bool {
	if columns <= 0 || len(packed)%columns != 0 {
		return [][]bool{make([]bool, len(packed))}
	}
	grid := make([][]bool, 0, len(packed)/columns)
	for i := 0; i < len(packed); i += columns {
		row := make([]bool, columns)
		for j := 0; j < columns; j++ {
			switch packed[i+j] {
			case '1':
				row[j] = true
			case '0':
			default:
				return nil
			}
		}
		grid = append(grid, row)
	}
	return grid
}
