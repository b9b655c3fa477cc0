package model

import "fmt"

// Default grid used when a session is scheduled without explicit
// dimensions.
const (
	DefaultRows    = 5
	DefaultColumns = 8
)

// Seat is one position in a SeatMap. Row and Column are 1-based.
type Seat struct {
	Row    int  `json:"row"`
	Column int  `json:"column"`
	Booked bool `json:"booked"`
}

// SeatMap is a fixed rows x columns grid of booking flags. A flag only
// ever moves from free to booked. SeatMap is not safe for concurrent use;
// its owning Session serializes access.
type SeatMap struct {
	rows    int
	columns int
	booked  []bool // row-major
}

// NewSeatMap returns a grid with every seat free.
func NewSeatMap(rows, columns int) (*SeatMap, error) {
	if rows <= 0 || columns <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, columns)
	}
	return &SeatMap{rows: rows, columns: columns, booked: make([]bool, rows*columns)}, nil
}

// RestoreSeatMap rebuilds a grid from row-major booking flags.
func RestoreSeatMap(rows, columns int, booked []bool) (*SeatMap, error) {
	m, err := NewSeatMap(rows, columns)
	if err != nil {
		return nil, err
	}
	if len(booked) != rows*columns {
		return nil, fmt.Errorf("%w: %d flags for a %dx%d grid", ErrInvalidDimensions, len(booked), rows, columns)
	}
	copy(m.booked, booked)
	return m, nil
}

func (m *SeatMap) Rows() int    { return m.rows }
func (m *SeatMap) Columns() int { return m.columns }

func (m *SeatMap) index(row, column int) (int, error) {
	if row < 1 || row > m.rows || column < 1 || column > m.columns {
		return 0, fmt.Errorf("%w: row %d column %d outside %dx%d", ErrOutOfRange, row, column, m.rows, m.columns)
	}
	return (row-1)*m.columns + (column - 1), nil
}

// Mark books the seat. Booking a seat twice fails with ErrAlreadyBooked
// and leaves it booked.
func (m *SeatMap) Mark(row, column int) error {
	i, err := m.index(row, column)
	if err != nil {
		return err
	}
	if m.booked[i] {
		return fmt.Errorf("%w: row %d column %d", ErrAlreadyBooked, row, column)
	}
	m.booked[i] = true
	return nil
}

// IsBooked reports the seat's flag, with the same range check as Mark.
func (m *SeatMap) IsBooked(row, column int) (bool, error) {
	i, err := m.index(row, column)
	if err != nil {
		return false, err
	}
	return m.booked[i], nil
}

// BookedCount returns how many seats are booked.
func (m *SeatMap) BookedCount() int {
	n := 0
	for _, b := range m.booked {
		if b {
			n++
		}
	}
	return n
}

// Seats lists every seat in row-major order.
func (m *SeatMap) Seats() []Seat {
	out := make([]Seat, 0, len(m.booked))
	for i, b := range m.booked {
		out = append(out, Seat{Row: i/m.columns + 1, Column: i%m.columns + 1, Booked: b})
	}
	return out
}

// Grid returns the flags as one slice per row.
func (m *SeatMap) Grid() [][]bool {
	grid := make([][]bool, m.rows)
	for r := range grid {
		grid[r] = append([]bool(nil), m.booked[r*m.columns:(r+1)*m.columns]...)
	}
	return grid
}

// Clone returns an independent copy.
func (m *SeatMap) Clone() *SeatMap {
	return &SeatMap{rows: m.rows, columns: m.columns, booked: append([]bool(nil), m.booked...)}
}
