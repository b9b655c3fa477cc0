// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-sessions/internal/model"
)

// QueueName is the durable queue every event is routed to.
const QueueName = "cinema.events"

// Event types.
const (
	SessionScheduled = "session.scheduled"
	SeatBooked       = "seat.booked"
)

// Event is published after a session is scheduled or a seat is booked. It
// carries enough information for downstream consumers to log or notify
// without querying the service.
type Event struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	SessionID     uint64 `json:"session_id"`
	MovieTitle    string `json:"movie_title"`
	MovieDirector string `json:"movie_director"`
	Date          string `json:"date"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Row           int    `json:"row,omitempty"`
	Column        int    `json:"column,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}

func newEvent(kind string, s *model.Session) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          kind,
		SessionID:     s.ID,
		MovieTitle:    s.Movie.Title,
		MovieDirector: s.Movie.Director,
		Date:          s.DateString(),
		Start:         s.Start.String(),
		End:           s.End.String(),
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
}

// NewSessionScheduled describes a freshly stored session.
func NewSessionScheduled(s *model.Session) Event {
	return newEvent(SessionScheduled, s)
}

// NewSeatBooked describes a booking on a session.
func NewSeatBooked(s *model.Session, row, column int) Event {
	ev := newEvent(SeatBooked, s)
	ev.Row = row
	ev.Column = column
	return ev
}

// Line renders the event as a single log line.
func (e Event) Line() string {
	line := fmt.Sprintf("[%s] %s | event_id=%s | session_id=%d | movie=%q | date=%s | time=%s-%s",
		e.OccurredAt, e.Type, e.ID, e.SessionID, e.MovieTitle, e.Date, e.Start, e.End)
	if e.Type == SeatBooked {
		line += fmt.Sprintf(" | seat=%d/%d", e.Row, e.Column)
	}
	return line + "\n"
}
