// Package cli is the cinemactl command tree. Every command opens the
// configured state, runs one operation through service.Cinema and saves
// when it changed something.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/iliyamo/cinema-sessions/internal/model"
	"github.com/iliyamo/cinema-sessions/internal/repository"
	"github.com/iliyamo/cinema-sessions/internal/service"
)

// App carries what the commands need from the binary.
type App struct {
	// Open returns the restored cinema state. Commands close it when done.
	Open func(ctx context.Context) (*service.Cinema, error)
	// Registry configures the throwaway registry used by demo.
	Registry []repository.Option
}

// NewRootCmd builds the cinemactl command tree.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "cinemactl",
		Short:         "Cinema session scheduling CLI",
		Long:          `Schedule movie sessions, book seats and manage the movie catalogue from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMovieCmd(app), newSessionCmd(app), newSeatCmd(app), newDemoCmd(app), newHashPasswordCmd())
	return root
}

// withCinema opens the state, runs fn and saves when mutate is set.
func withCinema(cmd *cobra.Command, app *App, mutate bool, fn func(*service.Cinema) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := app.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := fn(c); err != nil {
		return err
	}
	if mutate {
		return c.Save(ctx)
	}
	return nil
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	return t
}

func renderMovies(out io.Writer, movies []model.Movie) {
	t := newTable(out)
	t.AppendHeader(table.Row{"#", "Title", "Director"})
	for i, m := range movies {
		t.AppendRow(table.Row{i + 1, m.Title, m.Director})
	}
	t.Render()
}

func renderSessions(out io.Writer, sessions []*model.Session) {
	t := newTable(out)
	t.AppendHeader(table.Row{"ID", "Movie", "Director", "Date", "Start", "End", "Booked"})
	for _, s := range sessions {
		seats := s.Seats()
		t.AppendRow(table.Row{
			s.ID, s.Movie.Title, s.Movie.Director, s.DateString(), s.Start.String(), s.End.String(),
			fmt.Sprintf("%d/%d", seats.BookedCount(), seats.Rows()*seats.Columns()),
		})
	}
	t.Render()
}

// renderSeats prints the grid with X for booked seats.
func renderSeats(out io.Writer, seats *model.SeatMap) {
	t := newTable(out)
	header := table.Row{""}
	for col := 1; col <= seats.Columns(); col++ {
		header = append(header, col)
	}
	t.AppendHeader(header)
	for i, row := range seats.Grid() {
		r := table.Row{"R" + strconv.Itoa(i+1)}
		for _, booked := range row {
			if booked {
				r = append(r, "X")
			} else {
				r = append(r, ".")
			}
		}
		t.AppendRow(r)
	}
	t.Render()
}
