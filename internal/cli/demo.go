package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iliyamo/cinema-sessions/internal/persistence"
	"github.com/iliyamo/cinema-sessions/internal/repository"
	"github.com/iliyamo/cinema-sessions/internal/service"
)

type demoStep struct {
	label string
	run   func(ctx context.Context, c *service.Cinema) (string, error)
}

func schedule(title, date, start, end string) func(context.Context, *service.Cinema) (string, error) {
	return func(ctx context.Context, c *service.Cinema) (string, error) {
		s, err := c.ScheduleSession(ctx, service.ScheduleRequest{MovieTitle: title, Date: date, Start: start, End: end})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("session #%d", s.ID), nil
	}
}

func book(id uint64, row, col int) func(context.Context, *service.Cinema) (string, error) {
	return func(ctx context.Context, c *service.Cinema) (string, error) {
		return "booked", c.BookSeat(ctx, id, row, col)
	}
}

func isBooked(id uint64, row, col int) func(context.Context, *service.Cinema) (string, error) {
	return func(_ context.Context, c *service.Cinema) (string, error) {
		ok, err := c.IsSeatBooked(id, row, col)
		return fmt.Sprintf("booked=%t", ok), err
	}
}

var demoSteps = []demoStep{
	{"schedule A: Meet Joe Black 2004-11-26 14:30-15:50", schedule("Meet Joe Black", "2004-11-26", "14:30", "15:50")},
	{"schedule B: Quite Place 2004-12-26 15:30-15:50", schedule("Quite Place", "2004-12-26", "15:30", "15:50")},
	{"schedule C: Meet Joe Black 2004-12-26 13:30-16:50", schedule("Meet Joe Black", "2004-12-26", "13:30", "16:50")},
	{"schedule D: Meet Joe Black 2004-12-26 14:30-16:50", schedule("Meet Joe Black", "2004-12-26", "14:30", "16:50")},
	{"schedule E: Meet Joe Black 2004-12-26 16:50-15:00", schedule("Meet Joe Black", "2004-12-26", "16:50", "15:00")},
	{"book #1 row 1 seat 6", book(1, 1, 6)},
	{"book #1 row 1 seat 6 again", book(1, 1, 6)},
	{"is #1 row 1 seat 6 booked", isBooked(1, 1, 6)},
	{"book #1 row 99 seat 1", book(1, 99, 1)},
	{"book #99 row 1 seat 1", book(99, 1, 1)},
}

// scopeNote heads the demo output. Session C only gets identity 3 when
// sessions of different movies may overlap.
func scopeNote(scope repository.ConflictScope) string {
	if scope == repository.ScopeMovie {
		return fmt.Sprintf("conflict scope: %s (reproduces the reference scenario; C is session #3)", scope)
	}
	return fmt.Sprintf("conflict scope: %s (C, D and E are rejected; run with --scope movie or CONFLICT_SCOPE=movie to schedule C as #3)", scope)
}

// RunDemo plays the reference scenario on a fresh in-memory cinema and
// writes one line per step.
func RunDemo(ctx context.Context, out io.Writer, opts service.Options) error {
	c := service.New(persistence.NewMemoryStore(), opts)
	if _, err := c.AddMovie(ctx, "Meet Joe Black", "Director"); err != nil {
		return err
	}
	if _, err := c.AddMovie(ctx, "Quite Place", "Director"); err != nil {
		return err
	}
	fmt.Fprintln(out, scopeNote(c.Registry().Scope()))
	for _, step := range demoSteps {
		result, err := step.run(ctx, c)
		if err != nil {
			result = "rejected: " + err.Error()
		}
		fmt.Fprintf(out, "%-52s %s\n", step.label, result)
	}
	renderSessions(out, c.Sessions())
	return nil
}

func newDemoCmd(app *App) *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the reference scheduling scenario in memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			opts := append([]repository.Option(nil), app.Registry...)
			if scope != "" {
				sc, err := repository.ParseConflictScope(scope)
				if err != nil {
					return fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
				}
				opts = append(opts, repository.WithConflictScope(sc))
			}
			return RunDemo(ctx, cmd.OutOrStdout(), service.Options{Registry: opts})
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "conflict scope for this run: screen or movie (default from CONFLICT_SCOPE)")
	return cmd
}
