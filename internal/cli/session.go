package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iliyamo/cinema-sessions/internal/service"
)

func parseSessionID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: session id %q", service.ErrInvalidInput, s)
	}
	return id, nil
}

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Schedule and inspect sessions",
	}

	var date string
	list := &cobra.Command{
		Use:   "list",
		Short: "List sessions in identity order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCinema(cmd, app, false, func(c *service.Cinema) error {
				sessions := c.Sessions()
				if date != "" {
					var err error
					if sessions, err = c.SessionsOn(date); err != nil {
						return err
					}
				}
				renderSessions(cmd.OutOrStdout(), sessions)
				return nil
			})
		},
	}
	list.Flags().StringVar(&date, "date", "", "only sessions on this date (YYYY-MM-DD)")

	var req service.ScheduleRequest
	add := &cobra.Command{
		Use:   "add",
		Short: "Schedule a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCinema(cmd, app, true, func(c *service.Cinema) error {
				s, err := c.ScheduleSession(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "scheduled %s\n", s.Describe())
				return nil
			})
		},
	}
	add.Flags().StringVar(&req.MovieTitle, "movie", "", "movie title")
	add.Flags().StringVar(&req.Date, "date", "", "date (YYYY-MM-DD)")
	add.Flags().StringVar(&req.Start, "start", "", "start time (HH:MM)")
	add.Flags().StringVar(&req.End, "end", "", "end time (HH:MM)")
	for _, f := range []string{"movie", "date", "start", "end"} {
		_ = add.MarkFlagRequired(f)
	}

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show a session and its seat grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			return withCinema(cmd, app, false, func(c *service.Cinema) error {
				s, err := c.Session(id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), s.Describe())
				renderSeats(cmd.OutOrStdout(), s.Seats())
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, show)
	return cmd
}

func newSeatCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seat",
		Short: "Book seats",
	}
	book := &cobra.Command{
		Use:   "book ID ROW COLUMN",
		Short: "Book one seat on a session",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			row, err1 := strconv.Atoi(args[1])
			col, err2 := strconv.Atoi(args[2])
			if err1 != nil || err2 != nil {
				return fmt.Errorf("%w: row and column must be integers", service.ErrInvalidInput)
			}
			return withCinema(cmd, app, true, func(c *service.Cinema) error {
				if err := c.BookSeat(cmd.Context(), id, row, col); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "booked row %d seat %d on session #%d\n", row, col, id)
				return nil
			})
		},
	}
	cmd.AddCommand(book)
	return cmd
}
