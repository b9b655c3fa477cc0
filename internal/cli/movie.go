package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/cinema-sessions/internal/service"
)

func newMovieCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movie",
		Short: "Manage the movie catalogue",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCinema(cmd, app, false, func(c *service.Cinema) error {
				renderMovies(cmd.OutOrStdout(), c.Movies())
				return nil
			})
		},
	}

	add := &cobra.Command{
		Use:   "add TITLE DIRECTOR",
		Short: "Add a movie",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCinema(cmd, app, true, func(c *service.Cinema) error {
				m, err := c.AddMovie(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", m)
				return nil
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove TITLE",
		Short: "Remove a movie no session references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCinema(cmd, app, true, func(c *service.Cinema) error {
				if err := c.RemoveMovie(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %q\n", args[0])
				return nil
			})
		},
	}

	rename := &cobra.Command{
		Use:   "rename TITLE NEW_TITLE",
		Short: "Change a movie's title",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCinema(cmd, app, true, func(c *service.Cinema) error {
				m, err := c.RenameMovie(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "renamed to %s\n", m)
				return nil
			})
		},
	}

	director := &cobra.Command{
		Use:   "director TITLE DIRECTOR",
		Short: "Change a movie's director",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCinema(cmd, app, true, func(c *service.Cinema) error {
				m, err := c.SetMovieDirector(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", m)
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, remove, rename, director)
	return cmd
}
