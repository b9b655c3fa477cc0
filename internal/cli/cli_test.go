package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-sessions/internal/model"
	"github.com/iliyamo/cinema-sessions/internal/persistence"
	"github.com/iliyamo/cinema-sessions/internal/repository"
	"github.com/iliyamo/cinema-sessions/internal/service"
	"github.com/iliyamo/cinema-sessions/internal/utils"
)

// memoryApp reopens the same store for every command, like the binary
// does with the configured backend.
func memoryApp(store *persistence.MemoryStore) *App {
	return &App{
		Open: func(ctx context.Context) (*service.Cinema, error) {
			c := service.New(store, service.Options{})
			return c, c.Restore(ctx)
		},
	}
}

func run(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(app)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMovieCommands(t *testing.T) {
	t.Parallel()
	store := persistence.NewMemoryStore()
	app := memoryApp(store)

	out, err := run(t, app, "movie", "add", "heat", "michael mann")
	require.NoError(t, err)
	assert.Contains(t, out, `"Heat" (Michael mann)`)

	_, err = run(t, app, "movie", "add", "HEAT", "someone")
	assert.ErrorIs(t, err, repository.ErrMovieExists)

	_, err = run(t, app, "movie", "rename", "heat", "Heat 2")
	require.NoError(t, err)
	_, err = run(t, app, "movie", "director", "heat 2", "Michael Mann")
	require.NoError(t, err)

	out, err = run(t, app, "movie", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Heat 2")
	assert.Contains(t, out, "Michael Mann")

	_, err = run(t, app, "movie", "remove", "heat 2")
	require.NoError(t, err)
	out, err = run(t, app, "movie", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Heat")

	_, err = run(t, app, "movie", "add", "only-title")
	assert.Error(t, err)
}

func TestSessionAndSeatCommands(t *testing.T) {
	t.Parallel()
	store := persistence.NewMemoryStore()
	app := memoryApp(store)

	_, err := run(t, app, "movie", "add", "Meet Joe Black", "Director")
	require.NoError(t, err)

	out, err := run(t, app, "session", "add", "--movie", "meet joe black", "--date", "2004-11-26", "--start", "14:30", "--end", "15:50")
	require.NoError(t, err)
	assert.Contains(t, out, "#1 Meet Joe Black")

	_, err = run(t, app, "session", "add", "--movie", "Meet Joe Black", "--date", "2004-11-26", "--start", "15:00", "--end", "16:00")
	assert.ErrorIs(t, err, model.ErrSchedulingConflict)

	_, err = run(t, app, "session", "add", "--movie", "Meet Joe Black", "--date", "2004-11-26")
	assert.Error(t, err)

	_, err = run(t, app, "seat", "book", "1", "2", "3")
	require.NoError(t, err)
	_, err = run(t, app, "seat", "book", "1", "2", "3")
	assert.ErrorIs(t, err, model.ErrAlreadyBooked)
	_, err = run(t, app, "seat", "book", "1", "9", "3")
	assert.ErrorIs(t, err, model.ErrOutOfRange)
	_, err = run(t, app, "seat", "book", "x", "1", "1")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	out, err = run(t, app, "session", "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "R2")
	assert.Equal(t, 1, strings.Count(out, "X"))

	_, err = run(t, app, "session", "show", "7")
	assert.ErrorIs(t, err, model.ErrSessionNotFound)

	out, err = run(t, app, "session", "list", "--date", "2004-11-26")
	require.NoError(t, err)
	assert.Contains(t, out, "1/40")

	// Referenced movies stay put.
	_, err = run(t, app, "movie", "remove", "Meet Joe Black")
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestDemo(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	require.NoError(t, RunDemo(context.Background(), &out, service.Options{}))
	lines := strings.Split(out.String(), "\n")

	assert.Contains(t, lines[0], "screen")
	assert.Contains(t, lines[0], "--scope movie")
	assert.Contains(t, lines[1], "session #1")
	assert.Contains(t, lines[2], "session #2")
	// C and D both cover B on 2004-12-26.
	assert.Contains(t, lines[3], "rejected")
	assert.Contains(t, lines[4], "rejected")
	assert.Contains(t, lines[5], "rejected")
	assert.NotContains(t, lines[6], "rejected")
	assert.Contains(t, lines[7], "rejected")
	assert.Contains(t, lines[8], "booked=true")
	assert.Contains(t, lines[9], "rejected")
	assert.Contains(t, lines[10], "rejected")
}

func TestDemoMovieScope(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	opts := service.Options{Registry: []repository.Option{repository.WithConflictScope(repository.ScopeMovie)}}
	require.NoError(t, RunDemo(context.Background(), &out, opts))
	lines := strings.Split(out.String(), "\n")

	assert.Contains(t, lines[0], "conflict scope: movie")
	assert.Contains(t, lines[0], "reproduces the reference scenario")
	assert.Contains(t, lines[3], "session #3")
	assert.Contains(t, lines[4], "rejected")
	assert.Contains(t, lines[5], "rejected")
}

func TestDemoScopeFlag(t *testing.T) {
	t.Parallel()
	out, err := run(t, &App{}, "demo", "--scope", "movie")
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	assert.Contains(t, lines[0], "conflict scope: movie")
	assert.Contains(t, lines[3], "session #3")

	_, err = run(t, &App{}, "demo", "--scope", "hall")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestHashPassword(t *testing.T) {
	t.Parallel()
	out, err := run(t, &App{}, "hash-password", "hunter2", "--cost", "4")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.True(t, utils.VerifyPassword(hash, "hunter2"))
}
