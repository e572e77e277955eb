// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"kufr-game/internal/game/reveal"
	"kufr-game/internal/model"
	"kufr-game/internal/pkg/db"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool.
// Skips the test if Docker is not available.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, db.Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// seedThings inserts n catalog entries and returns them.
func seedThings(t *testing.T, pool *pgxpool.Pool, n int) []*model.Thing {
	t.Helper()
	repo := NewThingRepository(pool)
	ctx := context.Background()

	names := []string{"kufr", "žirafa", "šroubovák", "židle", "trabant", "okno", "pes", "hrnec"}
	things := make([]*model.Thing, 0, n)
	for i := 0; i < n; i++ {
		name := names[i%len(names)]
		hint := "nápověda"
		thing, err := repo.Create(ctx, name, &hint, "thing-"+name)
		require.NoError(t, err)
		things = append(things, thing)
	}
	return things
}

// ============================================================================
// ThingRepository Tests
// ============================================================================

func TestThingRepository_CRUD(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewThingRepository(pool)
	ctx := context.Background()

	hint := "má dlouhý krk"
	thing, err := repo.Create(ctx, "žirafa", &hint, "zirafa")
	require.NoError(t, err)
	assert.NotZero(t, thing.ID)
	assert.Equal(t, "žirafa", thing.Name)
	require.NotNil(t, thing.Hint)
	assert.Equal(t, hint, *thing.Hint)

	loaded, err := repo.GetByID(ctx, thing.ID)
	require.NoError(t, err)
	assert.Equal(t, thing, loaded)

	updated, err := repo.Update(ctx, thing.ID, "žirafa severní", nil, "zirafa")
	require.NoError(t, err)
	assert.Equal(t, "žirafa severní", updated.Name)
	assert.Nil(t, updated.Hint)

	require.NoError(t, repo.Delete(ctx, thing.ID))

	_, err = repo.GetByID(ctx, thing.ID)
	assert.ErrorIs(t, err, ErrThingNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, thing.ID), ErrThingNotFound)
}

func TestThingRepository_GetAllOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	things := seedThings(t, pool, 5)
	repo := NewThingRepository(pool)

	all, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, thing := range all {
		assert.Equal(t, things[i].ID, thing.ID)
	}
}

func TestThingRepository_GetRandomDistinct(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seedThings(t, pool, 8)
	repo := NewThingRepository(pool)
	ctx := context.Background()

	drawn, err := repo.GetRandom(ctx, 5)
	require.NoError(t, err)
	require.Len(t, drawn, 5)

	seen := map[int64]bool{}
	for _, thing := range drawn {
		assert.False(t, seen[thing.ID], "thing %d drawn twice", thing.ID)
		seen[thing.ID] = true
	}
}

func TestThingRepository_GetRandomTooFew(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seedThings(t, pool, 3)
	repo := NewThingRepository(pool)

	_, err := repo.GetRandom(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotEnoughThings)
}

// ============================================================================
// GameRepository Tests
// ============================================================================

func TestGameRepository_CreateGame(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	things := seedThings(t, pool, 5)
	repo := NewGameRepository(pool)
	ctx := context.Background()

	thingIDs := make([]int64, len(things))
	for i, thing := range things {
		thingIDs[i] = thing.ID
	}

	game, err := repo.CreateGame(ctx, 1, "abc123def456", thingIDs)
	require.NoError(t, err)
	assert.Equal(t, "abc123def456", game.Slug)
	assert.Nil(t, game.ResultPoints)

	levels, err := repo.GetLevels(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, levels, 5)

	for i, lvl := range levels {
		assert.Equal(t, thingIDs[i], lvl.ThingID)
		assert.False(t, lvl.Done)
		assert.Equal(t, 0, lvl.Guesses)
		assert.Nil(t, lvl.Points)
		assert.False(t, lvl.UsedHint)
		assert.Equal(t, 0, lvl.Unhide.Count())
	}
}

// A failing level insert must roll the whole creation back; a game
// without levels never becomes visible.
func TestGameRepository_CreateGameAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	things := seedThings(t, pool, 2)
	repo := NewGameRepository(pool)
	ctx := context.Background()

	// The last thing id violates the levels foreign key.
	thingIDs := []int64{things[0].ID, things[1].ID, 999999}

	_, err := repo.CreateGame(ctx, 1, "abc123def456", thingIDs)
	require.Error(t, err)

	_, err = repo.GetBySlug(ctx, "abc123def456")
	assert.ErrorIs(t, err, ErrGameNotFound)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM levels`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestGameRepository_GetBySlugNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewGameRepository(pool)
	_, err := repo.GetBySlug(context.Background(), "nosuchgame00")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func createTestGame(t *testing.T, pool *pgxpool.Pool, slug string, levels int) *model.Game {
	t.Helper()
	things := seedThings(t, pool, levels)
	repo := NewGameRepository(pool)

	thingIDs := make([]int64, len(things))
	for i, thing := range things {
		thingIDs[i] = thing.ID
	}

	game, err := repo.CreateGame(context.Background(), 1, slug, thingIDs)
	require.NoError(t, err)
	return game
}

func TestGameRepository_CurrentLevelOrder(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	game := createTestGame(t, pool, "abc123def456", 3)
	repo := NewGameRepository(pool)
	ctx := context.Background()

	levels, err := repo.GetLevels(ctx, game.ID)
	require.NoError(t, err)

	current, err := repo.GetCurrentLevel(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, levels[0].ID, current.ID)

	// Mark the first level done; the second becomes current.
	_, err = pool.Exec(ctx, `UPDATE levels SET done = TRUE WHERE id = $1`, levels[0].ID)
	require.NoError(t, err)

	current, err = repo.GetCurrentLevel(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, levels[1].ID, current.ID)

	done, err := repo.CountDoneLevels(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, done)

	// All done: the game is finished.
	_, err = pool.Exec(ctx, `UPDATE levels SET done = TRUE WHERE game_id = $1`, game.ID)
	require.NoError(t, err)

	_, err = repo.GetCurrentLevel(ctx, game.ID)
	assert.ErrorIs(t, err, ErrNoOpenLevel)
}

func TestGameRepository_WithCurrentLevelPersistsMutation(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	game := createTestGame(t, pool, "abc123def456", 2)
	repo := NewGameRepository(pool)
	ctx := context.Background()

	err := repo.WithCurrentLevel(ctx, game.Slug, func(_ *model.Game, lvl *model.Level, thing *model.Thing) error {
		assert.NotEmpty(t, thing.Name)
		lvl.Guesses = 2
		lvl.UsedHint = true
		lvl.Unhide.Add(reveal.Cell{X: 2, Y: 1})
		lvl.Unhide.Add(reveal.Cell{X: 0, Y: 0})
		return nil
	})
	require.NoError(t, err)

	current, err := repo.GetCurrentLevel(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current.Guesses)
	assert.True(t, current.UsedHint)
	assert.Equal(t, 2, current.Unhide.Count())
	assert.True(t, current.Unhide.Has(reveal.Cell{X: 2, Y: 1}))
}

// Once points is set, a later write cannot change it: the column keeps
// its first non-null value.
func TestGameRepository_PointsWriteOnce(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	game := createTestGame(t, pool, "abc123def456", 1)
	repo := NewGameRepository(pool)
	ctx := context.Background()

	first := 3
	err := repo.WithCurrentLevel(ctx, game.Slug, func(_ *model.Game, lvl *model.Level, _ *model.Thing) error {
		lvl.Points = &first
		return nil
	})
	require.NoError(t, err)

	second := 99
	err = repo.WithCurrentLevel(ctx, game.Slug, func(_ *model.Game, lvl *model.Level, _ *model.Thing) error {
		lvl.Points = &second
		return nil
	})
	require.NoError(t, err)

	current, err := repo.GetCurrentLevel(ctx, game.ID)
	require.NoError(t, err)
	require.NotNil(t, current.Points)
	assert.Equal(t, first, *current.Points)
}

// Concurrent read-modify-write cycles on the same level must not lose
// updates; the row lock serializes them.
func TestGameRepository_WithCurrentLevelNoLostUpdates(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	game := createTestGame(t, pool, "abc123def456", 1)
	repo := NewGameRepository(pool)
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.WithCurrentLevel(ctx, game.Slug, func(_ *model.Game, lvl *model.Level, _ *model.Thing) error {
				lvl.Guesses++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	current, err := repo.GetCurrentLevel(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, current.Guesses)
}

func TestGameRepository_WithCurrentLevelUnknownSlug(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewGameRepository(pool)
	err := repo.WithCurrentLevel(context.Background(), "nosuchgame00", func(_ *model.Game, _ *model.Level, _ *model.Thing) error {
		t.Fatal("callback must not run")
		return nil
	})
	assert.ErrorIs(t, err, ErrGameNotFound)
}

// ============================================================================
// Result freezing and leaderboard
// ============================================================================

func TestGameRepository_FreezeResultFirstWriterWins(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	game := createTestGame(t, pool, "abc123def456", 1)
	repo := NewGameRepository(pool)
	ctx := context.Background()

	frozen, err := repo.FreezeResult(ctx, game.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, frozen)

	// A second freeze attempt observes the stored value, not its own.
	frozen, err = repo.FreezeResult(ctx, game.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, 7, frozen)
}

func TestGameRepository_FreezeResultConcurrent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	game := createTestGame(t, pool, "abc123def456", 1)
	repo := NewGameRepository(pool)
	ctx := context.Background()

	const callers = 8
	results := make([]int, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			frozen, err := repo.FreezeResult(ctx, game.ID, 10+i)
			assert.NoError(t, err)
			results[i] = frozen
		}(i)
	}
	wg.Wait()

	// Every caller saw the same frozen value.
	for _, r := range results {
		assert.Equal(t, results[0], r)
	}

	loaded, err := repo.GetBySlug(ctx, game.Slug)
	require.NoError(t, err)
	require.NotNil(t, loaded.ResultPoints)
	assert.Equal(t, results[0], *loaded.ResultPoints)
}

func TestGameRepository_TopGames(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seedThings(t, pool, 1)
	repo := NewGameRepository(pool)
	ctx := context.Background()

	var thingID int64
	require.NoError(t, pool.QueryRow(ctx, `SELECT id FROM things LIMIT 1`).Scan(&thingID))

	scores := map[string]*int{
		"gamea1gamea1": intPtr(12),
		"gameb2gameb2": intPtr(3),
		"gamec3gamec3": intPtr(25),
		"gamed4gamed4": nil, // unfinished, must not appear
		"gamee5gamee5": intPtr(0),
	}
	for slug, points := range scores {
		game, err := repo.CreateGame(ctx, 1, slug, []int64{thingID})
		require.NoError(t, err)
		if points != nil {
			_, err = repo.FreezeResult(ctx, game.ID, *points)
			require.NoError(t, err)
		}
	}

	top, err := repo.TopGames(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 4)

	// Ascending by result points, nulls excluded.
	expected := []int{0, 3, 12, 25}
	for i, game := range top {
		require.NotNil(t, game.ResultPoints)
		assert.Equal(t, expected[i], *game.ResultPoints)
		assert.NotEqual(t, "gamed4gamed4", game.Slug)
	}

	// Limit applies.
	top, err = repo.TopGames(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, 0, *top[0].ResultPoints)
	assert.Equal(t, 3, *top[1].ResultPoints)
}

func intPtr(v int) *int { return &v }
