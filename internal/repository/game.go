package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kufr-game/internal/model"
)

// ErrNoOpenLevel is returned when every level of a game is done,
// i.e. the play-through is finished.
var ErrNoOpenLevel = errors.New("no open level")

const levelColumns = `id, game_id, thing_id, done, guesses, points, used_hint, unhide`

// GameRepository handles game and level persistence.
//
// Every mutating level operation goes through an explicit transaction
// holding a row lock on the level, so two requests for the same slug
// cannot read the same counters and write back stale increments.
type GameRepository struct {
	pool *pgxpool.Pool
}

// NewGameRepository creates a new GameRepository instance.
func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

// CreateGame inserts the game row and one level per thing id, in order,
// inside a single transaction. Either everything becomes visible or
// nothing does; a game without its levels is never persisted.
func (r *GameRepository) CreateGame(ctx context.Context, userID int64, slug string, thingIDs []int64) (*model.Game, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertGame = `
		INSERT INTO games (slug, user_id, start_time, result_points)
		VALUES ($1, $2, NOW(), NULL)
		RETURNING id, slug, user_id, start_time, result_points
	`

	var game model.Game
	err = tx.QueryRow(ctx, insertGame, slug, userID).Scan(
		&game.ID,
		&game.Slug,
		&game.UserID,
		&game.StartTime,
		&game.ResultPoints,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	const insertLevel = `INSERT INTO levels (game_id, thing_id) VALUES ($1, $2)`
	for _, thingID := range thingIDs {
		if _, err := tx.Exec(ctx, insertLevel, game.ID, thingID); err != nil {
			return nil, fmt.Errorf("failed to create level: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit game creation: %w", err)
	}

	return &game, nil
}

// GetBySlug retrieves a game by its external handle.
// Returns ErrGameNotFound if the slug is unknown.
func (r *GameRepository) GetBySlug(ctx context.Context, slug string) (*model.Game, error) {
	const query = `
		SELECT id, slug, user_id, start_time, result_points
		FROM games
		WHERE slug = $1
	`

	var game model.Game
	err := r.pool.QueryRow(ctx, query, slug).Scan(
		&game.ID,
		&game.Slug,
		&game.UserID,
		&game.StartTime,
		&game.ResultPoints,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return &game, nil
}

// GetCurrentLevel retrieves the first not-yet-advanced level of a game,
// in creation order. Returns ErrNoOpenLevel when the game is finished.
func (r *GameRepository) GetCurrentLevel(ctx context.Context, gameID int64) (*model.Level, error) {
	query := `
		SELECT ` + levelColumns + `
		FROM levels
		WHERE game_id = $1 AND done = FALSE
		ORDER BY id
		LIMIT 1
	`

	level, err := scanLevel(r.pool.QueryRow(ctx, query, gameID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoOpenLevel
		}
		return nil, fmt.Errorf("failed to get current level: %w", err)
	}
	return level, nil
}

// GetLevels retrieves every level of a game in play order.
func (r *GameRepository) GetLevels(ctx context.Context, gameID int64) ([]*model.Level, error) {
	query := `
		SELECT ` + levelColumns + `
		FROM levels
		WHERE game_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get levels: %w", err)
	}
	defer rows.Close()

	var levels []*model.Level
	for rows.Next() {
		level, err := scanLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan level: %w", err)
		}
		levels = append(levels, level)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating levels: %w", err)
	}

	return levels, nil
}

// CountDoneLevels returns how many levels of a game the player has
// advanced past.
func (r *GameRepository) CountDoneLevels(ctx context.Context, gameID int64) (int, error) {
	const query = `SELECT COUNT(id) FROM levels WHERE game_id = $1 AND done = TRUE`

	var count int
	if err := r.pool.QueryRow(ctx, query, gameID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count done levels: %w", err)
	}
	return count, nil
}

// WithCurrentLevel runs fn against the game's current level and its
// assigned thing inside a transaction, holding a row lock on the level.
// Whatever fn changes on the level record is written back before the
// commit; the read, the mutation and the write are one atomic unit.
//
// The write-once columns are guarded in SQL: points sticks to its first
// non-null value, done and used_hint only ever flip to true.
func (r *GameRepository) WithCurrentLevel(ctx context.Context, slug string, fn func(game *model.Game, level *model.Level, thing *model.Thing) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const gameQuery = `
		SELECT id, slug, user_id, start_time, result_points
		FROM games
		WHERE slug = $1
	`

	var game model.Game
	err = tx.QueryRow(ctx, gameQuery, slug).Scan(
		&game.ID,
		&game.Slug,
		&game.UserID,
		&game.StartTime,
		&game.ResultPoints,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrGameNotFound
		}
		return fmt.Errorf("failed to get game: %w", err)
	}

	levelQuery := `
		SELECT ` + levelColumns + `
		FROM levels
		WHERE game_id = $1 AND done = FALSE
		ORDER BY id
		LIMIT 1
		FOR UPDATE
	`

	level, err := scanLevel(tx.QueryRow(ctx, levelQuery, game.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoOpenLevel
		}
		return fmt.Errorf("failed to lock current level: %w", err)
	}

	const thingQuery = `SELECT id, name, hint, path FROM things WHERE id = $1`

	var thing model.Thing
	err = tx.QueryRow(ctx, thingQuery, level.ThingID).Scan(
		&thing.ID,
		&thing.Name,
		&thing.Hint,
		&thing.Path,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrThingNotFound
		}
		return fmt.Errorf("failed to get thing: %w", err)
	}

	if err := fn(&game, level, &thing); err != nil {
		return err
	}

	unhide, err := json.Marshal(level.Unhide)
	if err != nil {
		return fmt.Errorf("failed to encode reveal set: %w", err)
	}

	const update = `
		UPDATE levels
		SET guesses = $2,
		    done = done OR $3,
		    used_hint = used_hint OR $4,
		    unhide = $5,
		    points = COALESCE(points, $6)
		WHERE id = $1
	`

	_, err = tx.Exec(ctx, update, level.ID, level.Guesses, level.Done, level.UsedHint, unhide, level.Points)
	if err != nil {
		return fmt.Errorf("failed to update level: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit level update: %w", err)
	}

	return nil
}

// FreezeResult writes the game's total score, but only if no score has
// been recorded yet. The first writer wins; every caller gets back the
// value that actually stuck.
func (r *GameRepository) FreezeResult(ctx context.Context, gameID int64, points int) (int, error) {
	const freeze = `
		UPDATE games
		SET result_points = $2
		WHERE id = $1 AND result_points IS NULL
	`

	if _, err := r.pool.Exec(ctx, freeze, gameID, points); err != nil {
		return 0, fmt.Errorf("failed to freeze result: %w", err)
	}

	const read = `SELECT result_points FROM games WHERE id = $1`

	var frozen *int
	if err := r.pool.QueryRow(ctx, read, gameID).Scan(&frozen); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrGameNotFound
		}
		return 0, fmt.Errorf("failed to read frozen result: %w", err)
	}
	if frozen == nil {
		return 0, fmt.Errorf("result for game %d not frozen", gameID)
	}
	return *frozen, nil
}

// TopGames retrieves the best finished games, lowest score first.
// Games without a frozen result never appear.
func (r *GameRepository) TopGames(ctx context.Context, limit int) ([]*model.Game, error) {
	const query = `
		SELECT id, slug, user_id, start_time, result_points
		FROM games
		WHERE result_points IS NOT NULL
		ORDER BY result_points ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top games: %w", err)
	}
	defer rows.Close()

	var games []*model.Game
	for rows.Next() {
		var game model.Game
		err := rows.Scan(
			&game.ID,
			&game.Slug,
			&game.UserID,
			&game.StartTime,
			&game.ResultPoints,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, &game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}

	return games, nil
}

// scanLevel reads one level row, decoding the reveal set column.
func scanLevel(row pgx.Row) (*model.Level, error) {
	var level model.Level
	var unhide []byte
	err := row.Scan(
		&level.ID,
		&level.GameID,
		&level.ThingID,
		&level.Done,
		&level.Guesses,
		&level.Points,
		&level.UsedHint,
		&unhide,
	)
	if err != nil {
		return nil, err
	}

	if len(unhide) == 0 {
		unhide = []byte(`[]`)
	}
	if err := json.Unmarshal(unhide, &level.Unhide); err != nil {
		return nil, fmt.Errorf("failed to decode reveal set: %w", err)
	}

	return &level, nil
}
