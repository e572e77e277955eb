package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// migrations holds the schema in execution order. The binary and the
// integration tests run the same list.
var migrations = []struct {
	name string
	sql  string
}{
	{
		name: "things table",
		sql: `
			CREATE TABLE IF NOT EXISTS things (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				hint TEXT,
				path VARCHAR(255) NOT NULL DEFAULT ''
			);
		`,
	},
	{
		name: "games table",
		sql: `
			CREATE TABLE IF NOT EXISTS games (
				id BIGSERIAL PRIMARY KEY,
				slug VARCHAR(12) NOT NULL UNIQUE,
				user_id BIGINT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				result_points INT
			);
			CREATE INDEX IF NOT EXISTS idx_games_result_points
				ON games(result_points ASC) WHERE result_points IS NOT NULL;
		`,
	},
	{
		name: "levels table",
		sql: `
			CREATE TABLE IF NOT EXISTS levels (
				id BIGSERIAL PRIMARY KEY,
				game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
				thing_id BIGINT NOT NULL REFERENCES things(id),
				done BOOLEAN NOT NULL DEFAULT FALSE,
				guesses INT NOT NULL DEFAULT 0,
				points INT,
				used_hint BOOLEAN NOT NULL DEFAULT FALSE,
				unhide JSONB NOT NULL DEFAULT '[]'
			);
			CREATE INDEX IF NOT EXISTS idx_levels_game ON levels(game_id, done, id);
		`,
	},
}

// Migrate brings the schema up to date. Statements are idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", i+1, m.name, err)
		}
		log.Info().Int("migration", i+1).Str("name", m.name).Msg("Migration applied")
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
