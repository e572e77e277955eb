// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kufr-game/internal/model"
)

// Common errors for repository operations.
var (
	ErrThingNotFound = errors.New("thing not found")
	ErrGameNotFound  = errors.New("game not found")
	ErrLevelNotFound = errors.New("level not found")

	// ErrNotEnoughThings is returned when the catalog holds fewer
	// things than a new game needs.
	ErrNotEnoughThings = errors.New("not enough things in catalog")
)

// ThingRepository handles catalog entry persistence.
type ThingRepository struct {
	pool *pgxpool.Pool
}

// NewThingRepository creates a new ThingRepository instance.
func NewThingRepository(pool *pgxpool.Pool) *ThingRepository {
	return &ThingRepository{pool: pool}
}

// Create inserts a new catalog entry.
func (r *ThingRepository) Create(ctx context.Context, name string, hint *string, path string) (*model.Thing, error) {
	const query = `
		INSERT INTO things (name, hint, path)
		VALUES ($1, $2, $3)
		RETURNING id, name, hint, path
	`

	var thing model.Thing
	err := r.pool.QueryRow(ctx, query, name, hint, path).Scan(
		&thing.ID,
		&thing.Name,
		&thing.Hint,
		&thing.Path,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create thing: %w", err)
	}

	return &thing, nil
}

// Update overwrites an existing catalog entry.
func (r *ThingRepository) Update(ctx context.Context, id int64, name string, hint *string, path string) (*model.Thing, error) {
	const query = `
		UPDATE things
		SET name = $2, hint = $3, path = $4
		WHERE id = $1
		RETURNING id, name, hint, path
	`

	var thing model.Thing
	err := r.pool.QueryRow(ctx, query, id, name, hint, path).Scan(
		&thing.ID,
		&thing.Name,
		&thing.Hint,
		&thing.Path,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrThingNotFound
		}
		return nil, fmt.Errorf("failed to update thing: %w", err)
	}

	return &thing, nil
}

// Delete removes a catalog entry.
func (r *ThingRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM things WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete thing: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrThingNotFound
	}
	return nil
}

// GetByID retrieves a catalog entry by id.
// Returns ErrThingNotFound if it does not exist.
func (r *ThingRepository) GetByID(ctx context.Context, id int64) (*model.Thing, error) {
	const query = `SELECT id, name, hint, path FROM things WHERE id = $1`

	var thing model.Thing
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&thing.ID,
		&thing.Name,
		&thing.Hint,
		&thing.Path,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrThingNotFound
		}
		return nil, fmt.Errorf("failed to get thing: %w", err)
	}

	return &thing, nil
}

// GetAll retrieves the whole catalog in stable id order.
func (r *ThingRepository) GetAll(ctx context.Context) ([]*model.Thing, error) {
	const query = `SELECT id, name, hint, path FROM things ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get things: %w", err)
	}
	defer rows.Close()

	return scanThings(rows)
}

// GetByIDs retrieves the catalog entries for the given ids, in id order.
func (r *ThingRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.Thing, error) {
	const query = `SELECT id, name, hint, path FROM things WHERE id = ANY($1) ORDER BY id`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get things: %w", err)
	}
	defer rows.Close()

	return scanThings(rows)
}

// GetRandom draws count distinct things uniformly at random.
// Returns ErrNotEnoughThings if the catalog is too small.
func (r *ThingRepository) GetRandom(ctx context.Context, count int) ([]*model.Thing, error) {
	const query = `SELECT id, name, hint, path FROM things ORDER BY random() LIMIT $1`

	rows, err := r.pool.Query(ctx, query, count)
	if err != nil {
		return nil, fmt.Errorf("failed to get random things: %w", err)
	}
	defer rows.Close()

	things, err := scanThings(rows)
	if err != nil {
		return nil, err
	}
	if len(things) < count {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughThings, len(things), count)
	}
	return things, nil
}

func scanThings(rows pgx.Rows) ([]*model.Thing, error) {
	var things []*model.Thing
	for rows.Next() {
		var thing model.Thing
		err := rows.Scan(
			&thing.ID,
			&thing.Name,
			&thing.Hint,
			&thing.Path,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thing: %w", err)
		}
		things = append(things, &thing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating things: %w", err)
	}

	return things, nil
}
