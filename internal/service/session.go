// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"kufr-game/internal/game/guess"
	"kufr-game/internal/game/level"
	"kufr-game/internal/game/reveal"
	"kufr-game/internal/model"
	"kufr-game/internal/pkg/lock"
	"kufr-game/internal/pkg/slug"
	"kufr-game/internal/repository"
)

// Common errors for session operations.
var (
	ErrEmptyGuess = errors.New("guess must not be empty")

	// ErrCellHidden is returned when an image path is requested for a
	// cell the player has not uncovered.
	ErrCellHidden = errors.New("cell not revealed")
)

// SessionConfig holds the game rule knobs the session service needs.
type SessionConfig struct {
	LevelsPerGame int
	Cols          int
	Rows          int
	ImagePath     string
}

// CurrentLevel is the view of a running game the presentation layer
// renders: the game, the open level with its thing, the 1-indexed level
// number and the running cost of the open level. Level is nil when all
// levels are done and the play-through is finished.
type CurrentLevel struct {
	Game   *model.Game
	Level  *model.Level
	Thing  *model.Thing
	Number int
	Points int
}

// SessionService coordinates one play-through: creating games and
// routing every player action to the game's current level.
//
// Mutating operations take the per-slug lock and then run inside a
// row-locked transaction, so a double-submitted request cannot produce
// a lost update.
type SessionService struct {
	games  *repository.GameRepository
	things *repository.ThingRepository
	locks  *lock.SlugLock
	cfg    SessionConfig
}

// NewSessionService creates a new SessionService instance.
func NewSessionService(
	games *repository.GameRepository,
	things *repository.ThingRepository,
	locks *lock.SlugLock,
	cfg SessionConfig,
) *SessionService {
	return &SessionService{
		games:  games,
		things: things,
		locks:  locks,
		cfg:    cfg,
	}
}

// CreateGame starts a new play-through for the user: a fresh slug, one
// game row and one unplayed level for each randomly drawn thing. The
// insert is atomic; a partially created game is never visible.
func (s *SessionService) CreateGame(ctx context.Context, userID int64) (string, error) {
	handle, err := slug.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate slug: %w", err)
	}

	things, err := s.things.GetRandom(ctx, s.cfg.LevelsPerGame)
	if err != nil {
		return "", fmt.Errorf("failed to draw things: %w", err)
	}

	thingIDs := make([]int64, len(things))
	for i, t := range things {
		thingIDs[i] = t.ID
	}

	game, err := s.games.CreateGame(ctx, userID, handle, thingIDs)
	if err != nil {
		return "", err
	}

	log.Info().
		Str("slug", game.Slug).
		Int64("user_id", userID).
		Int("levels", len(thingIDs)).
		Msg("Game created")

	return game.Slug, nil
}

// LoadCurrentLevel returns the view of the game's open level, or a view
// with a nil Level when the game is finished.
func (s *SessionService) LoadCurrentLevel(ctx context.Context, gameSlug string) (*CurrentLevel, error) {
	game, err := s.games.GetBySlug(ctx, gameSlug)
	if err != nil {
		return nil, err
	}

	lvl, err := s.games.GetCurrentLevel(ctx, game.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNoOpenLevel) {
			return &CurrentLevel{Game: game}, nil
		}
		return nil, err
	}

	thing, err := s.things.GetByID(ctx, lvl.ThingID)
	if err != nil {
		return nil, err
	}

	number, err := s.LevelNumber(ctx, game)
	if err != nil {
		return nil, err
	}

	return &CurrentLevel{
		Game:   game,
		Level:  lvl,
		Thing:  thing,
		Number: number,
		Points: level.PointsSoFar(lvl),
	}, nil
}

// LevelNumber returns the 1-indexed display position of the game's open
// level: the number of levels already advanced past, plus one.
func (s *SessionService) LevelNumber(ctx context.Context, game *model.Game) (int, error) {
	done, err := s.games.CountDoneLevels(ctx, game.ID)
	if err != nil {
		return 0, err
	}
	return done + 1, nil
}

// SubmitGuess evaluates the text against the current level's thing and
// records the outcome. A near miss mutates nothing; a guess on an
// already solved level fails with level.ErrAlreadySolved and the frozen
// points stay untouched.
func (s *SessionService) SubmitGuess(ctx context.Context, gameSlug, text string) (guess.Result, error) {
	if text == "" {
		return "", ErrEmptyGuess
	}

	var res guess.Result
	err := s.locks.WithLock(gameSlug, func() error {
		return s.games.WithCurrentLevel(ctx, gameSlug, func(_ *model.Game, lvl *model.Level, thing *model.Thing) error {
			var err error
			res, err = level.Guess(lvl, thing.Name, text)
			return err
		})
	})
	if err != nil {
		return "", err
	}

	log.Debug().Str("slug", gameSlug).Str("result", string(res)).Msg("Guess evaluated")
	return res, nil
}

// RevealCell uncovers one grid cell of the current level. Revealing the
// same cell twice is a no-op. Coordinates outside the grid are stored
// as given — the original data contains such rows — but logged.
func (s *SessionService) RevealCell(ctx context.Context, gameSlug string, x, y int) error {
	if x < 0 || x >= s.cfg.Cols || y < 0 || y >= s.cfg.Rows {
		log.Warn().
			Str("slug", gameSlug).
			Int("x", x).
			Int("y", y).
			Int("cols", s.cfg.Cols).
			Int("rows", s.cfg.Rows).
			Msg("Reveal coordinate outside grid")
	}

	return s.locks.WithLock(gameSlug, func() error {
		return s.games.WithCurrentLevel(ctx, gameSlug, func(_ *model.Game, lvl *model.Level, _ *model.Thing) error {
			level.Reveal(lvl, x, y)
			return nil
		})
	})
}

// UseHint marks the current level's hint as used. The flag is
// write-once; using the hint after the level is solved never changes
// the recorded points.
func (s *SessionService) UseHint(ctx context.Context, gameSlug string) error {
	return s.locks.WithLock(gameSlug, func() error {
		return s.games.WithCurrentLevel(ctx, gameSlug, func(_ *model.Game, lvl *model.Level, _ *model.Thing) error {
			level.UseHint(lvl)
			return nil
		})
	})
}

// AdvanceLevel moves past the current level if it is solved. On an
// unsolved level, and on an already finished game, it does nothing.
func (s *SessionService) AdvanceLevel(ctx context.Context, gameSlug string) error {
	err := s.locks.WithLock(gameSlug, func() error {
		return s.games.WithCurrentLevel(ctx, gameSlug, func(_ *model.Game, lvl *model.Level, _ *model.Thing) error {
			level.Advance(lvl)
			return nil
		})
	})
	if errors.Is(err, repository.ErrNoOpenLevel) {
		return nil
	}
	return err
}

// CellImagePath resolves the on-disk path of one sliced image cell of
// the current level, but only once the player has uncovered it.
// Hidden cells yield ErrCellHidden so the caller can serve a blank.
func (s *SessionService) CellImagePath(ctx context.Context, gameSlug string, x, y int) (string, error) {
	view, err := s.LoadCurrentLevel(ctx, gameSlug)
	if err != nil {
		return "", err
	}
	if view.Level == nil {
		return "", repository.ErrNoOpenLevel
	}

	cell := reveal.Cell{X: x, Y: y}
	if !view.Level.Unhide.Has(cell) {
		return "", ErrCellHidden
	}

	return filepath.Join(s.cfg.ImagePath, view.Thing.Path, cell.Token()+".jpg"), nil
}
