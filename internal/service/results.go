package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"kufr-game/internal/model"
	"kufr-game/internal/repository"
)

// Results is the full listing of a finished (or finishing) game.
type Results struct {
	Game   *model.Game
	Levels []*model.Level
	Things []*model.Thing
}

// ResultsService computes and freezes final scores and serves the
// leaderboard.
type ResultsService struct {
	games  *repository.GameRepository
	things *repository.ThingRepository
}

// NewResultsService creates a new ResultsService instance.
func NewResultsService(games *repository.GameRepository, things *repository.ThingRepository) *ResultsService {
	return &ResultsService{games: games, things: things}
}

// Results returns the game together with all its levels and things.
// The first call on a finished game sums the level points (unsolved
// levels count as zero) and freezes the total; the write is guarded so
// that concurrent callers all end up observing the same frozen value,
// never a recomputed one.
func (s *ResultsService) Results(ctx context.Context, gameSlug string) (*Results, error) {
	game, err := s.games.GetBySlug(ctx, gameSlug)
	if err != nil {
		return nil, err
	}

	levels, err := s.games.GetLevels(ctx, game.ID)
	if err != nil {
		return nil, err
	}

	if !game.Finished() {
		sum := 0
		for _, lvl := range levels {
			if lvl.Points != nil {
				sum += *lvl.Points
			}
		}

		frozen, err := s.games.FreezeResult(ctx, game.ID, sum)
		if err != nil {
			return nil, err
		}
		game.ResultPoints = &frozen

		log.Info().
			Str("slug", game.Slug).
			Int("result_points", frozen).
			Msg("Game result frozen")
	}

	thingIDs := make([]int64, len(levels))
	for i, lvl := range levels {
		thingIDs[i] = lvl.ThingID
	}

	things, err := s.things.GetByIDs(ctx, thingIDs)
	if err != nil {
		return nil, err
	}

	return &Results{
		Game:   game,
		Levels: levels,
		Things: things,
	}, nil
}

// TopGames returns the best finished games, lowest score first.
func (s *ResultsService) TopGames(ctx context.Context, limit int) ([]*model.Game, error) {
	return s.games.TopGames(ctx, limit)
}
