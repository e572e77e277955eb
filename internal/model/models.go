// Package model defines the data records for the Kufr guessing game.
package model

import (
	"time"

	"kufr-game/internal/game/reveal"
)

// Thing is a catalog entry the player has to name: a display name, an
// optional hint text and the directory holding its pre-sliced image cells.
// Things are immutable from the engine's point of view while a game runs.
type Thing struct {
	ID   int64   `db:"id"`
	Name string  `db:"name"`
	Hint *string `db:"hint"`
	Path string  `db:"path"`
}

// Game is one play-through. It is addressed externally by its slug, never
// by its database id. ResultPoints stays nil until the game is finished
// and the total is frozen; after that it never changes.
type Game struct {
	ID           int64     `db:"id"`
	Slug         string    `db:"slug"`
	UserID       int64     `db:"user_id"`
	StartTime    time.Time `db:"start_time"`
	ResultPoints *int      `db:"result_points"`
}

// Finished reports whether the game's total score has been frozen.
func (g *Game) Finished() bool {
	return g.ResultPoints != nil
}

// Level is one round within a game, pairing it with one Thing.
// Points stays nil until the level is solved and is written exactly once.
// UsedHint only ever goes from false to true. Unhide only grows.
type Level struct {
	ID       int64      `db:"id"`
	GameID   int64      `db:"game_id"`
	ThingID  int64      `db:"thing_id"`
	Done     bool       `db:"done"`
	Guesses  int        `db:"guesses"`
	Points   *int       `db:"points"`
	UsedHint bool       `db:"used_hint"`
	Unhide   reveal.Set `db:"unhide"`
}

// Solved reports whether a correct guess has been recorded for the level.
func (l *Level) Solved() bool {
	return l.Points != nil
}
