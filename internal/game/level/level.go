// Package level implements the lifecycle of a single game round.
//
// The machine mutates the level record in memory only; persisting the
// updated row atomically is the caller's job (the session service runs
// every mutation inside a row-locked transaction).
package level

import (
	"errors"

	"kufr-game/internal/game/guess"
	"kufr-game/internal/game/reveal"
	"kufr-game/internal/game/scoring"
	"kufr-game/internal/model"
)

// State describes where a level is in its lifecycle. It is derived from
// the record, never stored.
type State string

const (
	StateUnplayed   State = "unplayed"
	StateInProgress State = "in_progress"
	StateSolved     State = "solved"
	StateAdvanced   State = "advanced"
)

// ErrAlreadySolved is returned when a guess arrives for a level whose
// points are already frozen. The score is never recomputed.
var ErrAlreadySolved = errors.New("level already solved")

// StateOf derives the lifecycle state of a level record.
func StateOf(l *model.Level) State {
	switch {
	case l.Done:
		return StateAdvanced
	case l.Solved():
		return StateSolved
	case l.Guesses > 0 || l.Unhide.Count() > 0 || l.UsedHint:
		return StateInProgress
	default:
		return StateUnplayed
	}
}

// Guess evaluates the text against the target name and applies the
// outcome to the level:
//
//   - correct: the guess counter goes up and the points are computed
//     from the post-increment count, the reveals uncovered so far and
//     the hint flag, exactly once;
//   - almost: a near miss, nothing changes, the attempt is not counted;
//   - wrong: only the guess counter goes up.
func Guess(l *model.Level, targetName, text string) (guess.Result, error) {
	if l.Solved() {
		return "", ErrAlreadySolved
	}

	res := guess.Evaluate(targetName, text)
	switch res {
	case guess.ResultCorrect:
		l.Guesses++
		points := scoring.Cost(l.Guesses, l.Unhide.Count(), l.UsedHint)
		l.Points = &points
	case guess.ResultWrong:
		l.Guesses++
	}
	return res, nil
}

// Reveal uncovers one cell. Allowed in any state, even after the level
// is solved; uncovering is harmless and the set only grows. Coordinates
// are stored as given, bounds included or not.
func Reveal(l *model.Level, x, y int) bool {
	if l.Unhide == nil {
		l.Unhide = reveal.NewSet()
	}
	return l.Unhide.Add(reveal.Cell{X: x, Y: y})
}

// UseHint marks the hint as used. The flag only ever goes from false to
// true. Flipping it after the level is solved does not touch the frozen
// points; the hint penalty exists only at scoring time.
func UseHint(l *model.Level) bool {
	if l.UsedHint {
		return false
	}
	l.UsedHint = true
	return true
}

// Advance moves a solved level to its terminal state. On an unsolved
// level it does nothing and reports false; the "next level" action has
// no effect until the round is actually solved.
func Advance(l *model.Level) bool {
	if l.Done || !l.Solved() {
		return false
	}
	l.Done = true
	return true
}

// PointsSoFar returns what the level would cost if the next guess were
// the correct one minus that guess itself, i.e. the running score shown
// next to the grid while the round is still open.
func PointsSoFar(l *model.Level) int {
	return scoring.Cost(l.Guesses, l.Unhide.Count(), l.UsedHint)
}
