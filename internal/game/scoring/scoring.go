// Package scoring computes the point cost of a solved level.
//
// Lower is better; the leaderboard sorts ascending. The first guess and
// the first reveal are free, every further guess costs one point, every
// further reveal two, and using the hint a flat five.
package scoring

// Penalty weights and the number of free attempts of each kind.
const (
	PenaltyGuess  = 1
	PenaltyReveal = 2
	PenaltyHint   = 5

	FreeGuesses = 1
	FreeReveals = 1
)

// Cost returns the cost of a solved level given the guess count
// including the correct guess, the number of uncovered cells at that
// moment, and whether the hint was used. Never negative.
func Cost(guesses, reveals int, usedHint bool) int {
	points := max(0, guesses-FreeGuesses)*PenaltyGuess +
		max(0, reveals-FreeReveals)*PenaltyReveal
	if usedHint {
		points += PenaltyHint
	}
	return points
}
