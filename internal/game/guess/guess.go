// Package guess classifies a player's guess against the target name.
//
// Both sides are reduced to a webalized form (lowercase ASCII slug with
// diacritics stripped) before the edit distance is taken, so "Žirafa"
// and "zirafa" compare equal.
package guess

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Result classifies one guess.
type Result string

const (
	ResultCorrect Result = "correct"
	ResultAlmost  Result = "almost"
	ResultWrong   Result = "wrong"
)

// A guess within this distance of the target counts as a near miss and
// is not recorded as an attempt.
const almostDistance = 1

// deaccent decomposes runes and drops the combining marks.
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize reduces a name to its canonical slug form: diacritics
// stripped, lowercased, every run of non-alphanumeric characters
// collapsed into a single dash, leading and trailing dashes trimmed.
func Normalize(s string) string {
	stripped, _, err := transform.String(deaccent, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	dash := false
	for _, r := range strings.ToLower(stripped) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	return b.String()
}

// Distance returns the edit distance between the normalized forms of
// the two names.
func Distance(target, guess string) int {
	return levenshtein.ComputeDistance(Normalize(target), Normalize(guess))
}

// Evaluate classifies a guess against the target name. It is pure:
// distance 0 is correct, distance 1 a near miss, anything further wrong.
// An empty guess is fine; it is simply as far from the target as the
// target is long.
func Evaluate(target, text string) Result {
	switch d := Distance(target, text); {
	case d == 0:
		return ResultCorrect
	case d <= almostDistance:
		return ResultAlmost
	default:
		return ResultWrong
	}
}
