package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCost(t *testing.T) {
	tests := []struct {
		name     string
		guesses  int
		reveals  int
		usedHint bool
		expected int
	}{
		{"first guess and reveal are free", 1, 1, false, 0},
		{"extra guesses cost one each", 3, 1, false, 2},
		{"extra reveals cost two each", 1, 4, false, 6},
		{"hint costs flat five", 1, 1, true, 5},
		{"everything combined", 5, 3, true, 4*1 + 2*2 + 5},
		{"no activity at all", 0, 0, false, 0},
		{"zero counts with hint", 0, 0, true, 5},
		{"solved blind on first guess", 1, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Cost(tt.guesses, tt.reveals, tt.usedHint))
		})
	}
}

// Cost is never negative and never decreases when any input grows.
func TestCostProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		guesses := rapid.IntRange(0, 1000).Draw(t, "guesses")
		reveals := rapid.IntRange(0, 1000).Draw(t, "reveals")
		usedHint := rapid.Bool().Draw(t, "usedHint")

		c := Cost(guesses, reveals, usedHint)
		if c < 0 {
			t.Fatalf("negative cost %d", c)
		}
		if Cost(guesses+1, reveals, usedHint) < c {
			t.Fatal("cost decreased with an extra guess")
		}
		if Cost(guesses, reveals+1, usedHint) < c {
			t.Fatal("cost decreased with an extra reveal")
		}
		if Cost(guesses, reveals, true) < Cost(guesses, reveals, false) {
			t.Fatal("hint made the level cheaper")
		}
	})
}
