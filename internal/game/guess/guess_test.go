package guess

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"plain word", "kufr", "kufr"},
		{"uppercase", "Kufr", "kufr"},
		{"diacritics stripped", "žirafa", "zirafa"},
		{"czech phrase", "Šroubovák", "sroubovak"},
		{"spaces to dashes", "velka cervena zidle", "velka-cervena-zidle"},
		{"punctuation collapses", "maly, zeleny: pes!", "maly-zeleny-pes"},
		{"leading trailing trimmed", "  zidle  ", "zidle"},
		{"digits kept", "Trabant 601", "trabant-601"},
		{"empty", "", ""},
		{"only punctuation", "?!...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.in))
		})
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		guess    string
		expected Result
	}{
		{"exact match", "kufr", "kufr", ResultCorrect},
		{"case insensitive", "Kufr", "KUFR", ResultCorrect},
		{"diacritic insensitive", "žirafa", "zirafa", ResultCorrect},
		{"one typo is almost", "zirafa", "zirava", ResultAlmost},
		{"one missing letter is almost", "zirafa", "ziraf", ResultAlmost},
		{"two typos is wrong", "zirafa", "zirvva", ResultWrong},
		{"different word is wrong", "kufr", "zidle", ResultWrong},
		{"empty guess is wrong", "kufr", "", ResultWrong},
		{"empty guess short target is almost", "a", "", ResultAlmost},
		{"both empty is correct", "", "", ResultCorrect},
		{"punctuation only guess equals empty", "kufr", "?!", ResultWrong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Evaluate(tt.target, tt.guess))
		})
	}
}

// Normalizing twice must be the same as normalizing once, and a string
// always evaluates as correct against itself.
func TestNormalizeProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")

		n := Normalize(s)
		if Normalize(n) != n {
			t.Fatalf("normalize not idempotent: %q -> %q -> %q", s, n, Normalize(n))
		}
		if Evaluate(s, s) != ResultCorrect {
			t.Fatalf("string %q not correct against itself", s)
		}
	})
}

func TestDistanceSymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.String().Draw(t, "a")
		b := rapid.String().Draw(t, "b")

		if Distance(a, b) != Distance(b, a) {
			t.Fatalf("distance not symmetric for %q / %q", a, b)
		}
	})
}

func TestResponderText(t *testing.T) {
	r := NewResponder(rand.NewSource(1))

	for _, res := range []Result{ResultCorrect, ResultAlmost, ResultWrong} {
		assert.NotEmpty(t, r.Text(res))
	}
	assert.Empty(t, r.Text(Result("bogus")))
}

func TestResponderDeterministicWithSeed(t *testing.T) {
	a := NewResponder(rand.NewSource(42))
	b := NewResponder(rand.NewSource(42))

	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Text(ResultWrong), b.Text(ResultWrong))
	}
}

func TestResponderDrawsFromPool(t *testing.T) {
	r := NewResponder(rand.NewSource(7))

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		seen[r.Text(ResultCorrect)] = true
	}
	for s := range seen {
		assert.Contains(t, correctTexts, s)
	}
	// With 200 draws from a pool of six, more than one phrase shows up.
	assert.Greater(t, len(seen), 1)
}

// A single Responder serves every request handler, so concurrent Text
// calls must be safe. Run with -race.
func TestResponderConcurrentText(t *testing.T) {
	r := NewResponder(rand.NewSource(1))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if r.Text(ResultWrong) == "" {
					t.Error("empty phrase under concurrent use")
					return
				}
			}
		}()
	}
	wg.Wait()
}
