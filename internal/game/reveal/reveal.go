// Package reveal tracks which grid cells of a level's image the player
// has uncovered. The set only grows; uncovering a cell twice is a no-op.
package reveal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Cell is a single grid coordinate. The engine stores whatever
// coordinates it is given; bounds are not checked here.
type Cell struct {
	X int
	Y int
}

// Token returns the persisted form of the cell, e.g. "2x1".
func (c Cell) Token() string {
	return fmt.Sprintf("%dx%d", c.X, c.Y)
}

// ParseToken parses a "{x}x{y}" token back into a Cell.
func ParseToken(token string) (Cell, error) {
	parts := strings.SplitN(token, "x", 2)
	if len(parts) != 2 {
		return Cell{}, fmt.Errorf("malformed cell token %q", token)
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return Cell{}, fmt.Errorf("malformed cell token %q: %w", token, err)
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return Cell{}, fmt.Errorf("malformed cell token %q: %w", token, err)
	}
	return Cell{X: x, Y: y}, nil
}

// Set is the collection of uncovered cells for one level.
// It serializes as a JSON array of "{x}x{y}" tokens, the same shape the
// database column has always held, so existing rows load unchanged.
type Set map[Cell]struct{}

// NewSet returns an empty reveal set.
func NewSet() Set {
	return make(Set)
}

// Add marks a cell as uncovered. Adding an already-uncovered cell
// changes nothing and reports false.
func (s Set) Add(c Cell) bool {
	if _, ok := s[c]; ok {
		return false
	}
	s[c] = struct{}{}
	return true
}

// Has reports whether the cell has been uncovered.
func (s Set) Has(c Cell) bool {
	_, ok := s[c]
	return ok
}

// Count returns the number of uncovered cells.
func (s Set) Count() int {
	return len(s)
}

// Tokens returns the persisted token form of every cell.
// Order is unspecified; the set is order-independent.
func (s Set) Tokens() []string {
	tokens := make([]string, 0, len(s))
	for c := range s {
		tokens = append(tokens, c.Token())
	}
	return tokens
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

// MarshalJSON encodes the set as a token array. A nil set encodes as [].
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Tokens())
}

// UnmarshalJSON decodes a token array, collapsing duplicates.
func (s *Set) UnmarshalJSON(data []byte) error {
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return fmt.Errorf("failed to decode reveal set: %w", err)
	}
	out := make(Set, len(tokens))
	for _, token := range tokens {
		c, err := ParseToken(token)
		if err != nil {
			return err
		}
		out[c] = struct{}{}
	}
	*s = out
	return nil
}
