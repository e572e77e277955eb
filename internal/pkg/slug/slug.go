// Package slug generates the short random handles games are addressed by.
package slug

import (
	"crypto/rand"
	"fmt"
)

// Length is the number of characters in a game slug.
const Length = 12

// alphabet is lowercase alphanumeric, safe to put in a URL path as-is.
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// New returns a fresh random slug of the default length.
func New() (string, error) {
	return Generate(Length)
}

// Generate returns a random string of n characters from the slug
// alphabet, drawn from crypto/rand. Bytes outside the largest multiple
// of the alphabet size are rejected so every character is equally
// likely.
func Generate(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("slug length must be positive, got %d", n)
	}

	const limit = 256 - 256%len(alphabet)

	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// Valid reports whether s looks like a slug this package generated.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z') {
			return false
		}
	}
	return true
}
