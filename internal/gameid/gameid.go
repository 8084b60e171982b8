// Package gameid generates and checks the short codes players type to
// join a room.
package gameid

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Crockford's base32 alphabet: no I, L, O or U so codes read unambiguously.
const alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// CodeLength is the number of characters in a room code
const CodeLength = 6

// RandSource supplies randomness for code generation. *rand.Rand from
// math/rand/v2 satisfies it.
type RandSource interface {
	IntN(n int) int
}

// Generator produces room codes from an optional RandSource. A nil source
// uses crypto/rand.
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a generator. Pass nil for crypto randomness.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// NewRoomCode returns a random code using crypto/rand
func NewRoomCode() string {
	return NewGenerator(nil).Generate()
}

// Generate returns a new room code
func (g *Generator) Generate() string {
	var b strings.Builder
	b.Grow(CodeLength)
	for range CodeLength {
		b.WriteByte(alphabet[g.intn(len(alphabet))])
	}
	return b.String()
}

func (g *Generator) intn(n int) int {
	if g.randSource != nil {
		return g.randSource.IntN(n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}
	return int(v.Int64())
}

// Normalize upper-cases a typed code and maps the look-alike letters
// O, I and L to the digits they stand for.
func Normalize(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	return strings.Map(func(r rune) rune {
		switch r {
		case 'O':
			return '0'
		case 'I', 'L':
			return '1'
		case '-':
			return -1
		}
		return r
	}, code)
}

// Validate checks that code is a normalized room code
func Validate(code string) error {
	if len(code) != CodeLength {
		return fmt.Errorf("room code must be exactly %d characters, got %d", CodeLength, len(code))
	}
	for i, char := range code {
		if !strings.ContainsRune(alphabet, char) {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}
	return nil
}
