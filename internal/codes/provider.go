package codes

import (
	"crypto/sha256"
	"math/rand/v2"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultLength is the number of letters in a secret code.
	DefaultLength = 8

	// DefaultIterations is the PBKDF2 work factor for code seeds.
	DefaultIterations = 100000
)

// Provider derives the secret code of an assignment. A code depends only on
// the secret key and the game, circle and victim names, so it can be
// recomputed at any time and never needs to be stored.
type Provider struct {
	gen        *Generator
	key        []byte
	length     int
	iterations int
}

// NewProvider creates a Provider. Zero length or iterations select the
// defaults.
func NewProvider(gen *Generator, secretKey string, length, iterations int) *Provider {
	if length <= 0 {
		length = DefaultLength
	}
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Provider{gen: gen, key: []byte(secretKey), length: length, iterations: iterations}
}

// Code returns the secret code for victim's assignment in circle.
func (p *Provider) Code(gameID, circle, victim string) string {
	salt := strings.Join([]string{gameID, circle, victim}, "/")
	seed := pbkdf2.Key(p.key, []byte(salt), p.iterations, 32, sha256.New)
	var s [32]byte
	copy(s[:], seed)
	return p.gen.Generate(p.length, rand.New(rand.NewChaCha8(s)))
}

// Match reports whether candidate is the code for victim's assignment.
// Comparison ignores case and surrounding whitespace.
func (p *Provider) Match(gameID, circle, victim, candidate string) bool {
	return strings.EqualFold(strings.TrimSpace(candidate), p.Code(gameID, circle, victim))
}
