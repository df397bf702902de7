// Package shortcode produces short codes: random codes drawn from the base62
// alphabet and client-chosen aliases, both checked against the reserved routes.
package shortcode

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vadimbarashkov/shortlink/internal/entity"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Alphabet is the set of characters used for generated codes.
	Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	DefaultLength  = 7
	MinAliasLength = 3
	MaxAliasLength = 20

	maxDraws = 10
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Generator creates candidate codes. It does not talk to the store: collisions are
// detected by the insert and the caller asks for another candidate.
type Generator struct {
	length   int
	generate func(alphabet string, size int) (string, error)
}

// NewGenerator returns a Generator producing codes of the given base length.
func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}

	return &Generator{
		length:   length,
		generate: gonanoid.Generate,
	}
}

// Random returns a random, non-reserved code. Every retry after a collision passes a
// higher attempt, which lengthens the code by one character to widen the space.
func (g *Generator) Random(attempt int) (string, error) {
	const op = "shortcode.Generator.Random"

	size := g.length + attempt
	if size > MaxAliasLength {
		size = MaxAliasLength
	}

	for i := 0; i < maxDraws; i++ {
		code, err := g.generate(Alphabet, size)
		if err != nil {
			return "", fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		if !IsReserved(code) {
			return code, nil
		}
	}

	return "", fmt.Errorf("%s: %w", op, entity.ErrGenerationExhausted)
}

// Alias validates a client-chosen alias and returns its lowercase form as the code.
func (g *Generator) Alias(alias string) (string, error) {
	const op = "shortcode.Generator.Alias"

	if err := ValidateAlias(alias); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return strings.ToLower(alias), nil
}

// ValidateAlias checks length, charset and the reserved set.
func ValidateAlias(alias string) error {
	if len(alias) < MinAliasLength || len(alias) > MaxAliasLength || !aliasPattern.MatchString(alias) {
		return fmt.Errorf("%w: %q", entity.ErrInvalidAlias, alias)
	}

	if IsReserved(alias) {
		return fmt.Errorf("%w: %q", entity.ErrReservedAlias, alias)
	}

	return nil
}
