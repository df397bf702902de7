package entity

import (
	"errors"
	"fmt"
)

// Invalid input. Rejected before anything is written.
var (
	ErrInvalidURL    = errors.New("invalid original url")
	ErrInvalidAlias  = errors.New("alias must be 3-20 characters of letters, digits, '-' or '_'")
	ErrReservedAlias = errors.New("alias is a reserved word")
	ErrInvalidExpiry = errors.New("invalid expiry token")
	ErrInvalidPage   = errors.New("invalid page")
)

var (
	// ErrShortCodeExists is returned by a store when a record with the same short code already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrAliasTaken is returned when a custom alias is already in use.
	ErrAliasTaken = errors.New("alias is already taken")
	// ErrGenerationExhausted is returned when no free short code was found within the retry budget.
	ErrGenerationExhausted = errors.New("failed to generate a unique short code")
)

var (
	// ErrURLNotFound is returned when a URL with the specified short code cannot be found.
	ErrURLNotFound = errors.New("url not found")
	// ErrURLExpired is returned when the URL exists but its expiry has passed.
	// It wraps ErrURLNotFound so callers that do not care about the reason see a plain miss.
	ErrURLExpired = fmt.Errorf("%w: expired", ErrURLNotFound)
	// ErrURLInactive is returned when the URL exists but has been deactivated.
	ErrURLInactive = fmt.Errorf("%w: deactivated", ErrURLNotFound)
)

// IsInvalidInput reports whether err belongs to the invalid input class.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidURL) ||
		errors.Is(err, ErrInvalidAlias) ||
		errors.Is(err, ErrReservedAlias) ||
		errors.Is(err, ErrInvalidExpiry) ||
		errors.Is(err, ErrInvalidPage)
}
