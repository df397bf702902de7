// Package expiry maps the expiry tokens accepted by the API to absolute timestamps.
package expiry

import (
	"fmt"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// Token is a requested link lifetime such as "24h" or "never".
type Token string

const (
	OneHour  Token = "1h"
	SixHours Token = "6h"
	OneDay   Token = "24h"
	OneWeek  Token = "7d"
	OneMonth Token = "30d"
	OneYear  Token = "365d"
	Never    Token = "never"
)

const day = 24 * time.Hour

var durations = map[Token]time.Duration{
	OneHour:  time.Hour,
	SixHours: 6 * time.Hour,
	OneDay:   day,
	OneWeek:  7 * day,
	OneMonth: 30 * day,
	OneYear:  365 * day,
}

// Tokens returns every accepted token in ascending lifetime order.
func Tokens() []Token {
	return []Token{OneHour, SixHours, OneDay, OneWeek, OneMonth, OneYear, Never}
}

// Resolve returns the expiry instant for token relative to now, or nil for Never.
func Resolve(token Token, now time.Time) (*time.Time, error) {
	const op = "expiry.Resolve"

	if token == Never {
		return nil, nil
	}

	d, ok := durations[token]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", op, entity.ErrInvalidExpiry, string(token))
	}

	expiresAt := now.Add(d)
	return &expiresAt, nil
}
