// Package entity defines the entities and errors used in the application.
// It includes the URL struct, which represents a shortened URL along with its
// lifecycle metadata, and the error taxonomy shared by every layer.
package entity

import "time"

// URL represents a shortened URL.
type URL struct {
	ID            int64      // ID is the unique identifier of the URL in the store.
	ShortCode     string     // ShortCode is the generated code or custom alias.
	OriginalURL   string     // OriginalURL is the full URL that the short code resolves to.
	IsCustomAlias bool       // IsCustomAlias reports whether the code was chosen by the client.
	URLStats                 // URLStats contains statistics about the URL.
	IsActive      bool       // IsActive is evaluated against the clock when the record is read.
	CreatedAt     time.Time  // CreatedAt is the timestamp when the URL was created.
	ExpiresAt     *time.Time // ExpiresAt is nil for URLs that never expire.
	DeactivatedAt *time.Time // DeactivatedAt is set once the URL has been explicitly revoked.
	UpdatedAt     time.Time  // UpdatedAt is the timestamp when the URL was last updated.
}

// URLStats contains statistics related to a shortened URL.
type URLStats struct {
	ClickCount int64 // ClickCount is the number of successful redirects through the URL.
}

// Expired reports whether the URL has an expiry that is not after t.
func (u *URL) Expired(t time.Time) bool {
	return u.ExpiresAt != nil && !t.Before(*u.ExpiresAt)
}

// Deactivated reports whether the URL has been explicitly revoked.
func (u *URL) Deactivated() bool {
	return u.DeactivatedAt != nil
}

// ActiveAt reports whether the URL can be resolved at t.
func (u *URL) ActiveAt(t time.Time) bool {
	return !u.Deactivated() && !u.Expired(t)
}

// Evaluate sets IsActive from the state of the URL at t and returns the URL.
func (u *URL) Evaluate(t time.Time) *URL {
	u.IsActive = u.ActiveAt(t)
	return u
}
