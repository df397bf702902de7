package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestURL_ActiveAt(t *testing.T) {
	now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		url  URL
		want bool
	}{
		{
			name: "never expires",
			url:  URL{},
			want: true,
		},
		{
			name: "expired one second ago",
			url:  URL{ExpiresAt: &past},
			want: false,
		},
		{
			name: "expires exactly now",
			url:  URL{ExpiresAt: &now},
			want: false,
		},
		{
			name: "expires in one hour",
			url:  URL{ExpiresAt: &future},
			want: true,
		},
		{
			name: "deactivated",
			url:  URL{ExpiresAt: &future, DeactivatedAt: &past},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.url.ActiveAt(now)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, tt.url.Evaluate(now).IsActive)
		})
	}
}

func TestErrorClasses(t *testing.T) {
	assert.ErrorIs(t, ErrURLExpired, ErrURLNotFound)
	assert.ErrorIs(t, ErrURLInactive, ErrURLNotFound)
	assert.NotErrorIs(t, ErrURLNotFound, ErrURLExpired)

	assert.True(t, IsInvalidInput(ErrReservedAlias))
	assert.True(t, IsInvalidInput(ErrInvalidPage))
	assert.False(t, IsInvalidInput(ErrAliasTaken))
	assert.False(t, IsInvalidInput(ErrURLNotFound))
}
