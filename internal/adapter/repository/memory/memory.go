// Package memory provides an in-process URL repository. It backs the "memory"
// storage mode used for local development and for tests that need real
// concurrency semantics without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type URLRepository struct {
	mu     sync.RWMutex
	nextID int64
	urls   map[string]*entity.URL
}

func NewURLRepository() *URLRepository {
	return &URLRepository{
		urls: make(map[string]*entity.URL),
	}
}

func (r *URLRepository) Save(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.Save"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.urls[url.ShortCode]; ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
	}

	r.nextID++

	rec := *url
	rec.ID = r.nextID
	rec.ClickCount = 0
	rec.DeactivatedAt = nil
	rec.UpdatedAt = rec.CreatedAt
	r.urls[rec.ShortCode] = &rec

	return copyURL(&rec), nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.RetrieveByShortCode"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.urls[shortCode]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return copyURL(rec), nil
}

func (r *URLRepository) RetrieveAndUpdateStats(ctx context.Context, shortCode string, now time.Time) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.RetrieveAndUpdateStats"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.urls[shortCode]
	if !ok || !rec.ActiveAt(now) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	rec.ClickCount++
	rec.UpdatedAt = now

	return copyURL(rec), nil
}

func (r *URLRepository) Deactivate(ctx context.Context, shortCode string, at time.Time) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.Deactivate"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.urls[shortCode]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	if rec.DeactivatedAt == nil {
		deactivatedAt := at
		rec.DeactivatedAt = &deactivatedAt
		rec.UpdatedAt = at
	}

	return copyURL(rec), nil
}

// List orders by creation time, newest first, then by short code.
func (r *URLRepository) List(ctx context.Context, page entity.Page) ([]*entity.URL, int64, error) {
	const op = "adapter.repository.memory.URLRepository.List"

	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.RLock()
	all := make([]*entity.URL, 0, len(r.urls))
	for _, rec := range r.urls {
		all = append(all, copyURL(rec))
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ShortCode < all[j].ShortCode
	})

	total := int64(len(all))
	start := page.Offset()
	if start < 0 || start >= len(all) {
		return []*entity.URL{}, total, nil
	}

	end := start + page.Size
	if end > len(all) {
		end = len(all)
	}

	return all[start:end], total, nil
}

func copyURL(u *entity.URL) *entity.URL {
	c := *u
	if u.ExpiresAt != nil {
		t := *u.ExpiresAt
		c.ExpiresAt = &t
	}
	if u.DeactivatedAt != nil {
		t := *u.DeactivatedAt
		c.DeactivatedAt = &t
	}
	return &c
}
