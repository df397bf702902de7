// Package usecase implements the short-URL operations: creating links, resolving
// redirects, existence checks, statistics, listing and deactivation.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/expiry"
	"github.com/vadimbarashkov/shortlink/internal/shortcode"
)

// MaxRetries bounds the attempts to insert a generated code after collisions.
const MaxRetries = 5

type urlRepository interface {
	Save(ctx context.Context, url *entity.URL) (*entity.URL, error)
	RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	RetrieveAndUpdateStats(ctx context.Context, shortCode string, now time.Time) (*entity.URL, error)
	Deactivate(ctx context.Context, shortCode string, at time.Time) (*entity.URL, error)
	List(ctx context.Context, page entity.Page) ([]*entity.URL, int64, error)
}

type urlCache interface {
	Get(ctx context.Context, shortCode string) (*entity.URL, bool, error)
	Set(ctx context.Context, url *entity.URL) error
	Delete(ctx context.Context, shortCode string) error
}

// ShortenParams holds the input of ShortenURL.
type ShortenParams struct {
	OriginalURL string
	ExpiresIn   expiry.Token
	CustomAlias string
}

type Option func(*URLUseCase)

// WithClock replaces time.Now as the source of the current instant.
func WithClock(now func() time.Time) Option {
	return func(uc *URLUseCase) {
		uc.now = now
	}
}

// WithCache enables a read-through cache for existence checks.
func WithCache(cache urlCache) Option {
	return func(uc *URLUseCase) {
		uc.cache = cache
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(uc *URLUseCase) {
		uc.logger = logger
	}
}

type URLUseCase struct {
	gen     *shortcode.Generator
	urlRepo urlRepository
	cache   urlCache
	now     func() time.Time
	logger  *slog.Logger
}

func New(shortCodeLength int, urlRepo urlRepository, opts ...Option) *URLUseCase {
	uc := &URLUseCase{
		gen:     shortcode.NewGenerator(shortCodeLength),
		urlRepo: urlRepo,
		now:     time.Now,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func (uc *URLUseCase) ShortenURL(ctx context.Context, params ShortenParams) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ShortenURL"

	if err := validateOriginalURL(params.OriginalURL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := uc.now()

	expiresAt, err := expiry.Resolve(params.ExpiresIn, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	newURL := func(code string) *entity.URL {
		return &entity.URL{
			ShortCode:     code,
			OriginalURL:   params.OriginalURL,
			IsCustomAlias: params.CustomAlias != "",
			CreatedAt:     now,
			ExpiresAt:     expiresAt,
		}
	}

	if params.CustomAlias != "" {
		code, err := uc.gen.Alias(params.CustomAlias)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		url, err := uc.urlRepo.Save(ctx, newURL(code))
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				return nil, fmt.Errorf("%s: %w: %q", op, entity.ErrAliasTaken, code)
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		uc.cacheURL(ctx, url)
		return url.Evaluate(now), nil
	}

	for i := 0; i < MaxRetries; i++ {
		code, err := uc.gen.Random(i)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		url, err := uc.urlRepo.Save(ctx, newURL(code))
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		uc.cacheURL(ctx, url)
		return url.Evaluate(now), nil
	}

	return nil, fmt.Errorf("%s: %w", op, entity.ErrGenerationExhausted)
}

// ResolveShortCode records a click and returns the URL to redirect to. Missing, expired
// and deactivated codes all fail with an error matching entity.ErrURLNotFound.
func (uc *URLUseCase) ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ResolveShortCode"

	if shortcode.IsReserved(shortCode) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	now := uc.now()

	// The increment only matches active, unexpired rows, so check and update are one step.
	url, err := uc.urlRepo.RetrieveAndUpdateStats(ctx, shortCode, now)
	if err == nil {
		return url.Evaluate(now), nil
	}
	if !errors.Is(err, entity.ErrURLNotFound) {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	url, err = uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	return nil, fmt.Errorf("%s: %w", op, inactiveReason(url, now))
}

// CheckURL returns the URL if it is active at the current instant.
func (uc *URLUseCase) CheckURL(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.CheckURL"

	if shortcode.IsReserved(shortCode) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	url, err := uc.lookup(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to check url: %w", op, err)
	}

	now := uc.now()
	if !url.ActiveAt(now) {
		return nil, fmt.Errorf("%s: %w", op, inactiveReason(url, now))
	}

	return url.Evaluate(now), nil
}

// GetURLStats returns a snapshot of the URL, including inactive ones, without recording a click.
func (uc *URLUseCase) GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.GetURLStats"

	url, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	return url.Evaluate(uc.now()), nil
}

func (uc *URLUseCase) ListURLs(ctx context.Context, page, pageSize int) (*entity.URLList, error) {
	const op = "usecase.URLUseCase.ListURLs"

	p, err := entity.NewPage(page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	urls, total, err := uc.urlRepo.List(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	now := uc.now()
	for _, url := range urls {
		url.Evaluate(now)
	}

	return &entity.URLList{
		URLs:  urls,
		Total: total,
		Page:  p,
	}, nil
}

// DeactivateURL revokes the URL. Revoking an already revoked URL is a no-op.
func (uc *URLUseCase) DeactivateURL(ctx context.Context, shortCode string) error {
	const op = "usecase.URLUseCase.DeactivateURL"

	if _, err := uc.urlRepo.Deactivate(ctx, shortCode, uc.now()); err != nil {
		return fmt.Errorf("%s: failed to deactivate url: %w", op, err)
	}

	if uc.cache != nil {
		if err := uc.cache.Delete(ctx, shortCode); err != nil {
			uc.logger.Warn("failed to invalidate cached url",
				slog.String("op", op),
				slog.String("short_code", shortCode),
				slog.Any("err", err),
			)
		}
	}

	return nil
}

func (uc *URLUseCase) lookup(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.lookup"

	if uc.cache != nil {
		url, ok, err := uc.cache.Get(ctx, shortCode)
		if err != nil {
			uc.logger.Warn("failed to read cached url",
				slog.String("op", op),
				slog.String("short_code", shortCode),
				slog.Any("err", err),
			)
		}
		if ok {
			return url, nil
		}
	}

	url, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	uc.cacheURL(ctx, url)
	return url, nil
}

func (uc *URLUseCase) cacheURL(ctx context.Context, url *entity.URL) {
	if uc.cache == nil {
		return
	}

	if err := uc.cache.Set(ctx, url); err != nil {
		uc.logger.Warn("failed to cache url",
			slog.String("short_code", url.ShortCode),
			slog.Any("err", err),
		)
	}
}

func inactiveReason(url *entity.URL, now time.Time) error {
	switch {
	case url.Deactivated():
		return entity.ErrURLInactive
	case url.Expired(now):
		return entity.ErrURLExpired
	default:
		// Created between the two reads.
		return entity.ErrURLNotFound
	}
}

func validateOriginalURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q is not an absolute http(s) url", entity.ErrInvalidURL, raw)
	}
	return nil
}
