package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/pkg/postgres"
)

const urlColumns = `id, short_code, original_url, is_custom_alias, click_count,
	created_at, expires_at, deactivated_at, updated_at`

type urlDB struct {
	ID            int64      `db:"id"`
	ShortCode     string     `db:"short_code"`
	OriginalURL   string     `db:"original_url"`
	IsCustomAlias bool       `db:"is_custom_alias"`
	ClickCount    int64      `db:"click_count"`
	CreatedAt     time.Time  `db:"created_at"`
	ExpiresAt     *time.Time `db:"expires_at"`
	DeactivatedAt *time.Time `db:"deactivated_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (u *urlDB) toEntity() *entity.URL {
	return &entity.URL{
		ID:            u.ID,
		ShortCode:     u.ShortCode,
		OriginalURL:   u.OriginalURL,
		IsCustomAlias: u.IsCustomAlias,
		URLStats: entity.URLStats{
			ClickCount: u.ClickCount,
		},
		CreatedAt:     u.CreatedAt,
		ExpiresAt:     u.ExpiresAt,
		DeactivatedAt: u.DeactivatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

func (r *URLRepository) Save(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Save"
	const query = `INSERT INTO urls(short_code, original_url, is_custom_alias, created_at, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $4)
		RETURNING ` + urlColumns

	var rec urlDB

	err := r.db.GetContext(ctx, &rec, query,
		url.ShortCode, url.OriginalURL, url.IsCustomAlias, url.CreatedAt, url.ExpiresAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into urls table: %w", op, err)
	}

	return rec.toEntity(), nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveByShortCode"
	const query = `SELECT ` + urlColumns + ` FROM urls WHERE short_code = $1`

	var rec urlDB

	if err := r.db.GetContext(ctx, &rec, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from urls table: %w", op, err)
	}

	return rec.toEntity(), nil
}

// RetrieveAndUpdateStats increments the click count of an active, unexpired URL in a
// single statement. Rows that are missing, expired at now or deactivated are not
// touched and reported as entity.ErrURLNotFound.
func (r *URLRepository) RetrieveAndUpdateStats(ctx context.Context, shortCode string, now time.Time) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveAndUpdateStats"
	const query = `UPDATE urls
		SET click_count = click_count + 1, updated_at = $2
		WHERE short_code = $1
			AND deactivated_at IS NULL
			AND (expires_at IS NULL OR expires_at > $2)
		RETURNING ` + urlColumns

	var rec urlDB

	if err := r.db.GetContext(ctx, &rec, query, shortCode, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get and update urls table row: %w", op, err)
	}

	return rec.toEntity(), nil
}

func (r *URLRepository) Deactivate(ctx context.Context, shortCode string, at time.Time) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Deactivate"
	const query = `UPDATE urls
		SET deactivated_at = COALESCE(deactivated_at, $2),
			updated_at = CASE WHEN deactivated_at IS NULL THEN $2 ELSE updated_at END
		WHERE short_code = $1
		RETURNING ` + urlColumns

	var rec urlDB

	if err := r.db.GetContext(ctx, &rec, query, shortCode, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update urls table row: %w", op, err)
	}

	return rec.toEntity(), nil
}

// List reads the total and the requested page from one snapshot.
func (r *URLRepository) List(ctx context.Context, page entity.Page) ([]*entity.URL, int64, error) {
	const op = "adapter.repository.postgres.URLRepository.List"
	const countQuery = `SELECT COUNT(*) FROM urls`
	const pageQuery = `SELECT ` + urlColumns + ` FROM urls
		ORDER BY created_at DESC, short_code ASC
		LIMIT $1 OFFSET $2`

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	var total int64
	if err := tx.GetContext(ctx, &total, countQuery); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count urls table rows: %w", op, err)
	}

	var recs []urlDB
	if err := tx.SelectContext(ctx, &recs, pageQuery, page.Size, page.Offset()); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to select urls table rows: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	urls := make([]*entity.URL, 0, len(recs))
	for i := range recs {
		urls = append(urls, recs[i].toEntity())
	}

	return urls, total, nil
}
