package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/artscout/artscout/internal/core/domain"
	"github.com/artscout/artscout/internal/infra/storage"
)

// URLRepo implements storage.URLRepository using PostgreSQL.
type URLRepo struct {
	db *DB
}

// NewURLRepo creates a new PostgreSQL source URL repository.
func NewURLRepo(db *DB) *URLRepo {
	return &URLRepo{db: db}
}

// Upsert inserts the URL or refreshes its raw fields. The row is never
// deleted; re-discovery re-stamps updated_at.
func (r *URLRepo) Upsert(ctx context.Context, u *domain.SourceURL) (int64, error) {
	query := `
		INSERT INTO urls (url, raw_title, raw_date, raw_location, raw_description, first_seen, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (url) DO UPDATE SET
			raw_title = EXCLUDED.raw_title,
			raw_date = EXCLUDED.raw_date,
			raw_location = EXCLUDED.raw_location,
			raw_description = EXCLUDED.raw_description,
			updated_at = NOW()
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		u.URL, u.RawTitle, u.RawDate, u.RawLocation, u.RawDescription,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert url: %w", err)
	}
	return id, nil
}

// GetByURL retrieves a source URL row.
func (r *URLRepo) GetByURL(ctx context.Context, url string) (*domain.SourceURL, error) {
	query := `
		SELECT id, url, raw_title, raw_date, raw_location, raw_description, first_seen, updated_at
		FROM urls
		WHERE url = $1
	`
	var u domain.SourceURL
	err := r.db.GetContext(ctx, &u, query, url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get url: %w", err)
	}
	return &u, nil
}

// ListUnprocessed returns URLs with no exhibition extracted from them yet.
func (r *URLRepo) ListUnprocessed(ctx context.Context, limit int) ([]*domain.SourceURL, error) {
	query := `
		SELECT u.id, u.url, u.raw_title, u.raw_date, u.raw_location, u.raw_description, u.first_seen, u.updated_at
		FROM urls u
		LEFT JOIN exhibitions e ON e.url_id = u.id
		WHERE e.id IS NULL
		ORDER BY u.id ASC
		LIMIT $1
	`
	var rows []*domain.SourceURL
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list unprocessed urls: %w", err)
	}
	return rows, nil
}
