package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/artscout/artscout/internal/core/domain"
	"github.com/artscout/artscout/internal/infra/storage"
)

// ExhibitionRepo implements storage.ExhibitionRepository using PostgreSQL.
type ExhibitionRepo struct {
	db *DB
}

// NewExhibitionRepo creates a new PostgreSQL exhibition repository.
func NewExhibitionRepo(db *DB) *ExhibitionRepo {
	return &ExhibitionRepo{db: db}
}

// ListByStartDate returns exhibitions starting on the given day. Duplicate
// matching requires an exact date_start match, so this is the full
// candidate set for the fuzzy comparison upstream.
func (r *ExhibitionRepo) ListByStartDate(ctx context.Context, start time.Time) ([]*domain.Exhibition, error) {
	query := `
		SELECT id, title, venue, location, county, date_start, date_end, description, url_id
		FROM exhibitions
		WHERE date_start = $1
		ORDER BY id ASC
	`
	var rows []*domain.Exhibition
	err := r.db.SelectContext(ctx, &rows, query, start.Truncate(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to list exhibitions by start date: %w", err)
	}
	return rows, nil
}

// SaveCandidate applies the write atomically via a UnitOfWork.
func (r *ExhibitionRepo) SaveCandidate(ctx context.Context, w *storage.CandidateWrite) (int64, error) {
	uow, err := r.db.NewUnitOfWork(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = uow.Rollback() }()

	id, err := uow.UpsertExhibition(ctx, w.ExhibitionID, w.Exhibition)
	if err != nil {
		return 0, err
	}
	if w.Fees != nil {
		if err := uow.ReplaceFees(ctx, id, w.Fees); err != nil {
			return 0, err
		}
	}
	if w.Prizes != nil {
		if err := uow.ReplacePrizes(ctx, id, w.Prizes); err != nil {
			return 0, err
		}
	}
	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit candidate write: %w", err)
	}
	return id, nil
}

// FeesAndPrizes returns the child rows for an exhibition.
func (r *ExhibitionRepo) FeesAndPrizes(ctx context.Context, exhibitionID int64) ([]domain.EntryFee, []domain.Prize, error) {
	var fees []domain.EntryFee
	err := r.db.SelectContext(ctx, &fees, `
		SELECT id, exhibition_id, fee_type, number_entries, fee_amount, flat_rate, commission_percent
		FROM entry_fees WHERE exhibition_id = $1 ORDER BY fee_type, number_entries
	`, exhibitionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get entry fees: %w", err)
	}

	var prizes []domain.Prize
	err = r.db.SelectContext(ctx, &prizes, `
		SELECT id, exhibition_id, prize_rank, prize_amount, prize_type, prize_description
		FROM prizes WHERE exhibition_id = $1 ORDER BY prize_rank
	`, exhibitionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get prizes: %w", err)
	}
	return fees, prizes, nil
}

// Stats returns dataset-level counts and the covered date range.
func (r *ExhibitionRepo) Stats(ctx context.Context) (*storage.DatasetStats, error) {
	stats := &storage.DatasetStats{}

	counts := `
		SELECT
			(SELECT COUNT(*) FROM urls) AS urls,
			(SELECT COUNT(*) FROM exhibitions) AS exhibitions,
			(SELECT COUNT(*) FROM entry_fees) AS entry_fees,
			(SELECT COUNT(*) FROM prizes) AS prizes
	`
	row := r.db.QueryRowContext(ctx, counts)
	if err := row.Scan(&stats.URLs, &stats.Exhibitions, &stats.EntryFees, &stats.Prizes); err != nil {
		return nil, fmt.Errorf("failed to get dataset counts: %w", err)
	}

	var earliest, latest sql.NullTime
	row = r.db.QueryRowContext(ctx, `SELECT MIN(date_start), MAX(date_end) FROM exhibitions`)
	if err := row.Scan(&earliest, &latest); err != nil {
		return nil, fmt.Errorf("failed to get date range: %w", err)
	}
	if earliest.Valid {
		stats.EarliestDate = earliest.Time
	}
	if latest.Valid {
		stats.LatestDate = latest.Time
	}
	return stats, nil
}
