package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/artscout/artscout/internal/core/domain"
)

// UnitOfWork bundles the exhibition row and its fee/prize children into a
// single database transaction, ensuring atomicity (all succeed or all fail).
type UnitOfWork struct {
	db *DB
	tx *sqlx.Tx
}

// NewUnitOfWork creates a new unit of work with an active transaction.
func (db *DB) NewUnitOfWork(ctx context.Context) (*UnitOfWork, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &UnitOfWork{db: db, tx: tx}, nil
}

// Commit commits the transaction.
func (u *UnitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("transaction already completed")
	}
	err := u.tx.Commit()
	u.tx = nil
	return err
}

// Rollback rolls back the transaction. Safe to call multiple times.
func (u *UnitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Already committed or rolled back
	}
	err := u.tx.Rollback()
	u.tx = nil
	return err
}

// UpsertExhibition inserts a new exhibition when id is 0, otherwise updates
// the existing row with the already-merged field values. Returns the row id.
func (u *UnitOfWork) UpsertExhibition(ctx context.Context, id int64, e *domain.Exhibition) (int64, error) {
	if id == 0 {
		query := `
			INSERT INTO exhibitions (title, venue, location, county, date_start, date_end, description, url_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
			RETURNING id
		`
		err := u.tx.QueryRowContext(ctx, query,
			e.Title, e.Venue, e.Location, e.County, e.DateStart, e.DateEnd, e.Description, e.URLID,
		).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to insert exhibition: %w", err)
		}
		return id, nil
	}

	query := `
		UPDATE exhibitions
		SET title = $2, venue = $3, location = $4, county = $5,
		    date_start = $6, date_end = $7, description = $8, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := u.tx.ExecContext(ctx, query,
		id, e.Title, e.Venue, e.Location, e.County, e.DateStart, e.DateEnd, e.Description,
	); err != nil {
		return 0, fmt.Errorf("failed to update exhibition: %w", err)
	}
	return id, nil
}

// ReplaceFees replaces the fee set for an exhibition. Rows are keyed
// (exhibition_id, fee_type, number_entries); re-submitting identical data
// leaves the same logical rows in place.
func (u *UnitOfWork) ReplaceFees(ctx context.Context, exhibitionID int64, fees []domain.EntryFee) error {
	if _, err := u.tx.ExecContext(ctx,
		`DELETE FROM entry_fees WHERE exhibition_id = $1`, exhibitionID); err != nil {
		return fmt.Errorf("failed to clear entry fees: %w", err)
	}
	query := `
		INSERT INTO entry_fees (exhibition_id, fee_type, number_entries, fee_amount, flat_rate, commission_percent)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, f := range fees {
		if _, err := u.tx.ExecContext(ctx, query,
			exhibitionID, f.Type, f.NumberEntries, f.FeeAmount, f.FlatRate, f.CommissionPercent,
		); err != nil {
			return fmt.Errorf("failed to insert entry fee: %w", err)
		}
	}
	return nil
}

// ReplacePrizes replaces the prize set for an exhibition, keyed
// (exhibition_id, prize_rank).
func (u *UnitOfWork) ReplacePrizes(ctx context.Context, exhibitionID int64, prizes []domain.Prize) error {
	if _, err := u.tx.ExecContext(ctx,
		`DELETE FROM prizes WHERE exhibition_id = $1`, exhibitionID); err != nil {
		return fmt.Errorf("failed to clear prizes: %w", err)
	}
	query := `
		INSERT INTO prizes (exhibition_id, prize_rank, prize_amount, prize_type, prize_description)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, p := range prizes {
		if _, err := u.tx.ExecContext(ctx, query,
			exhibitionID, p.Rank, p.Amount, p.Type, p.Description,
		); err != nil {
			return fmt.Errorf("failed to insert prize: %w", err)
		}
	}
	return nil
}
