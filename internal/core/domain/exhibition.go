package domain

import "time"

// SourceURL is one discovered page, stored with the raw text captured at
// fetch time. Rows are never deleted; re-discovery re-stamps UpdatedAt.
type SourceURL struct {
	ID             int64     `db:"id"`
	URL            string    `db:"url"`
	RawTitle       string    `db:"raw_title"`
	RawDate        string    `db:"raw_date"`
	RawLocation    string    `db:"raw_location"`
	RawDescription string    `db:"raw_description"`
	FirstSeen      time.Time `db:"first_seen"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Exhibition is the canonical structured record for one open call or show.
type Exhibition struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Venue       string    `db:"venue"`
	Location    string    `db:"location"`
	County      string    `db:"county"`
	DateStart   time.Time `db:"date_start"`
	DateEnd     time.Time `db:"date_end"`
	Description string    `db:"description"`
	URLID       int64     `db:"url_id"`
}

type FeeType string

const (
	FeeTiered FeeType = "tiered"
	FeeFlat   FeeType = "flat"
)

// EntryFee belongs to exactly one exhibition. Tiered fees carry the number
// of entries the tier applies to; flat fees carry a single rate.
type EntryFee struct {
	ID                int64   `db:"id"`
	ExhibitionID      int64   `db:"exhibition_id"`
	Type              FeeType `db:"fee_type"`
	NumberEntries     int     `db:"number_entries"`
	FeeAmount         float64 `db:"fee_amount"`
	FlatRate          float64 `db:"flat_rate"`
	CommissionPercent float64 `db:"commission_percent"`
}

// Prize belongs to exactly one exhibition. Rank is unique per exhibition;
// restated prizes from duplicate sources overwrite the existing rank.
type Prize struct {
	ID           int64   `db:"id"`
	ExhibitionID int64   `db:"exhibition_id"`
	Rank         int     `db:"prize_rank"`
	Amount       float64 `db:"prize_amount"`
	Type         string  `db:"prize_type"`
	Description  string  `db:"prize_description"`
}
