package storage

import (
	"context"
	"errors"
	"time"

	"github.com/artscout/artscout/internal/core/domain"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
)

// URLRepository handles source URL storage.
type URLRepository interface {
	// Upsert inserts the URL if new, otherwise refreshes the raw fields and
	// the updated_at stamp. Returns the row id either way.
	Upsert(ctx context.Context, u *domain.SourceURL) (int64, error)

	// GetByURL retrieves a source URL row, or ErrNotFound.
	GetByURL(ctx context.Context, url string) (*domain.SourceURL, error)

	// ListUnprocessed returns URLs that back no exhibition yet.
	ListUnprocessed(ctx context.Context, limit int) ([]*domain.SourceURL, error)
}

// CandidateWrite is one atomic exhibition write: the exhibition row plus a
// full replacement of its fee and prize sets. Either all rows reflect the
// write or none do.
type CandidateWrite struct {
	// ExhibitionID is 0 for an insert, or the row being merged into.
	ExhibitionID int64
	Exhibition   *domain.Exhibition
	Fees         []domain.EntryFee
	Prizes       []domain.Prize
}

// ExhibitionRepository handles canonical exhibition storage.
type ExhibitionRepository interface {
	// ListByStartDate returns all exhibitions starting on the given day.
	// This is the candidate set for duplicate matching; the fuzzy comparison
	// itself lives in the consistency layer.
	ListByStartDate(ctx context.Context, start time.Time) ([]*domain.Exhibition, error)

	// SaveCandidate applies a CandidateWrite in one transaction, returning
	// the exhibition id. Fee replacement is keyed (exhibition_id, fee_type,
	// number_entries); prize replacement is keyed (exhibition_id, rank).
	SaveCandidate(ctx context.Context, w *CandidateWrite) (int64, error)

	// FeesAndPrizes returns the child rows for an exhibition.
	FeesAndPrizes(ctx context.Context, exhibitionID int64) ([]domain.EntryFee, []domain.Prize, error)

	// Stats returns dataset-level counts for reporting.
	Stats(ctx context.Context) (*DatasetStats, error)
}

// TaskRepository persists the coordinator's task table so runs are
// resumable. Terminal rows are kept for audit.
type TaskRepository interface {
	Save(ctx context.Context, t *domain.Task) error
	Update(ctx context.Context, t *domain.Task) error
	GetByURL(ctx context.Context, url string) (*domain.Task, error)

	// LoadResumable returns every non-terminal task.
	LoadResumable(ctx context.Context) ([]*domain.Task, error)

	CountByState(ctx context.Context) (map[domain.TaskState]int, error)
}

// Pinger reports whether the backing store is reachable. The coordinator
// pings it while dispatch is paused on a store failure.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatasetStats is a snapshot of what has been collected so far.
type DatasetStats struct {
	URLs         int       `json:"urls"`
	Exhibitions  int       `json:"exhibitions"`
	EntryFees    int       `json:"entry_fees"`
	Prizes       int       `json:"prizes"`
	EarliestDate time.Time `json:"earliest_date"`
	LatestDate   time.Time `json:"latest_date"`
}
