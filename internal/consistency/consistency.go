package consistency

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/artscout/artscout/internal/core/domain"
	"github.com/artscout/artscout/internal/infra/storage"
	"github.com/artscout/artscout/internal/metrics"
)

// StoreResult is the outcome of one Submit call.
type StoreResult struct {
	ExhibitionID int64
	New          bool
	Rejected     bool
	Reason       string
}

// Submitter is the sole gatekeeper between raw candidate drafts and the
// candidate store. It validates, deduplicates against existing exhibitions,
// merges, and writes atomically.
//
// The duplicate-lookup-then-write critical section runs under a single
// writer lock: the comparison is fuzzy, so same-key submissions cannot be
// recognized before the lookup runs, and the lock is what guarantees two
// concurrent drafts for one exhibition never produce two rows. Reads
// elsewhere are unaffected.
type Submitter struct {
	urls        storage.URLRepository
	exhibitions storage.ExhibitionRepository
	matcher     *Matcher
	log         *slog.Logger

	writeMu sync.Mutex
}

// NewSubmitter creates the consistency layer over the given repositories.
func NewSubmitter(
	urls storage.URLRepository,
	exhibitions storage.ExhibitionRepository,
	matcher *Matcher,
) *Submitter {
	return &Submitter{
		urls:        urls,
		exhibitions: exhibitions,
		matcher:     matcher,
		log:         slog.Default().With("component", "consistency"),
	}
}

// Submit validates and persists one candidate draft. A validation failure
// returns a Rejected result and performs no writes. A non-nil error means
// the store itself failed; the draft was neither stored nor rejected.
func (s *Submitter) Submit(ctx context.Context, c *domain.Candidate) (StoreResult, error) {
	if err := c.Validate(); err != nil {
		metrics.ValidationRejections.Inc()
		s.log.Debug("Candidate rejected", "url", c.URL, "reason", err)
		return StoreResult{Rejected: true, Reason: err.Error()}, nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	start := time.Now()

	urlID, err := s.urls.Upsert(ctx, &domain.SourceURL{
		URL:            c.URL,
		RawTitle:       c.RawTitle,
		RawDate:        c.RawDate,
		RawLocation:    c.RawLocation,
		RawDescription: c.RawDescription,
	})
	if err != nil {
		return StoreResult{}, &domain.StoreError{Err: err}
	}

	existingSet, err := s.exhibitions.ListByStartDate(ctx, c.DateStart)
	if err != nil {
		return StoreResult{}, &domain.StoreError{Err: err}
	}
	existing := s.matcher.FindDuplicate(c, existingSet)

	write := &storage.CandidateWrite{
		Exhibition: merge(existing, c, urlID),
		Fees:       feesFromDraft(c.Fees),
		Prizes:     prizesFromDraft(c.Prizes),
	}
	if existing != nil {
		write.ExhibitionID = existing.ID
	}

	id, err := s.exhibitions.SaveCandidate(ctx, write)
	if err != nil {
		return StoreResult{}, &domain.StoreError{Err: err}
	}

	metrics.StoreWriteLatency.Observe(time.Since(start).Seconds())
	if existing == nil {
		metrics.ExhibitionsStored.WithLabelValues("new").Inc()
		s.log.Info("Stored new exhibition", "id", id, "title", c.Title)
	} else {
		metrics.ExhibitionsStored.WithLabelValues("merged").Inc()
		s.log.Info("Merged into existing exhibition", "id", id, "title", c.Title)
	}

	return StoreResult{ExhibitionID: id, New: existing == nil}, nil
}

// merge folds the candidate's fields into the existing row. A populated
// field is never overwritten with an empty one; empty fields take the
// first non-empty value seen.
func merge(existing *domain.Exhibition, c *domain.Candidate, urlID int64) *domain.Exhibition {
	if existing == nil {
		return &domain.Exhibition{
			Title:       c.Title,
			Venue:       c.Venue,
			Location:    c.Location,
			County:      c.County,
			DateStart:   c.DateStart,
			DateEnd:     c.DateEnd,
			Description: c.Description,
			URLID:       urlID,
		}
	}

	merged := *existing
	merged.Location = firstNonEmpty(existing.Location, c.Location)
	merged.County = firstNonEmpty(existing.County, c.County)
	merged.Description = firstNonEmpty(existing.Description, c.Description)
	if merged.DateEnd.IsZero() {
		merged.DateEnd = c.DateEnd
	}
	return &merged
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func feesFromDraft(drafts []domain.FeeDraft) []domain.EntryFee {
	if drafts == nil {
		return nil
	}
	fees := make([]domain.EntryFee, 0, len(drafts))
	for _, d := range drafts {
		fees = append(fees, domain.EntryFee{
			Type:              d.Type,
			NumberEntries:     d.NumberEntries,
			FeeAmount:         d.FeeAmount,
			FlatRate:          d.FlatRate,
			CommissionPercent: d.CommissionPercent,
		})
	}
	return fees
}

// prizesFromDraft converts draft prizes to rows, collapsing restated
// ranks last-write-wins so a draft never carries two rows for one rank.
func prizesFromDraft(drafts []domain.PrizeDraft) []domain.Prize {
	if drafts == nil {
		return nil
	}
	byRank := make(map[int]int, len(drafts))
	prizes := make([]domain.Prize, 0, len(drafts))
	for _, d := range drafts {
		p := domain.Prize{
			Rank:        d.Rank,
			Amount:      d.Amount,
			Type:        d.Type,
			Description: d.Description,
		}
		if i, ok := byRank[d.Rank]; ok {
			prizes[i] = p
			continue
		}
		byRank[d.Rank] = len(prizes)
		prizes = append(prizes, p)
	}
	return prizes
}
