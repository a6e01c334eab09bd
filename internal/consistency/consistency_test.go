package consistency

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/artscout/artscout/internal/core/domain"
	"github.com/artscout/artscout/internal/infra/storage/memory"
)

func newTestSubmitter() (*Submitter, *memory.MemoryStorage) {
	store := memory.NewMemoryStorage()
	s := NewSubmitter(
		memory.NewURLRepo(store),
		memory.NewExhibitionRepo(store),
		NewMatcher(0.85),
	)
	return s, store
}

func showOneCandidate() *domain.Candidate {
	return &domain.Candidate{
		URL:       "https://example.org/show1",
		Title:     "Open Call A",
		Venue:     "Gallery X",
		Location:  "Bristol",
		DateStart: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DateEnd:   time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC),
		Fees: []domain.FeeDraft{
			{Type: domain.FeeFlat, FlatRate: 12.00},
		},
		Prizes: []domain.PrizeDraft{
			{Rank: 1, Amount: 500},
		},
	}
}

func TestSubmit_EndToEndScenario(t *testing.T) {
	s, store := newTestSubmitter()
	ctx := context.Background()

	res, err := s.Submit(ctx, showOneCandidate())
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if res.Rejected {
		t.Fatalf("first submit rejected: %s", res.Reason)
	}
	if res.ExhibitionID != 1 || !res.New {
		t.Fatalf("expected Stored(id=1, new=true), got %+v", res)
	}

	// Resubmitting the identical draft must hit the same row.
	res, err = s.Submit(ctx, showOneCandidate())
	if err != nil {
		t.Fatalf("second submit failed: %v", err)
	}
	if res.ExhibitionID != 1 || res.New {
		t.Fatalf("expected Stored(id=1, new=false), got %+v", res)
	}

	repo := memory.NewExhibitionRepo(store)
	fees, prizes, err := repo.FeesAndPrizes(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(fees) != 1 || fees[0].FlatRate != 12.00 {
		t.Errorf("expected one flat fee of 12.00, got %+v", fees)
	}
	if len(prizes) != 1 || prizes[0].Rank != 1 || prizes[0].Amount != 500 {
		t.Errorf("expected one rank-1 prize of 500, got %+v", prizes)
	}
}

func TestSubmit_Idempotence(t *testing.T) {
	s, store := newTestSubmitter()
	ctx := context.Background()

	first, err := s.Submit(ctx, showOneCandidate())
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Submit(ctx, showOneCandidate())
	if err != nil {
		t.Fatal(err)
	}
	if first.ExhibitionID != second.ExhibitionID {
		t.Errorf("same draft produced two ids: %d and %d", first.ExhibitionID, second.ExhibitionID)
	}

	stats, err := memory.NewExhibitionRepo(store).Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Exhibitions != 1 {
		t.Errorf("expected 1 exhibition, got %d", stats.Exhibitions)
	}
	if stats.EntryFees != 1 || stats.Prizes != 1 {
		t.Errorf("child sets changed on resubmission: %+v", stats)
	}
}

func TestSubmit_DuplicateMergeKeepsPopulatedFields(t *testing.T) {
	s, store := newTestSubmitter()
	ctx := context.Background()

	first := showOneCandidate()
	first.Description = "Annual open submission show."
	first.County = ""
	if _, err := s.Submit(ctx, first); err != nil {
		t.Fatal(err)
	}

	// Same duplicate key from a different page: empty description must not
	// clobber the stored one, and the new county fills the gap.
	second := showOneCandidate()
	second.URL = "https://example.org/show1-listing"
	second.Description = ""
	second.County = "Somerset"

	res, err := s.Submit(ctx, second)
	if err != nil {
		t.Fatal(err)
	}
	if res.New {
		t.Fatal("expected merge into existing row")
	}

	rows, err := memory.NewExhibitionRepo(store).ListByStartDate(ctx, first.DateStart)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Description != "Annual open submission show." {
		t.Errorf("populated description was overwritten: %q", rows[0].Description)
	}
	if rows[0].County != "Somerset" {
		t.Errorf("empty county was not filled: %q", rows[0].County)
	}
}

func TestSubmit_ConcurrentSameKey(t *testing.T) {
	s, store := newTestSubmitter()
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	ids := make([]int64, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := s.Submit(ctx, showOneCandidate())
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = res.ExhibitionID
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}
	for i := 1; i < n; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("concurrent same-key submits produced ids %d and %d", ids[0], ids[i])
		}
	}

	stats, err := memory.NewExhibitionRepo(store).Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Exhibitions != 1 {
		t.Errorf("expected exactly 1 exhibition row, got %d", stats.Exhibitions)
	}
}

func TestSubmit_ValidationRejectionWritesNothing(t *testing.T) {
	s, store := newTestSubmitter()
	ctx := context.Background()

	missingTitle := showOneCandidate()
	missingTitle.Title = ""
	res, err := s.Submit(ctx, missingTitle)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Rejected {
		t.Fatal("expected rejection for missing title")
	}

	reversed := showOneCandidate()
	reversed.DateStart, reversed.DateEnd = reversed.DateEnd, reversed.DateStart
	res, err = s.Submit(ctx, reversed)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Rejected {
		t.Fatal("expected rejection for date_start > date_end")
	}

	stats, err := memory.NewExhibitionRepo(store).Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.URLs != 0 || stats.Exhibitions != 0 {
		t.Errorf("rejected drafts must not write: %+v", stats)
	}
}

func TestSubmit_PrizeRankLastWriteWins(t *testing.T) {
	s, store := newTestSubmitter()
	ctx := context.Background()

	first := showOneCandidate()
	if _, err := s.Submit(ctx, first); err != nil {
		t.Fatal(err)
	}

	restated := showOneCandidate()
	restated.Prizes = []domain.PrizeDraft{
		{Rank: 1, Amount: 750, Type: "cash"},
		{Rank: 2, Amount: 250, Type: "cash"},
	}
	res, err := s.Submit(ctx, restated)
	if err != nil {
		t.Fatal(err)
	}

	_, prizes, err := memory.NewExhibitionRepo(store).FeesAndPrizes(ctx, res.ExhibitionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(prizes) != 2 {
		t.Fatalf("expected 2 prizes after restatement, got %d", len(prizes))
	}
	for _, p := range prizes {
		if p.Rank == 1 && p.Amount != 750 {
			t.Errorf("rank 1 should reflect the restated amount, got %v", p.Amount)
		}
	}
}

// A single draft restating a rank collapses to one row, keeping the
// later statement, same as a restatement arriving in a later draft.
func TestSubmit_RestatedRankWithinDraftCollapses(t *testing.T) {
	s, store := newTestSubmitter()
	ctx := context.Background()

	c := showOneCandidate()
	c.Prizes = []domain.PrizeDraft{
		{Rank: 1, Amount: 500, Type: "cash"},
		{Rank: 2, Amount: 250, Type: "cash"},
		{Rank: 1, Amount: 750, Type: "cash"},
	}
	res, err := s.Submit(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rejected {
		t.Fatalf("Submit() rejected a restated rank: %s", res.Reason)
	}

	_, prizes, err := memory.NewExhibitionRepo(store).FeesAndPrizes(ctx, res.ExhibitionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(prizes) != 2 {
		t.Fatalf("expected 2 prizes after collapse, got %d: %+v", len(prizes), prizes)
	}
	for _, p := range prizes {
		if p.Rank == 1 && p.Amount != 750 {
			t.Errorf("rank 1 should keep the later amount, got %v", p.Amount)
		}
	}
}
