package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artscout/artscout/internal/core/domain"
)

const samplePage = `
Summer Open Exhibition 2025 at Riverside Gallery

Call for entries. The exhibition runs from 2 June 2025 to 30 June 2025.
Submission fee: £10 for 3 entries, or £5 per entry.
25% commission on sales.
First prize £1,000, second prize: £500, third prize £250.
`

func TestHeuristicExtract(t *testing.T) {
	page := &Page{
		URL:   "https://example.org/open-call",
		Title: "Summer Open 2025 | Riverside Gallery",
		Text:  samplePage,
	}

	c, err := NewHeuristicExtractor().Extract(context.Background(), page)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if c.Title != "Summer Open 2025" {
		t.Errorf("Title = %q, want site suffix stripped", c.Title)
	}
	if c.Venue != "Riverside Gallery" {
		t.Errorf("Venue = %q, want %q", c.Venue, "Riverside Gallery")
	}

	wantStart := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)
	if !c.DateStart.Equal(wantStart) || !c.DateEnd.Equal(wantEnd) {
		t.Errorf("dates = %v..%v, want %v..%v", c.DateStart, c.DateEnd, wantStart, wantEnd)
	}

	if len(c.Fees) != 2 {
		t.Fatalf("len(Fees) = %d, want 2", len(c.Fees))
	}
	if c.Fees[0].Type != domain.FeeTiered || c.Fees[0].NumberEntries != 3 || c.Fees[0].FeeAmount != 10 {
		t.Errorf("Fees[0] = %+v, want tiered 3 entries at 10", c.Fees[0])
	}
	if c.Fees[1].NumberEntries != 1 || c.Fees[1].FeeAmount != 5 {
		t.Errorf("Fees[1] = %+v, want per-entry tier at 5", c.Fees[1])
	}
	for _, f := range c.Fees {
		if f.CommissionPercent != 25 {
			t.Errorf("CommissionPercent = %v, want 25", f.CommissionPercent)
		}
	}

	if len(c.Prizes) != 3 {
		t.Fatalf("len(Prizes) = %d, want 3", len(c.Prizes))
	}
	wantPrizes := map[int]float64{1: 1000, 2: 500, 3: 250}
	for _, p := range c.Prizes {
		if wantPrizes[p.Rank] != p.Amount {
			t.Errorf("prize rank %d amount = %v, want %v", p.Rank, p.Amount, wantPrizes[p.Rank])
		}
	}
}

func TestHeuristicExtractFlatFee(t *testing.T) {
	page := &Page{
		URL:   "https://example.org/flat",
		Title: "Winter Show",
		Text:  "Winter Show, 2025-01-10 to 2025-02-01 at Mill House. Entry fee of £12.50.",
	}

	c, err := NewHeuristicExtractor().Extract(context.Background(), page)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(c.Fees) != 1 {
		t.Fatalf("len(Fees) = %d, want 1", len(c.Fees))
	}
	if c.Fees[0].Type != domain.FeeFlat || c.Fees[0].FlatRate != 12.5 {
		t.Errorf("Fees[0] = %+v, want flat 12.50", c.Fees[0])
	}
	if c.DateStart.IsZero() || c.DateEnd.IsZero() {
		t.Errorf("ISO dates not picked up: %v..%v", c.DateStart, c.DateEnd)
	}
}

func TestHeuristicExtractEmptyPage(t *testing.T) {
	page := &Page{URL: "https://example.org/blank", Text: "   "}

	_, err := NewHeuristicExtractor().Extract(context.Background(), page)
	var ee *domain.ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("Extract() error = %v, want ExtractionError", err)
	}
}

func TestHeuristicExtractBareText(t *testing.T) {
	page := &Page{
		URL:   "https://example.org/sparse",
		Title: "About us",
		Text:  "We are a collective of artists working across the north west.",
	}

	c, err := NewHeuristicExtractor().Extract(context.Background(), page)
	if err != nil {
		t.Fatalf("Extract() error = %v, want draft for validation to reject", err)
	}
	if err := c.Validate(); err == nil {
		t.Error("Validate() = nil, want rejection for missing fields")
	}
}
