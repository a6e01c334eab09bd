package domain

import (
	"testing"
	"time"
)

func baseCandidate() *Candidate {
	return &Candidate{
		URL:       "https://example.org/call",
		Title:     "Summer Open",
		Venue:     "Riverside Gallery",
		DateStart: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		DateEnd:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	}
}

func TestCandidateValidateOK(t *testing.T) {
	c := baseCandidate()
	c.Fees = []FeeDraft{
		{Type: FeeTiered, NumberEntries: 3, FeeAmount: 15, CommissionPercent: 30},
		{Type: FeeFlat, FlatRate: 10},
	}
	c.Prizes = []PrizeDraft{{Rank: 1, Amount: 500}, {Rank: 2, Amount: 250}}

	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

// A page that states a rank twice is not malformed. The later statement
// wins when the draft is persisted, so validation lets it through.
func TestCandidateValidateAllowsRestatedRank(t *testing.T) {
	c := baseCandidate()
	c.Prizes = []PrizeDraft{{Rank: 1, Amount: 100}, {Rank: 1, Amount: 200}}

	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestCandidateValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Candidate)
	}{
		{"missing url", func(c *Candidate) { c.URL = " " }},
		{"missing title", func(c *Candidate) { c.Title = "" }},
		{"missing venue", func(c *Candidate) { c.Venue = "" }},
		{"missing start date", func(c *Candidate) { c.DateStart = time.Time{} }},
		{"missing end date", func(c *Candidate) { c.DateEnd = time.Time{} }},
		{"reversed dates", func(c *Candidate) {
			c.DateStart, c.DateEnd = c.DateEnd, c.DateStart
		}},
		{"tiered fee without entries", func(c *Candidate) {
			c.Fees = []FeeDraft{{Type: FeeTiered, FeeAmount: 10}}
		}},
		{"tiered fee without amount", func(c *Candidate) {
			c.Fees = []FeeDraft{{Type: FeeTiered, NumberEntries: 2}}
		}},
		{"flat fee without rate", func(c *Candidate) {
			c.Fees = []FeeDraft{{Type: FeeFlat}}
		}},
		{"unknown fee type", func(c *Candidate) {
			c.Fees = []FeeDraft{{Type: "subscription", FlatRate: 5}}
		}},
		{"commission over 100", func(c *Candidate) {
			c.Fees = []FeeDraft{{Type: FeeFlat, FlatRate: 5, CommissionPercent: 120}}
		}},
		{"prize rank zero", func(c *Candidate) {
			c.Prizes = []PrizeDraft{{Rank: 0, Amount: 100}}
		}},
		{"negative prize amount", func(c *Candidate) {
			c.Prizes = []PrizeDraft{{Rank: 1, Amount: -1}}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := baseCandidate()
			tc.mutate(c)
			err := c.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want rejection")
			}
			if _, ok := err.(*ValidationError); !ok {
				t.Errorf("Validate() error type = %T, want *ValidationError", err)
			}
			if Classify(err) != ClassPermanent {
				t.Errorf("Classify() = %v, want permanent", Classify(err))
			}
		})
	}
}
