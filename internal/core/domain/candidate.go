package domain

import (
	"fmt"
	"strings"
	"time"
)

// Candidate is the unvalidated exhibition draft produced by the extraction
// collaborator. Nothing here is trusted until Validate passes; the
// consistency layer is the only gate between a Candidate and the store.
type Candidate struct {
	URL string

	// Raw fields as seen on the page, persisted verbatim on the source URL.
	RawTitle       string
	RawDate        string
	RawLocation    string
	RawDescription string

	Title       string
	Venue       string
	Location    string
	County      string
	Description string
	DateStart   time.Time
	DateEnd     time.Time

	Fees   []FeeDraft
	Prizes []PrizeDraft
}

// FeeDraft is an unvalidated entry fee row.
type FeeDraft struct {
	Type              FeeType
	NumberEntries     int
	FeeAmount         float64
	FlatRate          float64
	CommissionPercent float64
}

// PrizeDraft is an unvalidated prize row.
type PrizeDraft struct {
	Rank        int
	Amount      float64
	Type        string
	Description string
}

// Validate applies the structural invariants. A failure is permanent: the
// draft itself is malformed and re-extracting the same content would fail
// the same way, so callers must not retry.
func (c *Candidate) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return &ValidationError{Reason: "missing url"}
	}
	if strings.TrimSpace(c.Title) == "" {
		return &ValidationError{Reason: "missing title"}
	}
	if strings.TrimSpace(c.Venue) == "" {
		return &ValidationError{Reason: "missing venue"}
	}
	if c.DateStart.IsZero() {
		return &ValidationError{Reason: "missing date_start"}
	}
	if c.DateEnd.IsZero() {
		return &ValidationError{Reason: "missing date_end"}
	}
	if c.DateStart.After(c.DateEnd) {
		return &ValidationError{Reason: fmt.Sprintf(
			"date_start %s after date_end %s",
			c.DateStart.Format("2006-01-02"), c.DateEnd.Format("2006-01-02"))}
	}

	for i, f := range c.Fees {
		if err := f.validate(); err != nil {
			return &ValidationError{Reason: fmt.Sprintf("fee %d: %v", i, err)}
		}
	}

	for i, p := range c.Prizes {
		if p.Rank < 1 {
			return &ValidationError{Reason: fmt.Sprintf("prize %d: rank must be positive", i)}
		}
		if p.Amount < 0 {
			return &ValidationError{Reason: fmt.Sprintf("prize %d: negative amount", i)}
		}
	}
	// Restated ranks are not an error: conflicts resolve last-write-wins
	// when the draft is persisted, within a draft as much as across them.

	return nil
}

func (f FeeDraft) validate() error {
	switch f.Type {
	case FeeTiered:
		if f.NumberEntries < 1 {
			return fmt.Errorf("tiered fee requires number_entries")
		}
		if f.FeeAmount <= 0 {
			return fmt.Errorf("tiered fee requires fee_amount")
		}
	case FeeFlat:
		if f.FlatRate <= 0 {
			return fmt.Errorf("flat fee requires flat_rate")
		}
	default:
		return fmt.Errorf("unknown fee type %q", f.Type)
	}
	if f.FeeAmount < 0 || f.FlatRate < 0 {
		return fmt.Errorf("negative fee amount")
	}
	if f.CommissionPercent < 0 || f.CommissionPercent > 100 {
		return fmt.Errorf("commission percent out of range: %v", f.CommissionPercent)
	}
	return nil
}
