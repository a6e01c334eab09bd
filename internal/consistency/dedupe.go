package consistency

import (
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/artscout/artscout/internal/core/domain"
)

// Matcher decides whether two exhibition records describe the same event.
// The duplicate key is (title, venue, date_start): the date must match
// exactly, title and venue under a normalized similarity threshold.
type Matcher struct {
	Threshold float64
}

// NewMatcher creates a matcher with the given similarity threshold (0..1].
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.85
	}
	return &Matcher{Threshold: threshold}
}

// Match reports whether the candidate duplicates the existing exhibition.
func (m *Matcher) Match(c *domain.Candidate, e *domain.Exhibition) bool {
	if !sameDay(c.DateStart, e.DateStart) {
		return false
	}
	return m.Similarity(c.Title, e.Title) >= m.Threshold &&
		m.Similarity(c.Venue, e.Venue) >= m.Threshold
}

// FindDuplicate returns the first existing exhibition the candidate
// duplicates, or nil.
func (m *Matcher) FindDuplicate(c *domain.Candidate, existing []*domain.Exhibition) *domain.Exhibition {
	for _, e := range existing {
		if m.Match(c, e) {
			return e
		}
	}
	return nil
}

// Similarity returns a normalized Levenshtein similarity in [0, 1] over
// case-folded, whitespace-collapsed inputs.
func (m *Matcher) Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1
	}
	longest := len([]rune(na))
	if l := len([]rune(nb)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(na, nb)
	return 1 - float64(dist)/float64(longest)
}

// Normalize lowercases and collapses runs of whitespace to single spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
