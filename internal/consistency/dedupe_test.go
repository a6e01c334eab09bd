package consistency

import (
	"testing"
	"time"

	"github.com/artscout/artscout/internal/core/domain"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Open   Call\tA ":     "open call a",
		"GALLERY X":             "gallery x",
		"already normal":        "already normal",
		"":                      "",
		"\n\nRoyal  Academy\n":  "royal academy",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	m := NewMatcher(0.85)

	if s := m.Similarity("Open Call A", "open   call a"); s != 1 {
		t.Errorf("case/whitespace variants should score 1, got %v", s)
	}
	if s := m.Similarity("Summer Exhibition", "Summer Exhibitoin"); s < 0.85 {
		t.Errorf("transposed typo should stay above threshold, got %v", s)
	}
	if s := m.Similarity("Summer Exhibition", "Winter Sculpture Fair"); s >= 0.85 {
		t.Errorf("unrelated titles should stay below threshold, got %v", s)
	}
	if s := m.Similarity("", ""); s != 1 {
		t.Errorf("two empty strings should score 1, got %v", s)
	}
}

func TestMatcher_Match(t *testing.T) {
	m := NewMatcher(0.85)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	existing := &domain.Exhibition{
		Title:     "Open Call A",
		Venue:     "Gallery X",
		DateStart: start,
	}

	c := &domain.Candidate{Title: "OPEN CALL A", Venue: "gallery  x", DateStart: start}
	if !m.Match(c, existing) {
		t.Error("normalized identical key should match")
	}

	// Exact date match is required: one day off is a different exhibition.
	c = &domain.Candidate{Title: "Open Call A", Venue: "Gallery X", DateStart: start.AddDate(0, 0, 1)}
	if m.Match(c, existing) {
		t.Error("different start date must not match")
	}

	c = &domain.Candidate{Title: "Completely Different Show", Venue: "Gallery X", DateStart: start}
	if m.Match(c, existing) {
		t.Error("dissimilar title must not match")
	}
}

func TestMatcher_FindDuplicate(t *testing.T) {
	m := NewMatcher(0.85)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	set := []*domain.Exhibition{
		{ID: 1, Title: "Spring Open", Venue: "The Old Mill", DateStart: start},
		{ID: 2, Title: "Open Call A", Venue: "Gallery X", DateStart: start},
	}

	c := &domain.Candidate{Title: "Open Call A", Venue: "Gallery X", DateStart: start}
	found := m.FindDuplicate(c, set)
	if found == nil || found.ID != 2 {
		t.Fatalf("expected duplicate id 2, got %+v", found)
	}

	c = &domain.Candidate{Title: "Autumn Salon", Venue: "Gallery X", DateStart: start}
	if found := m.FindDuplicate(c, set); found != nil {
		t.Errorf("expected no duplicate, got id %d", found.ID)
	}
}

func TestNewMatcher_ThresholdBounds(t *testing.T) {
	if m := NewMatcher(0); m.Threshold != 0.85 {
		t.Errorf("zero threshold should fall back to default, got %v", m.Threshold)
	}
	if m := NewMatcher(1.5); m.Threshold != 0.85 {
		t.Errorf("out-of-range threshold should fall back to default, got %v", m.Threshold)
	}
	if m := NewMatcher(0.7); m.Threshold != 0.7 {
		t.Errorf("valid threshold should be kept, got %v", m.Threshold)
	}
}
