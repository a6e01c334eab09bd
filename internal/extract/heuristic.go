package extract

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/artscout/artscout/internal/core/domain"
)

// HeuristicExtractor parses exhibition drafts out of page text with
// keyword and pattern matching. It is deliberately conservative: fields it
// cannot find are left empty and the validation gate decides whether the
// draft is usable. Any smarter Extractor can replace it behind the same
// interface.
type HeuristicExtractor struct{}

func NewHeuristicExtractor() *HeuristicExtractor { return &HeuristicExtractor{} }

var (
	// "2 January 2025", "14 Mar 2024"
	longDateRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\s+(\d{4})\b`)
	isoDateRe  = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)

	// "£15 for 3 entries", "£7.50 per entry"
	tieredFeeRe = regexp.MustCompile(`(?i)£\s*(\d+(?:\.\d{1,2})?)\s+for\s+(?:up\s+to\s+)?(\d+)\s+(?:entries|works|pieces|submissions)`)
	perEntryRe  = regexp.MustCompile(`(?i)£\s*(\d+(?:\.\d{1,2})?)\s+per\s+(?:entry|work|piece|submission)`)
	// "entry fee: £12", "submission fee of £20"
	flatFeeRe = regexp.MustCompile(`(?i)(?:entry|submission)\s+fee(?:\s+of|\s*[:\-])?\s*£\s*(\d+(?:\.\d{1,2})?)`)

	// "first prize £500", "2nd prize: £250"
	rankedPrizeRe = regexp.MustCompile(`(?i)\b(first|second|third|1st|2nd|3rd)\s+prize(?:\s+of|\s*[:\-])?\s*£\s*(\d+(?:,\d{3})*(?:\.\d{1,2})?)`)

	commissionRe = regexp.MustCompile(`(?i)(\d{1,2}(?:\.\d)?)\s*%\s+commission`)

	venueRe = regexp.MustCompile(`(?i)\b(?:at|venue[:\-]?)\s+((?:[A-Z][\w'&-]*\s+){0,4}(?:Gallery|Galleries|Museum|Centre|Center|Hall|Studios?|Arts?|Pavilion|House))\b`)

	prizeRanks = map[string]int{
		"first": 1, "1st": 1,
		"second": 2, "2nd": 2,
		"third": 3, "3rd": 3,
	}

	monthNums = map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March,
		"apr": time.April, "may": time.May, "jun": time.June,
		"jul": time.July, "aug": time.August, "sep": time.September,
		"oct": time.October, "nov": time.November, "dec": time.December,
	}
)

// Extract scans the page for dates, venue, fees and prizes. An empty page
// is an extraction failure (the fetch likely returned a shell); a page with
// content that simply lacks the fields yields a draft that validation will
// reject, which is a permanent outcome rather than a retryable one.
func (x *HeuristicExtractor) Extract(_ context.Context, page *Page) (*domain.Candidate, error) {
	if strings.TrimSpace(page.Text) == "" {
		return nil, &domain.ExtractionError{URL: page.URL, Err: errEmptyPage}
	}

	c := &domain.Candidate{
		URL:            page.URL,
		RawTitle:       page.Title,
		RawDescription: snippet(page.Text, 500),
		Title:          cleanTitle(page.Title),
		Description:    snippet(page.Text, 500),
	}

	dates := findDates(page.Text)
	if len(dates) > 0 {
		c.DateStart = dates[0]
		c.RawDate = dates[0].Format("2006-01-02")
	}
	if len(dates) > 1 {
		c.DateEnd = dates[1]
		c.RawDate += " - " + dates[1].Format("2006-01-02")
	} else if len(dates) == 1 {
		// Single-day events list one date.
		c.DateEnd = dates[0]
	}

	if m := venueRe.FindStringSubmatch(page.Text); m != nil {
		c.Venue = strings.TrimSpace(m[1])
		c.RawLocation = c.Venue
	}

	c.Fees = findFees(page.Text)
	c.Prizes = findPrizes(page.Text)

	return c, nil
}

var errEmptyPage = errors.New("page has no text content")

func findDates(text string) []time.Time {
	var out []time.Time
	for _, m := range longDateRe.FindAllStringSubmatch(text, 2) {
		day, _ := strconv.Atoi(m[1])
		month, ok := monthNums[strings.ToLower(m[2][:3])]
		if !ok {
			continue
		}
		year, _ := strconv.Atoi(m[3])
		out = append(out, time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
	}
	if len(out) >= 2 {
		return out
	}
	for _, m := range isoDateRe.FindAllStringSubmatch(text, 2) {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			continue
		}
		out = append(out, time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
		if len(out) == 2 {
			break
		}
	}
	return out
}

func findFees(text string) []domain.FeeDraft {
	var commission float64
	if m := commissionRe.FindStringSubmatch(text); m != nil {
		commission, _ = strconv.ParseFloat(m[1], 64)
	}

	var fees []domain.FeeDraft
	seen := make(map[int]bool)
	for _, m := range tieredFeeRe.FindAllStringSubmatch(text, -1) {
		amount, _ := strconv.ParseFloat(m[1], 64)
		entries, _ := strconv.Atoi(m[2])
		if entries < 1 || amount <= 0 || seen[entries] {
			continue
		}
		seen[entries] = true
		fees = append(fees, domain.FeeDraft{
			Type:              domain.FeeTiered,
			NumberEntries:     entries,
			FeeAmount:         amount,
			CommissionPercent: commission,
		})
	}
	for _, m := range perEntryRe.FindAllStringSubmatch(text, 1) {
		amount, _ := strconv.ParseFloat(m[1], 64)
		if amount <= 0 || seen[1] {
			continue
		}
		seen[1] = true
		fees = append(fees, domain.FeeDraft{
			Type:              domain.FeeTiered,
			NumberEntries:     1,
			FeeAmount:         amount,
			CommissionPercent: commission,
		})
	}
	if len(fees) == 0 {
		if m := flatFeeRe.FindStringSubmatch(text); m != nil {
			amount, _ := strconv.ParseFloat(m[1], 64)
			if amount > 0 {
				fees = append(fees, domain.FeeDraft{
					Type:              domain.FeeFlat,
					FlatRate:          amount,
					CommissionPercent: commission,
				})
			}
		}
	}
	return fees
}

func findPrizes(text string) []domain.PrizeDraft {
	var prizes []domain.PrizeDraft
	seen := make(map[int]bool)
	for _, m := range rankedPrizeRe.FindAllStringSubmatch(text, -1) {
		rank := prizeRanks[strings.ToLower(m[1])]
		if rank == 0 || seen[rank] {
			continue
		}
		amount, _ := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
		seen[rank] = true
		prizes = append(prizes, domain.PrizeDraft{
			Rank:   rank,
			Amount: amount,
			Type:   "cash",
		})
	}
	return prizes
}

// cleanTitle strips the trailing "| Site Name" segment sites append.
func cleanTitle(title string) string {
	for _, sep := range []string{" | ", " – ", " - "} {
		if i := strings.Index(title, sep); i > 0 {
			title = title[:i]
			break
		}
	}
	return strings.TrimSpace(title)
}

func snippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut
}
