package extract

import (
	"context"
	"time"

	"github.com/artscout/artscout/internal/core/domain"
)

// Page is the fetched content of one source URL.
type Page struct {
	URL       string
	Title     string
	Text      string
	FetchedAt time.Time
}

// BrowserDriver fetches a URL and returns its rendered content. A fetch
// failure is transient: the page may load on a later attempt.
type BrowserDriver interface {
	Fetch(ctx context.Context, url string) (*Page, error)
	Close() error
}

// Extractor turns a fetched page into an exhibition draft. Implementations
// only parse; the consistency layer decides whether the draft is acceptable.
type Extractor interface {
	Extract(ctx context.Context, page *Page) (*domain.Candidate, error)
}
