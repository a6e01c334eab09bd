package discovery

import (
	"context"
	"fmt"
	"log/slog"
)

// SeenSet remembers URLs across runs so discovery does not re-enqueue
// sources it has already surfaced. A nil-safe no-op implementation is fine:
// the coordinator dedups by URL anyway, the seen set just avoids the churn.
type SeenSet interface {
	Seen(ctx context.Context, url string) (bool, error)
	MarkSeen(ctx context.Context, url string) error
}

// Enqueuer receives discovered URLs. Satisfied by the coordinator.
type Enqueuer interface {
	Enqueue(ctx context.Context, url string) error
}

// Config bounds a discovery sweep.
type Config struct {
	Terms    []string `yaml:"terms"`
	YearFrom int      `yaml:"year_from"`
	YearTo   int      `yaml:"year_to"`
	PerQuery int      `yaml:"per_query"`
}

// Discoverer runs search sweeps: one query per (term, year) pair, filtered
// through the seen set and handed to the coordinator.
type Discoverer struct {
	provider SearchProvider
	seen     SeenSet
	enqueue  Enqueuer
	cfg      Config
	log      *slog.Logger
}

func NewDiscoverer(provider SearchProvider, seen SeenSet, enqueue Enqueuer, cfg Config) *Discoverer {
	if cfg.PerQuery <= 0 {
		cfg.PerQuery = 20
	}
	return &Discoverer{
		provider: provider,
		seen:     seen,
		enqueue:  enqueue,
		cfg:      cfg,
		log:      slog.Default().With("component", "discovery"),
	}
}

// Queries expands the configured terms across the year range.
func (d *Discoverer) Queries() []string {
	var out []string
	for _, term := range d.cfg.Terms {
		if d.cfg.YearFrom == 0 || d.cfg.YearTo < d.cfg.YearFrom {
			out = append(out, term)
			continue
		}
		for year := d.cfg.YearFrom; year <= d.cfg.YearTo; year++ {
			out = append(out, fmt.Sprintf("%s %d", term, year))
		}
	}
	return out
}

// Run performs one sweep. A failing query is logged and skipped so one bad
// search does not starve the rest; the sweep error count comes back to the
// caller.
func (d *Discoverer) Run(ctx context.Context) (enqueued int, err error) {
	var failed int
	for _, query := range d.Queries() {
		if ctx.Err() != nil {
			return enqueued, ctx.Err()
		}

		urls, serr := d.provider.Search(ctx, query, d.cfg.PerQuery)
		if serr != nil {
			failed++
			d.log.Warn("Search query failed", "query", query, "error", serr)
			continue
		}
		d.log.Debug("Search query done", "query", query, "results", len(urls))

		for _, u := range urls {
			already, serr := d.seen.Seen(ctx, u)
			if serr != nil {
				d.log.Warn("Seen-set lookup failed", "url", u, "error", serr)
			} else if already {
				continue
			}
			if eerr := d.enqueue.Enqueue(ctx, u); eerr != nil {
				return enqueued, eerr
			}
			if serr := d.seen.MarkSeen(ctx, u); serr != nil {
				d.log.Warn("Seen-set mark failed", "url", u, "error", serr)
			}
			enqueued++
		}
	}

	if failed > 0 && enqueued == 0 {
		return 0, fmt.Errorf("discovery sweep failed: %d of %d queries errored", failed, len(d.Queries()))
	}
	d.log.Info("Discovery sweep complete", "enqueued", enqueued, "failed_queries", failed)
	return enqueued, nil
}

// NopSeenSet is used when no redis is configured.
type NopSeenSet struct{}

func (NopSeenSet) Seen(context.Context, string) (bool, error) { return false, nil }
func (NopSeenSet) MarkSeen(context.Context, string) error     { return nil }
