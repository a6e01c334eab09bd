package control

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artscout/artscout/internal/core/config"
	"github.com/artscout/artscout/internal/core/domain"
	"github.com/artscout/artscout/internal/discovery"
	"github.com/artscout/artscout/internal/extract"
)

// slowProvider returns its canned URLs only after a delay, standing in
// for a search engine whose first response arrives well after the
// workers have started asking for work.
type slowProvider struct {
	delay time.Duration
	urls  []string
}

func (p *slowProvider) Search(ctx context.Context, _ string, _ int) ([]string, error) {
	select {
	case <-time.After(p.delay):
		return p.urls, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type cannedBrowser struct {
	pages map[string]*extract.Page
}

func (b *cannedBrowser) Fetch(_ context.Context, url string) (*extract.Page, error) {
	page, ok := b.pages[url]
	if !ok {
		return nil, &domain.FetchError{URL: url, Err: errors.New("not found")}
	}
	return page, nil
}

func (b *cannedBrowser) Close() error { return nil }

func testConfig() config.AppConfig {
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Workers.Count = 2
	cfg.Workers.MinDelay = time.Millisecond
	cfg.Workers.MaxDelay = 2 * time.Millisecond
	cfg.Discovery = discovery.Config{Terms: []string{"open call"}}
	return *cfg
}

// A once run over an empty task table must wait for the discovery sweep
// to enqueue its URLs before the pool may conclude the queue is drained.
func TestStartOnceProcessesLateDiscoveryResults(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const url = "https://a.example/call"
	provider := &slowProvider{delay: 200 * time.Millisecond, urls: []string{url}}
	browser := &cannedBrowser{pages: map[string]*extract.Page{
		url: {
			URL:   url,
			Title: "Spring Open 2025",
			Text: "Spring Open 2025 at Riverside Gallery. Open call runs from " +
				"1 March 2025 to 30 March 2025. Entry fee: £10. First prize £500.",
		},
	}}

	app, err := NewApp(ctx, testConfig(), WithOnce(),
		WithCollaborators(provider, browser, extract.NewHeuristicExtractor()))
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	defer app.Stop(context.Background())

	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	counts, err := app.Coordinator().Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts[domain.TaskStored] != 1 {
		t.Errorf("stored tasks = %d, want 1: the run drained before the sweep finished (counts: %v)",
			counts[domain.TaskStored], counts)
	}
}
