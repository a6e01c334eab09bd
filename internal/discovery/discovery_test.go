package discovery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeProvider struct {
	results map[string][]string
	err     error
}

func (f *fakeProvider) Search(_ context.Context, query string, _ int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

type memorySeen struct {
	mu   sync.Mutex
	urls map[string]bool
}

func newMemorySeen() *memorySeen { return &memorySeen{urls: make(map[string]bool)} }

func (m *memorySeen) Seen(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.urls[url], nil
}

func (m *memorySeen) MarkSeen(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls[url] = true
	return nil
}

type recordingEnqueuer struct {
	mu   sync.Mutex
	urls []string
}

func (r *recordingEnqueuer) Enqueue(_ context.Context, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
	return nil
}

func TestDiscovererQueries(t *testing.T) {
	d := NewDiscoverer(&fakeProvider{}, NopSeenSet{}, &recordingEnqueuer{}, Config{
		Terms:    []string{"UK art open call", "art exhibition submission UK"},
		YearFrom: 2024,
		YearTo:   2025,
	})

	queries := d.Queries()
	if len(queries) != 4 {
		t.Fatalf("len(Queries()) = %d, want 4", len(queries))
	}
	if queries[0] != "UK art open call 2024" || queries[3] != "art exhibition submission UK 2025" {
		t.Errorf("unexpected query expansion: %v", queries)
	}
}

func TestDiscovererRunFiltersSeen(t *testing.T) {
	provider := &fakeProvider{results: map[string][]string{
		"open call": {"https://a.example/1", "https://b.example/2"},
	}}
	seen := newMemorySeen()
	if err := seen.MarkSeen(context.Background(), "https://a.example/1"); err != nil {
		t.Fatal(err)
	}
	enq := &recordingEnqueuer{}

	d := NewDiscoverer(provider, seen, enq, Config{Terms: []string{"open call"}})
	n, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Run() enqueued = %d, want 1", n)
	}
	if len(enq.urls) != 1 || enq.urls[0] != "https://b.example/2" {
		t.Errorf("enqueued urls = %v, want only the unseen one", enq.urls)
	}
	if ok, _ := seen.Seen(context.Background(), "https://b.example/2"); !ok {
		t.Error("enqueued url was not marked seen")
	}
}

func TestDiscovererRunAllQueriesFail(t *testing.T) {
	provider := &fakeProvider{err: errors.New("search down")}
	d := NewDiscoverer(provider, NopSeenSet{}, &recordingEnqueuer{}, Config{Terms: []string{"open call"}})

	if _, err := d.Run(context.Background()); err == nil {
		t.Error("Run() = nil error, want failure when every query errors")
	}
}

const ddgSample = `<html><body>
<a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgallery.example%2Fopen-call&amp;rut=abc">Open Call</a>
<a rel="nofollow" class="result__a" href="https://direct.example/show">Direct</a>
<a rel="nofollow" class="result__a" href="https://direct.example/show">Duplicate</a>
</body></html>`

func TestDuckDuckGoSearchParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.FormValue("q"); got != "uk open call 2025" {
			t.Errorf("query = %q", got)
		}
		_, _ = w.Write([]byte(ddgSample))
	}))
	defer srv.Close()

	p := NewDuckDuckGoProvider(5 * time.Second)
	p.baseURL = srv.URL

	urls, err := p.Search(context.Background(), "uk open call 2025", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	want := []string{"https://gallery.example/open-call", "https://direct.example/show"}
	if len(urls) != len(want) {
		t.Fatalf("Search() = %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestDuckDuckGoSearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewDuckDuckGoProvider(5 * time.Second)
	p.baseURL = srv.URL

	if _, err := p.Search(context.Background(), "anything", 10); err == nil {
		t.Error("Search() = nil error, want transient failure on 429")
	}
}
