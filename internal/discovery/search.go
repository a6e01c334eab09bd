package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/artscout/artscout/internal/core/domain"
)

// SearchProvider turns a query into candidate URLs, best-ranked first.
type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// DuckDuckGoProvider queries the DuckDuckGo HTML endpoint, which serves
// plain markup without requiring a browser or an API key.
type DuckDuckGoProvider struct {
	client  *http.Client
	baseURL string
}

const ddgHTMLEndpoint = "https://html.duckduckgo.com/html/"

func NewDuckDuckGoProvider(timeout time.Duration) *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: ddgHTMLEndpoint,
	}
}

// Result links come back as redirect URLs with the target in the uddg
// query parameter.
var ddgResultRe = regexp.MustCompile(`class="result__a"[^>]*href="([^"]+)"`)

func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, limit int) ([]string, error) {
	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: p.baseURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.FetchError{
			URL: p.baseURL,
			Err: fmt.Errorf("search returned status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &domain.FetchError{URL: p.baseURL, Err: err}
	}

	var out []string
	seen := make(map[string]bool)
	for _, m := range ddgResultRe.FindAllStringSubmatch(string(body), -1) {
		target := resolveResultURL(m[1])
		if target == "" || seen[target] {
			continue
		}
		seen[target] = true
		out = append(out, target)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// resolveResultURL unwraps DuckDuckGo's redirect links and drops anything
// that is not plain http(s).
func resolveResultURL(href string) string {
	href = strings.ReplaceAll(href, "&amp;", "&")
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		href = target
		if u, err = url.Parse(href); err != nil {
			return ""
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
