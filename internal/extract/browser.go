package extract

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/artscout/artscout/internal/core/domain"
)

const defaultUserAgent = `Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36`

// ChromeDriver renders pages in headless Chrome. Exhibition pages are
// frequently script-rendered, so a plain HTTP GET misses the content.
type ChromeDriver struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration

	mu     sync.Mutex
	closed bool
}

// NewChromeDriver starts a shared browser allocator. Each Fetch opens a
// fresh tab context so fetches are isolated from one another.
func NewChromeDriver(pageTimeout time.Duration) *ChromeDriver {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(defaultUserAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromeDriver{
		allocCtx:    allocCtx,
		allocCancel: cancel,
		timeout:     pageTimeout,
	}
}

// Fetch navigates to the URL and returns the page title and visible body
// text. Navigation errors and timeouts come back as transient fetch errors.
func (d *ChromeDriver) Fetch(ctx context.Context, url string) (*Page, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, &domain.FetchError{URL: url, Err: context.Canceled}
	}
	d.mu.Unlock()

	tabCtx, cancel := chromedp.NewContext(d.allocCtx)
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, d.timeout)
	defer cancelTimeout()

	// Honor the caller's deadline as well as the page timeout.
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-tabCtx.Done():
		}
	}()

	var title, text string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Title(&title),
		chromedp.Text("body", &text, chromedp.ByQuery),
	)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}

	return &Page{
		URL:       url,
		Title:     strings.TrimSpace(title),
		Text:      text,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// Close shuts the browser allocator down. Subsequent fetches fail fast.
func (d *ChromeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		d.allocCancel()
	}
	return nil
}
