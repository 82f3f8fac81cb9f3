package scrape

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

// Fetcher is a blocking HTTP getter shared by the scrapers: one rate limiter
// per source, bounded retries with exponential backoff on transient failures.
type Fetcher struct {
	httpClient *http.Client
	limiter    *RateLimiter
	attempts   int
	log        zerolog.Logger
}

func NewFetcher(timeout time.Duration, delay time.Duration, attempts int, log zerolog.Logger) *Fetcher {
	if attempts <= 0 {
		attempts = 3
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    NewRateLimiter(delay),
		attempts:   attempts,
		log:        log,
	}
}

func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		f.limiter.WaitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := f.httpClient.Do(req)
		if err != nil {
			lastErr = err
			f.backoff(attempt)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			f.backoff(attempt)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < f.attempts {
				lastErr = fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
				f.backoff(attempt)
				continue
			}
			return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
		}

		return body, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("fetch %s: all attempts failed", rawURL)
	}
	return nil, lastErr
}

func (f *Fetcher) GetDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := f.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(string(body)))
}

func (f *Fetcher) backoff(attempt int) {
	sleep := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
	f.log.Debug().Int("attempt", attempt).Dur("backoff", sleep).Msg("fetch retry")
	time.Sleep(sleep)
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
