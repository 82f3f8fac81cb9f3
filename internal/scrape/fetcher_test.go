package scrape

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestFetcher(attempts int, rt roundTripFunc) *Fetcher {
	f := NewFetcher(5*time.Second, 0, attempts, zerolog.Nop())
	f.httpClient.Transport = rt
	return f
}

func htmlResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     http.Header{},
	}
}

func TestGetSetsUserAgent(t *testing.T) {
	var gotUA string
	f := newTestFetcher(1, func(r *http.Request) (*http.Response, error) {
		gotUA = r.Header.Get("User-Agent")
		return htmlResponse(200, "ok"), nil
	})

	body, err := f.Get(context.Background(), "http://example.test/")
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "ok" {
		t.Fatalf("body=%q", body)
	}
	if gotUA == "" || !strings.Contains(gotUA, "Mozilla") {
		t.Fatalf("user-agent=%q", gotUA)
	}
}

func TestGetRetriesTransientStatus(t *testing.T) {
	calls := 0
	f := newTestFetcher(3, func(r *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return htmlResponse(503, "busy"), nil
		}
		return htmlResponse(200, "recovered"), nil
	})

	body, err := f.Get(context.Background(), "http://example.test/")
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "recovered" {
		t.Fatalf("body=%q", body)
	}
	if calls != 3 {
		t.Fatalf("calls=%d", calls)
	}
}

func TestGetDoesNotRetryClientError(t *testing.T) {
	calls := 0
	f := newTestFetcher(3, func(r *http.Request) (*http.Response, error) {
		calls++
		return htmlResponse(404, "not found"), nil
	})

	if _, err := f.Get(context.Background(), "http://example.test/"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls=%d, 4xx must not be retried", calls)
	}
}

func TestGetExhaustsAttempts(t *testing.T) {
	calls := 0
	f := newTestFetcher(2, func(r *http.Request) (*http.Response, error) {
		calls++
		return nil, errors.New("connection refused")
	})

	_, err := f.Get(context.Background(), "http://example.test/")
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 2 {
		t.Fatalf("calls=%d", calls)
	}
}

func TestGetDocumentParsesHTML(t *testing.T) {
	f := newTestFetcher(1, func(r *http.Request) (*http.Response, error) {
		return htmlResponse(200, `<html><body><h1 class="t">Hello</h1></body></html>`), nil
	})

	doc, err := f.GetDocument(context.Background(), "http://example.test/")
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Find("h1.t").Text(); got != "Hello" {
		t.Fatalf("h1=%q", got)
	}
}

func TestRateLimiterSpacesCalls(t *testing.T) {
	rl := NewRateLimiter(30 * time.Millisecond)
	start := time.Now()
	rl.WaitTurn()
	rl.WaitTurn()
	rl.WaitTurn()
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Fatalf("elapsed=%v, calls not spaced", elapsed)
	}
}
