package scrape

import (
	"context"
	"net/http"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"bookpipe/internal"
)

const quotesPage1 = `<html><body>
<div class="quote">
  <span class="text">“The world as we have created it is a process of our thinking.”</span>
  <small class="author">Albert Einstein</small>
  <div class="tags">
    <a class="tag" href="/tag/change/">change</a>
    <a class="tag" href="/tag/world/">world</a>
  </div>
</div>
<div class="quote">
  <span class="text">“Simplicity is the ultimate sophistication.”</span>
  <small class="author">Leonardo da Vinci</small>
  <div class="tags"></div>
</div>
<li class="next"><a href="/page/2/">Next</a></li>
</body></html>`

const quotesPage2 = `<html><body>
<div class="quote">
  <span class="text">“To be or not to be.”</span>
  <small class="author">William Shakespeare</small>
  <div class="tags"><a class="tag" href="/tag/life/">life</a></div>
</div>
</body></html>`

func collectQuotes(t *testing.T, s *QuotesScraper, maxPages int) []internal.Quote {
	t.Helper()
	out := []internal.Quote{}
	for quote, err := range s.Quotes(context.Background(), maxPages) {
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, quote)
	}
	return out
}

func quotesServer(pages map[string]string) roundTripFunc {
	return func(r *http.Request) (*http.Response, error) {
		if body, ok := pages[r.URL.Path]; ok {
			return htmlResponse(200, body), nil
		}
		return htmlResponse(404, "not found"), nil
	}
}

func TestQuotesParsesPage(t *testing.T) {
	f := newTestFetcher(1, quotesServer(map[string]string{"/": quotesPage1}))
	s := NewQuotesScraper(f, "http://quotes.test", zerolog.Nop())

	quotes := collectQuotes(t, s, 1)
	if len(quotes) != 2 {
		t.Fatalf("quotes=%d", len(quotes))
	}
	if quotes[0].Author != "Albert Einstein" {
		t.Fatalf("author=%q", quotes[0].Author)
	}
	if !reflect.DeepEqual(quotes[0].Tags, []string{"change", "world"}) {
		t.Fatalf("tags=%v", quotes[0].Tags)
	}
	if len(quotes[1].Tags) != 0 {
		t.Fatalf("tags=%v", quotes[1].Tags)
	}
}

func TestQuotesFollowsNextLink(t *testing.T) {
	f := newTestFetcher(1, quotesServer(map[string]string{
		"/":        quotesPage1,
		"/page/2/": quotesPage2,
	}))
	s := NewQuotesScraper(f, "http://quotes.test", zerolog.Nop())

	quotes := collectQuotes(t, s, 5)
	if len(quotes) != 3 {
		t.Fatalf("quotes=%d", len(quotes))
	}
	if quotes[2].Author != "William Shakespeare" {
		t.Fatalf("author=%q", quotes[2].Author)
	}
}

func TestQuotesHonorsPageCeiling(t *testing.T) {
	f := newTestFetcher(1, quotesServer(map[string]string{
		"/":        quotesPage1,
		"/page/2/": quotesPage2,
	}))
	s := NewQuotesScraper(f, "http://quotes.test", zerolog.Nop())

	quotes := collectQuotes(t, s, 1)
	if len(quotes) != 2 {
		t.Fatalf("quotes=%d", len(quotes))
	}
}

func TestQuotesStopsEarlyWhenConsumerBreaks(t *testing.T) {
	requests := 0
	f := newTestFetcher(1, func(r *http.Request) (*http.Response, error) {
		requests++
		return htmlResponse(200, quotesPage1), nil
	})
	s := NewQuotesScraper(f, "http://quotes.test", zerolog.Nop())

	for range s.Quotes(context.Background(), 10) {
		break
	}
	if requests != 1 {
		t.Fatalf("requests=%d, laziness broken", requests)
	}
}
