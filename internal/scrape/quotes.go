package scrape

import (
	"context"
	"iter"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"bookpipe/internal"
)

type QuotesScraper struct {
	fetcher *Fetcher
	baseURL string
	log     zerolog.Logger
}

func NewQuotesScraper(fetcher *Fetcher, baseURL string, log zerolog.Logger) *QuotesScraper {
	return &QuotesScraper{fetcher: fetcher, baseURL: strings.TrimRight(baseURL, "/") + "/", log: log}
}

// Quotes yields raw quotes lazily in page order, honoring the same page
// ceiling and termination rules as the books scraper.
func (s *QuotesScraper) Quotes(ctx context.Context, maxPages int) iter.Seq2[internal.Quote, error] {
	return func(yield func(internal.Quote, error) bool) {
		pageURL := s.baseURL
		page := 1
		for pageURL != "" && (maxPages <= 0 || page <= maxPages) {
			doc, err := s.fetcher.GetDocument(ctx, pageURL)
			if err != nil {
				yield(internal.Quote{}, err)
				return
			}

			for _, quote := range parseQuotes(doc) {
				if !yield(quote, nil) {
					return
				}
			}

			next := doc.Find("li.next > a").AttrOr("href", "")
			if next == "" {
				break
			}
			pageURL = resolveURL(pageURL, next)
			page++
		}
	}
}

func parseQuotes(doc *goquery.Document) []internal.Quote {
	out := []internal.Quote{}
	doc.Find("div.quote").Each(func(_ int, div *goquery.Selection) {
		tags := []string{}
		div.Find(".tags .tag").Each(func(_ int, tag *goquery.Selection) {
			tags = append(tags, tag.Text())
		})
		out = append(out, internal.Quote{
			Text:   div.Find("span.text").Text(),
			Author: div.Find("small.author").Text(),
			Tags:   tags,
		})
	})
	return out
}
