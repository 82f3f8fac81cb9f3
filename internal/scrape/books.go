package scrape

import (
	"context"
	"iter"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"bookpipe/internal"
)

var ratingWords = map[string]int{"One": 1, "Two": 2, "Three": 3, "Four": 4, "Five": 5}

// BooksScraper walks the catalog site page by page and yields one raw Book
// per listing. The category lives on the product page, so each listing costs
// one extra fetch.
type BooksScraper struct {
	fetcher *Fetcher
	baseURL string
	log     zerolog.Logger
}

func NewBooksScraper(fetcher *Fetcher, baseURL string, log zerolog.Logger) *BooksScraper {
	return &BooksScraper{fetcher: fetcher, baseURL: strings.TrimRight(baseURL, "/") + "/", log: log}
}

// Books is a lazy, finite, non-restartable sequence. It stops after maxPages
// pages (<=0 means no ceiling) or when the site has no next link. A fetch
// failure after retries is yielded as the final element.
func (s *BooksScraper) Books(ctx context.Context, maxPages int) iter.Seq2[internal.Book, error] {
	return func(yield func(internal.Book, error) bool) {
		pageURL := s.baseURL + "catalogue/page-1.html"
		page := 1
		for pageURL != "" && (maxPages <= 0 || page <= maxPages) {
			doc, err := s.fetcher.GetDocument(ctx, pageURL)
			if err != nil {
				yield(internal.Book{}, err)
				return
			}

			for _, book := range s.parseListing(ctx, doc, pageURL) {
				if !yield(book, nil) {
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

func (s *BooksScraper) parseListing(ctx context.Context, doc *goquery.Document, pageURL string) []internal.Book {
	out := []internal.Book{}
	doc.Find("article.product_pod").Each(func(_ int, pod *goquery.Selection) {
		title := pod.Find("h3 a").AttrOr("title", "")
		productURL := resolveURL(pageURL, pod.Find("h3 a").AttrOr("href", ""))
		imageURL := resolveURL(pageURL, pod.Find("img").AttrOr("src", ""))
		price := parsePrice(pod.Find(".price_color").Text())
		rating := parseRating(pod.Find("p.star-rating"))

		out = append(out, internal.Book{
			Title:      title,
			PriceGBP:   price,
			Rating:     rating,
			Category:   s.fetchCategory(ctx, productURL),
			ImageURL:   imageURL,
			ProductURL: productURL,
		})
	})
	return out
}

func (s *BooksScraper) fetchCategory(ctx context.Context, productURL string) string {
	if productURL == "" {
		return "Unknown"
	}
	doc, err := s.fetcher.GetDocument(ctx, productURL)
	if err != nil {
		s.log.Warn().Err(err).Str("url", productURL).Msg("category fetch failed")
		return "Unknown"
	}
	crumbs := doc.Find("ul.breadcrumb li")
	if crumbs.Length() >= 2 {
		return strings.TrimSpace(crumbs.Eq(crumbs.Length() - 2).Text())
	}
	return "Unknown"
}

func parseRating(sel *goquery.Selection) int {
	for _, class := range strings.Fields(sel.AttrOr("class", "")) {
		if v, ok := ratingWords[class]; ok {
			return v
		}
	}
	return 0
}

func parsePrice(text string) float64 {
	trimmed := strings.TrimFunc(text, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	price, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0
	}
	return price
}

func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
