package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bookpipe/internal"
)

// Store is the analytical-store contract the pipeline loads into.
type Store interface {
	UpsertBook(internal.BookRecord) error
	UpsertQuote(internal.QuoteRecord) error
	UpsertAddress(internal.AddressRecord) error
	UpsertPartner(internal.PartnerRecord) error
}

// ObjectStore mirrors artifacts: images during enrichment, CSV/JSON
// snapshots at the end of the run.
type ObjectStore interface {
	UploadImage(ctx context.Context, data []byte, name string) (string, error)
	UploadCSV(ctx context.Context, data []byte, name string) error
	UploadJSON(ctx context.Context, v any, name string) error
}

// Source iterators. Each produces a lazy, finite sequence; the pipeline
// never iterates a source twice.

type BookSource interface {
	Books(ctx context.Context, maxPages int) iter.Seq2[internal.Book, error]
}

type QuoteSource interface {
	Quotes(ctx context.Context, maxPages int) iter.Seq2[internal.Quote, error]
}

type AddressSource interface {
	Search(ctx context.Context, query string, limit int) ([]internal.Address, error)
}

type PartnerSource interface {
	Rows() ([]internal.PartnerRow, error)
}

type ImageFetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Deps are the already-constructed collaborators a run works with. Store nil
// disables SQL loading; Objects nil disables mirroring and exports.
type Deps struct {
	Store     Store
	Objects   ObjectStore
	Images    ImageFetcher
	Books     BookSource
	Quotes    QuoteSource
	Addresses AddressSource
	Partners  PartnerSource
}

type Options struct {
	Sources         []internal.SourceKind
	MaxPages        int
	Query           string
	Limit           int
	GeocodePartners bool
	Export          bool
	ExportPrefix    string
}

// ImageResult is the outcome of the optional image-mirroring step: either a
// stored object reference or an explicit skip with its reason.
type ImageResult struct {
	Ref     string
	Skipped bool
	Reason  string
}

// Pipeline sequences the enabled sources through transform, dedup, load and
// the export buffer. One Pipeline value serves exactly one run.
type Pipeline struct {
	deps      Deps
	transform Transformer
	dedup     *Dedup
	buffer    *ExportBuffer
	log       zerolog.Logger
}

func New(deps Deps, transform Transformer, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		deps:      deps,
		transform: transform,
		dedup:     NewDedup(),
		buffer:    NewExportBuffer(),
		log:       log,
	}
}

// Run processes the requested sources in order and always returns a summary.
// The first uncaught failure is recorded once and curtails the sources not
// yet started; work already completed stays counted and exported.
func (p *Pipeline) Run(ctx context.Context, opts Options) internal.RunSummary {
	start := time.Now().UTC()
	sum := internal.RunSummary{StartedAt: start, Errors: []string{}}

	p.log.Info().
		Str("sources", joinKinds(opts.Sources)).
		Int("max_pages", opts.MaxPages).
		Msg("pipeline started")

	if err := p.runAll(ctx, opts, &sum); err != nil {
		p.log.Error().Err(err).Msg("pipeline failed")
		sum.Errors = append(sum.Errors, err.Error())
	}

	sum.FinishedAt = time.Now().UTC()
	sum.Duration = sum.FinishedAt.Sub(start)

	p.log.Info().
		Int("books_loaded", sum.BooksLoaded).
		Int("quotes_loaded", sum.QuotesLoaded).
		Int("addresses_loaded", sum.AddressesLoaded).
		Int("partners_loaded", sum.PartnersLoaded).
		Int("errors", len(sum.Errors)).
		Dur("duration", sum.Duration).
		Msg("pipeline completed")

	return sum
}

func (p *Pipeline) runAll(ctx context.Context, opts Options, sum *internal.RunSummary) error {
	enabled := map[internal.SourceKind]bool{}
	for _, kind := range opts.Sources {
		enabled[kind] = true
	}

	// Fatal configuration check, before any partial work.
	if enabled[internal.KindAddresses] && strings.TrimSpace(opts.Query) == "" {
		return errors.New("api source requires a query")
	}

	if enabled[internal.KindBooks] {
		if err := p.runBooks(ctx, opts, sum); err != nil {
			return fmt.Errorf("books: %w", err)
		}
	}
	if enabled[internal.KindQuotes] {
		if err := p.runQuotes(ctx, opts, sum); err != nil {
			return fmt.Errorf("quotes: %w", err)
		}
	}
	if enabled[internal.KindAddresses] {
		if err := p.runAddresses(ctx, opts, sum); err != nil {
			return fmt.Errorf("api: %w", err)
		}
	}
	if enabled[internal.KindPartners] {
		if err := p.runPartners(ctx, opts, sum); err != nil {
			return fmt.Errorf("partners: %w", err)
		}
	}

	if opts.Export && p.deps.Objects != nil {
		if err := p.buffer.Upload(ctx, p.deps.Objects, opts.ExportPrefix, time.Now()); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) runBooks(ctx context.Context, opts Options, sum *internal.RunSummary) error {
	for raw, err := range p.deps.Books.Books(ctx, opts.MaxPages) {
		if err != nil {
			return err
		}
		rec, ok := p.transform.Book(raw)
		if !ok {
			continue
		}
		if !p.dedup.Admit(internal.KindBooks, rec.SKU) {
			continue
		}
		sum.BooksScraped++

		if result := p.mirrorImage(ctx, rec); result.Skipped {
			p.log.Debug().Str("sku", rec.SKU).Str("reason", result.Reason).Msg("image skipped")
		} else {
			rec.ImageRef = &result.Ref
			sum.BookImagesUploaded++
		}

		if p.deps.Store != nil {
			if err := p.deps.Store.UpsertBook(rec); err != nil {
				return err
			}
			sum.BooksLoaded++
		}
		p.buffer.Books = append(p.buffer.Books, rec)
	}
	return nil
}

func (p *Pipeline) runQuotes(ctx context.Context, opts Options, sum *internal.RunSummary) error {
	for raw, err := range p.deps.Quotes.Quotes(ctx, opts.MaxPages) {
		if err != nil {
			return err
		}
		rec, ok := p.transform.Quote(raw)
		if !ok {
			continue
		}
		if !p.dedup.Admit(internal.KindQuotes, rec.ID) {
			continue
		}
		sum.QuotesScraped++

		if p.deps.Store != nil {
			if err := p.deps.Store.UpsertQuote(rec); err != nil {
				return err
			}
			sum.QuotesLoaded++
		}
		p.buffer.Quotes = append(p.buffer.Quotes, rec)
	}
	return nil
}

func (p *Pipeline) runAddresses(ctx context.Context, opts Options, sum *internal.RunSummary) error {
	results, err := p.deps.Addresses.Search(ctx, opts.Query, opts.Limit)
	if err != nil {
		return err
	}
	for _, raw := range results {
		rec, ok := p.transform.Address(raw, opts.Query)
		if !ok {
			continue
		}
		if !p.dedup.Admit(internal.KindAddresses, rec.ID) {
			continue
		}
		sum.AddressesScraped++

		if p.deps.Store != nil {
			if err := p.deps.Store.UpsertAddress(rec); err != nil {
				return err
			}
			sum.AddressesLoaded++
		}
		p.buffer.Addresses = append(p.buffer.Addresses, rec)
	}
	return nil
}

func (p *Pipeline) runPartners(ctx context.Context, opts Options, sum *internal.RunSummary) error {
	if p.deps.Partners == nil {
		p.log.Warn().Msg("partners source not configured, skipping")
		return nil
	}

	rows, err := p.deps.Partners.Rows()
	if err != nil {
		return err
	}

	for _, row := range rows {
		var latitude, longitude *float64
		if opts.GeocodePartners {
			latitude, longitude = p.geocodePartner(ctx, row)
		}

		rec, ok := p.transform.Partner(row, latitude, longitude)
		if !ok {
			continue
		}
		if !p.dedup.Admit(internal.KindPartners, rec.ID) {
			continue
		}
		sum.PartnersScraped++

		if p.deps.Store != nil {
			if err := p.deps.Store.UpsertPartner(rec); err != nil {
				return err
			}
			sum.PartnersLoaded++
		}
		p.buffer.Partners = append(p.buffer.Partners, rec)
	}
	return nil
}

// geocodePartner is best effort: any failure leaves the coordinates absent.
func (p *Pipeline) geocodePartner(ctx context.Context, row internal.PartnerRow) (*float64, *float64) {
	if p.deps.Addresses == nil {
		return nil, nil
	}

	parts := []string{}
	for _, part := range []string{row.Address, row.Postcode, row.City} {
		if !strings.EqualFold(strings.TrimSpace(part), "") && strings.ToLower(strings.TrimSpace(part)) != "nan" {
			parts = append(parts, strings.TrimSpace(part))
		}
	}
	query := strings.Join(parts, " ")
	if query == "" {
		return nil, nil
	}

	results, err := p.deps.Addresses.Search(ctx, query, 1)
	if err != nil || len(results) == 0 {
		p.log.Warn().Err(err).Str("query", query).Msg("geocode skipped")
		return nil, nil
	}
	return results[0].Latitude, results[0].Longitude
}

func (p *Pipeline) mirrorImage(ctx context.Context, rec internal.BookRecord) ImageResult {
	if p.deps.Objects == nil || p.deps.Images == nil {
		return ImageResult{Skipped: true, Reason: "mirroring disabled"}
	}
	if rec.ImageURL == "" {
		return ImageResult{Skipped: true, Reason: "no image url"}
	}

	data, err := p.deps.Images.Get(ctx, rec.ImageURL)
	if err != nil {
		return ImageResult{Skipped: true, Reason: "download failed: " + err.Error()}
	}

	category := "other"
	if rec.Category != nil {
		category = *rec.Category
	}
	ref, err := p.deps.Objects.UploadImage(ctx, data, category+"/"+rec.SKU+".jpg")
	if err != nil {
		return ImageResult{Skipped: true, Reason: "upload failed: " + err.Error()}
	}
	return ImageResult{Ref: ref}
}

func joinKinds(kinds []internal.SourceKind) string {
	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		parts = append(parts, string(kind))
	}
	return strings.Join(parts, ",")
}
