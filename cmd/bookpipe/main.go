package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bookpipe/internal"
	"bookpipe/internal/config"
	"bookpipe/internal/geocode"
	"bookpipe/internal/logging"
	"bookpipe/internal/objectstore"
	"bookpipe/internal/partners"
	"bookpipe/internal/pipeline"
	"bookpipe/internal/scrape"
	"bookpipe/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	log := logging.New(cfg.AppEnv)

	fs := flag.NewFlagSet("bookpipe", flag.ExitOnError)
	source := fs.String("source", "books", "books|quotes|api|partners|all")
	pages := fs.Int("pages", cfg.DefaultMaxPages, "page ceiling per scraped source")
	query := fs.String("query", "", "query for the address api")
	limit := fs.Int("limit", 5, "result limit for the address api")
	partnersFile := fs.String("partners-file", "data/partenaire_librairies.xlsx", "partner roster xlsx path")
	geocodePartners := fs.Bool("geocode-partners", false, "geocode partner addresses")
	noSQL := fs.Bool("no-sql", false, "skip loading into the analytical store")
	noMinio := fs.Bool("no-minio", false, "skip image mirroring and exports")
	_ = fs.Parse(os.Args[1:])

	kinds, err := parseSources(*source)
	must(err)

	ctx := context.Background()

	var store pipeline.Store
	if !*noSQL {
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()
		store = db
	}

	var objects pipeline.ObjectStore
	if !*noMinio {
		must(cfg.Require("MINIO_ACCESS_KEY", cfg.MinioAccessKey))
		must(cfg.Require("MINIO_SECRET_KEY", cfg.MinioSecretKey))
		minioStore, err := objectstore.New(cfg, log)
		must(err)
		must(minioStore.EnsureBuckets(ctx))
		objects = minioStore
	}

	timeout := time.Duration(cfg.HTTPTimeoutMs) * time.Millisecond
	delay := time.Duration(cfg.RequestDelayMs) * time.Millisecond
	booksFetcher := scrape.NewFetcher(timeout, delay, cfg.FetchAttempts, log)
	quotesFetcher := scrape.NewFetcher(timeout, delay, cfg.FetchAttempts, log)
	geoFetcher := scrape.NewFetcher(timeout, delay, cfg.FetchAttempts, log)

	deps := pipeline.Deps{
		Store:     store,
		Objects:   objects,
		Images:    booksFetcher,
		Books:     scrape.NewBooksScraper(booksFetcher, cfg.BooksBaseURL, log),
		Quotes:    scrape.NewQuotesScraper(quotesFetcher, cfg.QuotesBaseURL, log),
		Addresses: geocode.NewClient(geoFetcher, cfg.AddressAPIURL, log),
	}

	if _, err := os.Stat(*partnersFile); err == nil {
		deps.Partners = partners.NewReader(*partnersFile)
	} else {
		log.Warn().Str("path", *partnersFile).Msg("partners file missing")
	}

	p := pipeline.New(deps, pipeline.NewTransformer(cfg.MaxBookPriceGBP, cfg.GBPToEURRate), log)
	summary := p.Run(ctx, pipeline.Options{
		Sources:         kinds,
		MaxPages:        *pages,
		Query:           *query,
		Limit:           *limit,
		GeocodePartners: *geocodePartners,
		Export:          !*noMinio,
		ExportPrefix:    cfg.ExportPrefix,
	})

	printSummary(summary)
	if len(summary.Errors) > 0 {
		os.Exit(1)
	}
}

func parseSources(source string) ([]internal.SourceKind, error) {
	if source == "all" {
		return internal.AllKinds, nil
	}
	kind := internal.SourceKind(source)
	for _, known := range internal.AllKinds {
		if kind == known {
			return []internal.SourceKind{kind}, nil
		}
	}
	return nil, fmt.Errorf("unknown source: %s (want books|quotes|api|partners|all)", source)
}

func printSummary(s internal.RunSummary) {
	fmt.Println("pipeline finished")
	fmt.Printf("  books scraped     : %d\n", s.BooksScraped)
	fmt.Printf("  books loaded      : %d\n", s.BooksLoaded)
	fmt.Printf("  images uploaded   : %d\n", s.BookImagesUploaded)
	fmt.Printf("  quotes scraped    : %d\n", s.QuotesScraped)
	fmt.Printf("  quotes loaded     : %d\n", s.QuotesLoaded)
	fmt.Printf("  addresses scraped : %d\n", s.AddressesScraped)
	fmt.Printf("  addresses loaded  : %d\n", s.AddressesLoaded)
	fmt.Printf("  partners loaded   : %d\n", s.PartnersLoaded)
	fmt.Printf("  duration          : %.2fs\n", s.Duration.Seconds())
	fmt.Printf("  errors            : %d\n", len(s.Errors))
	for i, msg := range s.Errors {
		if i == 5 {
			break
		}
		fmt.Printf("    - %s\n", msg)
	}
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
