package internal

import "time"

type SourceKind string

const (
	KindBooks     SourceKind = "books"
	KindQuotes    SourceKind = "quotes"
	KindAddresses SourceKind = "api"
	KindPartners  SourceKind = "partners"
)

// AllKinds is the processing order of a full run.
var AllKinds = []SourceKind{KindBooks, KindQuotes, KindAddresses, KindPartners}

// Raw records, as produced by the source iterators before any validation.

type Book struct {
	Title      string
	PriceGBP   float64
	Rating     int
	Category   string
	ImageURL   string
	ProductURL string
}

type Quote struct {
	Text   string
	Author string
	Tags   []string
}

type Address struct {
	ID        string
	Label     string
	Score     float64
	Type      string
	City      string
	Postcode  string
	Context   string
	Latitude  *float64
	Longitude *float64
}

// PartnerRow is one spreadsheet row, cell values kept as strings so that
// sentinel values ("NaN", "#N/A") survive until the transform decides.
type PartnerRow struct {
	Name            string
	Address         string
	Postcode        string
	City            string
	ContactName     string
	ContactEmail    string
	ContactPhone    string
	AnnualRevenue   string
	PartnershipDate string
	Specialty       string
}

// Canonical records, ready for load and export.

type BookRecord struct {
	SKU        string  `json:"sku"`
	Title      string  `json:"title"`
	PriceGBP   float64 `json:"price_gbp"`
	PriceEUR   float64 `json:"price_eur"`
	Rating     *int    `json:"rating"`
	Category   *string `json:"category"`
	ImageURL   string  `json:"image_url"`
	ImageRef   *string `json:"minio_image_ref"`
	ProductURL string  `json:"product_url"`
}

type QuoteRecord struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	Author         string   `json:"author"`
	Tags           []string `json:"tags"`
	TextNormalized string   `json:"text_normalized"`
	TagsNormalized []string `json:"tags_normalized"`
}

type AddressRecord struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Score     float64  `json:"score"`
	Type      string   `json:"type"`
	City      string   `json:"city"`
	Postcode  string   `json:"postcode"`
	Context   string   `json:"context"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Query     string   `json:"query"`
}

// PartnerRecord carries contact fields only as one-way digests; the cleartext
// never leaves the transform.
type PartnerRecord struct {
	ID               string   `json:"id"`
	Name             string   `json:"nom_librairie"`
	Address          string   `json:"adresse"`
	Postcode         string   `json:"code_postal"`
	City             string   `json:"ville"`
	ContactNameHash  *string  `json:"contact_nom_hash"`
	ContactEmailHash *string  `json:"contact_email_hash"`
	ContactPhoneHash *string  `json:"contact_telephone_hash"`
	AnnualRevenue    *float64 `json:"ca_annuel"`
	PartnershipDate  *string  `json:"date_partenariat"`
	Specialty        string   `json:"specialite"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
}

// RunSummary is returned by every run, successful or not.
type RunSummary struct {
	BooksScraped       int           `json:"books_scraped"`
	BooksLoaded        int           `json:"books_loaded"`
	BookImagesUploaded int           `json:"book_images_uploaded"`
	QuotesScraped      int           `json:"quotes_scraped"`
	QuotesLoaded       int           `json:"quotes_loaded"`
	AddressesScraped   int           `json:"api_addresses_scraped"`
	AddressesLoaded    int           `json:"api_addresses_loaded"`
	PartnersScraped    int           `json:"partners_scraped"`
	PartnersLoaded     int           `json:"partners_loaded"`
	StartedAt          time.Time     `json:"start_time"`
	FinishedAt         time.Time     `json:"end_time"`
	Duration           time.Duration `json:"-"`
	Errors             []string      `json:"errors"`
}
