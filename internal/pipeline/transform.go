package pipeline

import (
	"math"
	"strconv"
	"strings"
	"time"

	"bookpipe/internal"
	"bookpipe/internal/util"
)

// Transformer holds the constants the per-kind transforms need. Each
// transform is pure: it returns the canonical record and true, or the zero
// record and false when validation rejects the input. Rejection is an
// expected outcome, never an error.
type Transformer struct {
	MaxPriceGBP  float64
	GBPToEURRate float64
}

func NewTransformer(maxPriceGBP, gbpToEURRate float64) Transformer {
	return Transformer{MaxPriceGBP: maxPriceGBP, GBPToEURRate: gbpToEURRate}
}

func (t Transformer) Book(raw internal.Book) (internal.BookRecord, bool) {
	if raw.PriceGBP <= 0 || raw.PriceGBP > t.MaxPriceGBP {
		return internal.BookRecord{}, false
	}

	title := util.NormalizeText(raw.Title)
	rec := internal.BookRecord{
		SKU:        util.StableID(title),
		Title:      title,
		PriceGBP:   raw.PriceGBP,
		PriceEUR:   round2(raw.PriceGBP * t.GBPToEURRate),
		ImageURL:   util.NormalizeText(raw.ImageURL),
		ProductURL: util.NormalizeText(raw.ProductURL),
	}

	// Out-of-range ratings become absent, never clamped.
	if raw.Rating >= 1 && raw.Rating <= 5 {
		rating := raw.Rating
		rec.Rating = &rating
	}

	if category := strings.ToLower(util.NormalizeText(raw.Category)); category != "" {
		rec.Category = &category
	}

	return rec, true
}

func (t Transformer) Quote(raw internal.Quote) (internal.QuoteRecord, bool) {
	textNorm := util.NormalizeText(raw.Text)
	if textNorm == "" {
		return internal.QuoteRecord{}, false
	}
	return internal.QuoteRecord{
		// Identity over the normalized text, so raw variants that differ
		// only in whitespace collapse to one row.
		ID:             util.StableID(textNorm),
		Text:           raw.Text,
		Author:         util.NormalizeText(raw.Author),
		Tags:           raw.Tags,
		TextNormalized: textNorm,
		TagsNormalized: util.NormalizeTags(raw.Tags),
	}, true
}

func (t Transformer) Address(raw internal.Address, query string) (internal.AddressRecord, bool) {
	label := util.NormalizeText(raw.Label)
	if label == "" {
		return internal.AddressRecord{}, false
	}

	id := raw.ID
	if id == "" {
		// Derived key so every persisted row stays addressable even when
		// the upstream source omits an identifier.
		id = util.StableID(label + "-" + raw.Postcode + "-" + raw.City)
	}

	return internal.AddressRecord{
		ID:        id,
		Label:     label,
		Score:     raw.Score,
		Type:      util.NormalizeText(raw.Type),
		City:      util.NormalizeText(raw.City),
		Postcode:  util.NormalizeText(raw.Postcode),
		Context:   util.NormalizeText(raw.Context),
		Latitude:  raw.Latitude,
		Longitude: raw.Longitude,
		Query:     util.NormalizeText(query),
	}, true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"01-02-06",
}

func (t Transformer) Partner(row internal.PartnerRow, latitude, longitude *float64) (internal.PartnerRecord, bool) {
	name := util.NormalizeText(row.Name)
	if name == "" {
		return internal.PartnerRecord{}, false
	}

	address := util.NormalizeText(row.Address)
	postcode := ""
	if !util.IsMissing(row.Postcode) {
		postcode = util.NormalizeText(row.Postcode)
	}
	city := util.NormalizeText(row.City)

	return internal.PartnerRecord{
		ID:               util.StableID(name + "-" + address + "-" + postcode + "-" + city),
		Name:             name,
		Address:          address,
		Postcode:         postcode,
		City:             city,
		ContactNameHash:  util.HashPII(util.NormalizeText(row.ContactName)),
		ContactEmailHash: util.HashPII(util.NormalizeText(row.ContactEmail)),
		ContactPhoneHash: util.HashPII(util.NormalizeText(row.ContactPhone)),
		AnnualRevenue:    parseRevenue(row.AnnualRevenue),
		PartnershipDate:  parseDate(row.PartnershipDate),
		Specialty:        util.NormalizeText(row.Specialty),
		Latitude:         latitude,
		Longitude:        longitude,
	}, true
}

func parseRevenue(raw string) *float64 {
	if util.IsMissing(raw) {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) {
		return nil
	}
	return &value
}

// parseDate degrades malformed dates to absent rather than failing the row.
func parseDate(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if util.IsMissing(trimmed) {
		return nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			date := parsed.Format("2006-01-02")
			return &date
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
