package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookpipe/internal"
)

// ExportBuffer accumulates every loaded record for the run; at the end each
// kind is mirrored to the object store as one CSV and one JSON snapshot.
type ExportBuffer struct {
	Books     []internal.BookRecord
	Quotes    []internal.QuoteRecord
	Addresses []internal.AddressRecord
	Partners  []internal.PartnerRecord
}

func NewExportBuffer() *ExportBuffer {
	return &ExportBuffer{}
}

// Upload writes `{prefix}_{kind}_{UTC timestamp}.csv|json` for every
// non-empty kind.
func (b *ExportBuffer) Upload(ctx context.Context, objects ObjectStore, prefix string, now time.Time) error {
	stamp := now.UTC().Format("20060102_150405")
	name := func(kind internal.SourceKind, ext string) string {
		return fmt.Sprintf("%s_%s_%s.%s", prefix, kind, stamp, ext)
	}

	if len(b.Books) > 0 {
		if err := objects.UploadCSV(ctx, b.booksCSV(), name(internal.KindBooks, "csv")); err != nil {
			return err
		}
		if err := objects.UploadJSON(ctx, b.Books, name(internal.KindBooks, "json")); err != nil {
			return err
		}
	}
	if len(b.Quotes) > 0 {
		if err := objects.UploadCSV(ctx, b.quotesCSV(), name(internal.KindQuotes, "csv")); err != nil {
			return err
		}
		if err := objects.UploadJSON(ctx, b.Quotes, name(internal.KindQuotes, "json")); err != nil {
			return err
		}
	}
	if len(b.Addresses) > 0 {
		if err := objects.UploadCSV(ctx, b.addressesCSV(), name(internal.KindAddresses, "csv")); err != nil {
			return err
		}
		if err := objects.UploadJSON(ctx, b.Addresses, name(internal.KindAddresses, "json")); err != nil {
			return err
		}
	}
	if len(b.Partners) > 0 {
		if err := objects.UploadCSV(ctx, b.partnersCSV(), name(internal.KindPartners, "csv")); err != nil {
			return err
		}
		if err := objects.UploadJSON(ctx, b.Partners, name(internal.KindPartners, "json")); err != nil {
			return err
		}
	}
	return nil
}

func (b *ExportBuffer) booksCSV() []byte {
	return writeCSV(
		[]string{"sku", "title", "price_gbp", "price_eur", "rating", "category", "image_url", "minio_image_ref", "product_url"},
		len(b.Books), func(i int) []string {
			r := b.Books[i]
			return []string{
				r.SKU, r.Title, fmtFloat(r.PriceGBP), fmtFloat(r.PriceEUR),
				fmtIntPtr(r.Rating), fmtStrPtr(r.Category), r.ImageURL, fmtStrPtr(r.ImageRef), r.ProductURL,
			}
		})
}

func (b *ExportBuffer) quotesCSV() []byte {
	return writeCSV(
		[]string{"id", "text", "author", "tags", "text_normalized", "tags_normalized"},
		len(b.Quotes), func(i int) []string {
			r := b.Quotes[i]
			return []string{
				r.ID, r.Text, r.Author, strings.Join(r.Tags, "|"),
				r.TextNormalized, strings.Join(r.TagsNormalized, "|"),
			}
		})
}

func (b *ExportBuffer) addressesCSV() []byte {
	return writeCSV(
		[]string{"id", "label", "score", "type", "city", "postcode", "context", "latitude", "longitude", "query"},
		len(b.Addresses), func(i int) []string {
			r := b.Addresses[i]
			return []string{
				r.ID, r.Label, fmtFloat(r.Score), r.Type, r.City, r.Postcode, r.Context,
				fmtFloatPtr(r.Latitude), fmtFloatPtr(r.Longitude), r.Query,
			}
		})
}

func (b *ExportBuffer) partnersCSV() []byte {
	return writeCSV(
		[]string{"id", "nom_librairie", "adresse", "code_postal", "ville", "contact_nom_hash", "contact_email_hash", "contact_telephone_hash", "ca_annuel", "date_partenariat", "specialite", "latitude", "longitude"},
		len(b.Partners), func(i int) []string {
			r := b.Partners[i]
			return []string{
				r.ID, r.Name, r.Address, r.Postcode, r.City,
				fmtStrPtr(r.ContactNameHash), fmtStrPtr(r.ContactEmailHash), fmtStrPtr(r.ContactPhoneHash),
				fmtFloatPtr(r.AnnualRevenue), fmtStrPtr(r.PartnershipDate), r.Specialty,
				fmtFloatPtr(r.Latitude), fmtFloatPtr(r.Longitude),
			}
		})
}

func writeCSV(header []string, n int, row func(i int) []string) []byte {
	buf := bytes.NewBuffer(nil)
	w := csv.NewWriter(buf)
	_ = w.Write(header)
	for i := 0; i < n; i++ {
		_ = w.Write(row(i))
	}
	w.Flush()
	return buf.Bytes()
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fmtFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return fmtFloat(*v)
}

func fmtIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func fmtStrPtr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
