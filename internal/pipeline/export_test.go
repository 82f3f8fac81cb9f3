package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"bookpipe/internal"
)

func TestUploadSkipsEmptyKinds(t *testing.T) {
	objects := &fakeObjects{}
	b := NewExportBuffer()
	b.Quotes = append(b.Quotes, internal.QuoteRecord{ID: "Q1", Text: "t", TextNormalized: "t"})

	if err := b.Upload(context.Background(), objects, "export", time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"export_quotes_20240301_123045.csv",
		"export_quotes_20240301_123045.json",
	}
	if len(objects.uploads) != len(want) {
		t.Fatalf("uploads=%v", objects.uploads)
	}
	for i, name := range want {
		if objects.uploads[i] != name {
			t.Fatalf("upload[%d]=%q want %q", i, objects.uploads[i], name)
		}
	}
}

func TestQuotesCSVJoinsTags(t *testing.T) {
	b := NewExportBuffer()
	b.Quotes = append(b.Quotes, internal.QuoteRecord{
		ID:             "Q1",
		Text:           "raw, with comma",
		Author:         "A",
		Tags:           []string{"Change", "World"},
		TagsNormalized: []string{"change", "world"},
	})

	rows, err := csv.NewReader(bytes.NewReader(b.quotesCSV())).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d", len(rows))
	}
	if rows[0][3] != "tags" {
		t.Fatalf("header=%v", rows[0])
	}
	if rows[1][1] != "raw, with comma" {
		t.Fatalf("text=%q, commas must survive quoting", rows[1][1])
	}
	if rows[1][3] != "Change|World" || rows[1][5] != "change|world" {
		t.Fatalf("tags=%q/%q", rows[1][3], rows[1][5])
	}
}

func TestPartnersCSVAbsentValuesAreEmpty(t *testing.T) {
	b := NewExportBuffer()
	b.Partners = append(b.Partners, internal.PartnerRecord{ID: "P1", Name: "Librairie X"})

	rows, err := csv.NewReader(bytes.NewReader(b.partnersCSV())).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	row := rows[1]
	// hashes, revenue, date, coordinates: all absent
	for _, i := range []int{5, 6, 7, 8, 9, 11, 12} {
		if row[i] != "" {
			t.Fatalf("column %d=%q, want empty", i, row[i])
		}
	}
}
