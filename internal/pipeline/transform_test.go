package pipeline

import (
	"reflect"
	"strings"
	"testing"

	"bookpipe/internal"
)

func newTestTransformer() Transformer {
	return NewTransformer(500, 1.17)
}

func TestBookPriceBounds(t *testing.T) {
	tr := newTestTransformer()
	cases := []struct {
		name  string
		price float64
		want  bool
	}{
		{name: "zero", price: 0, want: false},
		{name: "negative", price: -1, want: false},
		{name: "just above zero", price: 0.01, want: true},
		{name: "at ceiling", price: 500, want: true},
		{name: "above ceiling", price: 500.01, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := tr.Book(internal.Book{Title: "T", PriceGBP: tc.price, Rating: 3})
			if ok != tc.want {
				t.Fatalf("price=%v accepted=%v want %v", tc.price, ok, tc.want)
			}
		})
	}
}

func TestBookPriceConversion(t *testing.T) {
	tr := newTestTransformer()
	rec, ok := tr.Book(internal.Book{Title: "T", PriceGBP: 51.77, Rating: 3})
	if !ok {
		t.Fatal("rejected")
	}
	// 51.77 * 1.17 = 60.5709 -> 60.57
	if rec.PriceEUR != 60.57 {
		t.Fatalf("price_eur=%v", rec.PriceEUR)
	}
}

func TestBookRating(t *testing.T) {
	tr := newTestTransformer()
	for _, rating := range []int{0, -1, 6, 100} {
		rec, _ := tr.Book(internal.Book{Title: "T", PriceGBP: 10, Rating: rating})
		if rec.Rating != nil {
			t.Fatalf("rating %d should be absent, got %d", rating, *rec.Rating)
		}
	}
	for rating := 1; rating <= 5; rating++ {
		rec, _ := tr.Book(internal.Book{Title: "T", PriceGBP: 10, Rating: rating})
		if rec.Rating == nil || *rec.Rating != rating {
			t.Fatalf("rating %d not kept", rating)
		}
	}
}

func TestBookCategoryAndSKU(t *testing.T) {
	tr := newTestTransformer()
	rec, _ := tr.Book(internal.Book{Title: "  A   Light in the Attic ", PriceGBP: 10, Category: " Poetry "})
	if rec.Title != "A Light in the Attic" {
		t.Fatalf("title=%q", rec.Title)
	}
	if rec.Category == nil || *rec.Category != "poetry" {
		t.Fatalf("category=%v", rec.Category)
	}
	if len(rec.SKU) != 12 {
		t.Fatalf("sku=%q", rec.SKU)
	}

	again, _ := tr.Book(internal.Book{Title: "A Light in the Attic", PriceGBP: 20})
	if again.SKU != rec.SKU {
		t.Fatal("sku not stable across whitespace variants")
	}

	empty, _ := tr.Book(internal.Book{Title: "T", PriceGBP: 10, Category: "   "})
	if empty.Category != nil {
		t.Fatalf("empty category should be absent, got %q", *empty.Category)
	}
}

func TestQuoteTransform(t *testing.T) {
	tr := newTestTransformer()

	if _, ok := tr.Quote(internal.Quote{Text: "   \t "}); ok {
		t.Fatal("whitespace-only text must be rejected")
	}

	rec, ok := tr.Quote(internal.Quote{
		Text:   "  The world  as we have created it ",
		Author: " Albert   Einstein ",
		Tags:   []string{"Change", " change ", "World"},
	})
	if !ok {
		t.Fatal("rejected")
	}
	if rec.TextNormalized != "The world as we have created it" {
		t.Fatalf("text_normalized=%q", rec.TextNormalized)
	}
	if rec.Author != "Albert Einstein" {
		t.Fatalf("author=%q", rec.Author)
	}
	if !reflect.DeepEqual(rec.TagsNormalized, []string{"change", "world"}) {
		t.Fatalf("tags_normalized=%v", rec.TagsNormalized)
	}
	if rec.Text != "  The world  as we have created it " {
		t.Fatal("raw text must be retained for display fidelity")
	}

	variant, _ := tr.Quote(internal.Quote{Text: "The world as we have created it"})
	if variant.ID != rec.ID {
		t.Fatal("whitespace variants must share an identity")
	}
}

func TestAddressTransform(t *testing.T) {
	tr := newTestTransformer()

	if _, ok := tr.Address(internal.Address{Label: " "}, "paris"); ok {
		t.Fatal("empty label must be rejected")
	}

	withID, _ := tr.Address(internal.Address{ID: "adr-1", Label: "10 Rue de la Paix", Postcode: "75002", City: "Paris"}, "paix")
	if withID.ID != "adr-1" {
		t.Fatalf("id=%q", withID.ID)
	}

	derived, _ := tr.Address(internal.Address{Label: "10 Rue de la Paix", Postcode: "75002", City: "Paris"}, "paix")
	if len(derived.ID) != 12 {
		t.Fatalf("derived id=%q", derived.ID)
	}
	derivedAgain, _ := tr.Address(internal.Address{Label: "10 Rue de la Paix", Postcode: "75002", City: "Paris"}, "other query")
	if derivedAgain.ID != derived.ID {
		t.Fatal("derived id must be stable")
	}
}

func TestPartnerTransform(t *testing.T) {
	tr := newTestTransformer()

	if _, ok := tr.Partner(internal.PartnerRow{Name: "  "}, nil, nil); ok {
		t.Fatal("empty name must be rejected")
	}

	rec, ok := tr.Partner(internal.PartnerRow{
		Name:            " Librairie  du Canal ",
		Address:         "55 Quai de Valmy",
		Postcode:        "75010",
		City:            "Paris",
		ContactName:     "Marie Dupont",
		ContactEmail:    "marie@canal.fr",
		ContactPhone:    "+33 1 42 00 00 00",
		AnnualRevenue:   "250000.50",
		PartnershipDate: "2021-06-15",
		Specialty:       "BD",
	}, nil, nil)
	if !ok {
		t.Fatal("rejected")
	}
	if rec.Name != "Librairie du Canal" {
		t.Fatalf("name=%q", rec.Name)
	}
	if rec.AnnualRevenue == nil || *rec.AnnualRevenue != 250000.50 {
		t.Fatalf("revenue=%v", rec.AnnualRevenue)
	}
	if rec.PartnershipDate == nil || *rec.PartnershipDate != "2021-06-15" {
		t.Fatalf("date=%v", rec.PartnershipDate)
	}

	for _, digest := range []*string{rec.ContactNameHash, rec.ContactEmailHash, rec.ContactPhoneHash} {
		if digest == nil {
			t.Fatal("contact digest missing")
		}
		if len(*digest) != 64 {
			t.Fatalf("digest len=%d", len(*digest))
		}
	}
	if *rec.ContactEmailHash == "marie@canal.fr" || strings.Contains(*rec.ContactEmailHash, "canal") {
		t.Fatal("cleartext survived pseudonymization")
	}
}

func TestPartnerMissingValues(t *testing.T) {
	tr := newTestTransformer()
	rec, ok := tr.Partner(internal.PartnerRow{
		Name:            "Librairie X",
		Postcode:        "NaN",
		AnnualRevenue:   "NaN",
		PartnershipDate: "not a date",
	}, nil, nil)
	if !ok {
		t.Fatal("rejected")
	}
	if rec.Postcode != "" {
		t.Fatalf("postcode=%q, sentinel must normalize to empty", rec.Postcode)
	}
	if rec.AnnualRevenue != nil {
		t.Fatalf("revenue=%v, sentinel must be absent", *rec.AnnualRevenue)
	}
	if rec.PartnershipDate != nil {
		t.Fatalf("date=%v, malformed must degrade to absent", *rec.PartnershipDate)
	}
	if rec.ContactNameHash != nil {
		t.Fatal("empty contact must stay absent, not hashed")
	}
}

func TestPartnerIdentityStable(t *testing.T) {
	tr := newTestTransformer()
	row := internal.PartnerRow{Name: "Librairie X", Address: "1 rue Y", Postcode: "75001", City: "Paris"}
	a, _ := tr.Partner(row, nil, nil)
	b, _ := tr.Partner(row, nil, nil)
	if a.ID != b.ID {
		t.Fatal("identity not deterministic")
	}
}
