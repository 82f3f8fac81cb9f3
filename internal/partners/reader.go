package partners

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"bookpipe/internal"
)

// RequiredColumns are the named columns the roster spreadsheet must carry.
// Missing any of them is fatal before a single row is processed.
var RequiredColumns = []string{
	"nom_librairie",
	"adresse",
	"code_postal",
	"ville",
	"contact_nom",
	"contact_email",
	"contact_telephone",
	"ca_annuel",
	"date_partenariat",
	"specialite",
}

// Reader loads the partner roster from a fixed, named-column spreadsheet.
type Reader struct {
	path string
}

func NewReader(path string) *Reader {
	return &Reader{path: path}
}

func (r *Reader) Rows() ([]internal.PartnerRow, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("open partners file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("partners file has no sheets: %s", r.path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("partners file is empty: %s", r.path)
	}

	index := map[string]int{}
	for i, header := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(header))] = i
	}

	missing := []string{}
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns in partners file: %s", strings.Join(missing, ", "))
	}

	out := make([]internal.PartnerRow, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		cell := func(col string) string {
			i := index[col]
			if i >= len(cells) {
				return ""
			}
			return cells[i]
		}
		out = append(out, internal.PartnerRow{
			Name:            cell("nom_librairie"),
			Address:         cell("adresse"),
			Postcode:        cell("code_postal"),
			City:            cell("ville"),
			ContactName:     cell("contact_nom"),
			ContactEmail:    cell("contact_email"),
			ContactPhone:    cell("contact_telephone"),
			AnnualRevenue:   cell("ca_annuel"),
			PartnershipDate: cell("date_partenariat"),
			Specialty:       cell("specialite"),
		})
	}
	return out, nil
}
