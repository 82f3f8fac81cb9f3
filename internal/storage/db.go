package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"bookpipe/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS books (
  sku TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  price_gbp REAL,
  price_eur REAL,
  rating INTEGER,
  category TEXT,
  image_url TEXT,
  product_url TEXT,
  scraped_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_books_category ON books(category);

CREATE TABLE IF NOT EXISTS quotes (
  id TEXT PRIMARY KEY,
  text TEXT NOT NULL,
  author TEXT,
  tags TEXT,
  text_normalized TEXT,
  tags_normalized TEXT,
  scraped_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_quotes_author ON quotes(author);

CREATE TABLE IF NOT EXISTS api_addresses (
  id TEXT PRIMARY KEY,
  label TEXT,
  score REAL,
  type TEXT,
  city TEXT,
  postcode TEXT,
  context TEXT,
  latitude REAL,
  longitude REAL,
  query TEXT,
  scraped_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_api_postcode ON api_addresses(postcode);

CREATE TABLE IF NOT EXISTS partners (
  id TEXT PRIMARY KEY,
  nom_librairie TEXT NOT NULL,
  adresse TEXT,
  code_postal TEXT,
  ville TEXT,
  contact_nom_hash TEXT,
  contact_email_hash TEXT,
  contact_telephone_hash TEXT,
  ca_annuel REAL,
  date_partenariat TEXT,
  specialite TEXT,
  latitude REAL,
  longitude REAL,
  scraped_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_partners_ville ON partners(ville);
CREATE INDEX IF NOT EXISTS idx_partners_postal ON partners(code_postal);
`

	if _, err := d.conn.Exec(schema); err != nil {
		return err
	}

	// Additive migration: the image mirror column arrived after the books
	// table first shipped.
	return d.ensureColumn("books", "minio_image_ref", "TEXT")
}

func (d *DB) ensureColumn(table, column, sqlType string) error {
	rows, err := d.conn.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notNull, pk int
		var dflt any
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return err
		}
		if name == column {
			return rows.Err()
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = d.conn.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, sqlType))
	return err
}

// Upserts are full replaces on identity conflict: every non-key column takes
// the incoming value, which makes a re-run of the whole pipeline safe.

func (d *DB) UpsertBook(rec internal.BookRecord) error {
	_, err := d.conn.Exec(`
INSERT INTO books (sku, title, price_gbp, price_eur, rating, category, image_url, minio_image_ref, product_url)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(sku) DO UPDATE SET
  title=excluded.title,
  price_gbp=excluded.price_gbp,
  price_eur=excluded.price_eur,
  rating=excluded.rating,
  category=excluded.category,
  image_url=excluded.image_url,
  minio_image_ref=excluded.minio_image_ref,
  product_url=excluded.product_url
`, rec.SKU, rec.Title, rec.PriceGBP, rec.PriceEUR, rec.Rating, rec.Category, rec.ImageURL, rec.ImageRef, rec.ProductURL)
	return err
}

func (d *DB) UpsertQuote(rec internal.QuoteRecord) error {
	tagsJSON, _ := json.Marshal(rec.Tags)
	tagsNormJSON, _ := json.Marshal(rec.TagsNormalized)
	_, err := d.conn.Exec(`
INSERT INTO quotes (id, text, author, tags, text_normalized, tags_normalized)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  text=excluded.text,
  author=excluded.author,
  tags=excluded.tags,
  text_normalized=excluded.text_normalized,
  tags_normalized=excluded.tags_normalized
`, rec.ID, rec.Text, rec.Author, string(tagsJSON), rec.TextNormalized, string(tagsNormJSON))
	return err
}

func (d *DB) UpsertAddress(rec internal.AddressRecord) error {
	_, err := d.conn.Exec(`
INSERT INTO api_addresses (id, label, score, type, city, postcode, context, latitude, longitude, query)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  label=excluded.label,
  score=excluded.score,
  type=excluded.type,
  city=excluded.city,
  postcode=excluded.postcode,
  context=excluded.context,
  latitude=excluded.latitude,
  longitude=excluded.longitude,
  query=excluded.query
`, rec.ID, rec.Label, rec.Score, rec.Type, rec.City, rec.Postcode, rec.Context, rec.Latitude, rec.Longitude, rec.Query)
	return err
}

func (d *DB) UpsertPartner(rec internal.PartnerRecord) error {
	_, err := d.conn.Exec(`
INSERT INTO partners (
  id, nom_librairie, adresse, code_postal, ville,
  contact_nom_hash, contact_email_hash, contact_telephone_hash,
  ca_annuel, date_partenariat, specialite, latitude, longitude
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  nom_librairie=excluded.nom_librairie,
  adresse=excluded.adresse,
  code_postal=excluded.code_postal,
  ville=excluded.ville,
  contact_nom_hash=excluded.contact_nom_hash,
  contact_email_hash=excluded.contact_email_hash,
  contact_telephone_hash=excluded.contact_telephone_hash,
  ca_annuel=excluded.ca_annuel,
  date_partenariat=excluded.date_partenariat,
  specialite=excluded.specialite,
  latitude=excluded.latitude,
  longitude=excluded.longitude
`, rec.ID, rec.Name, rec.Address, rec.Postcode, rec.City,
		rec.ContactNameHash, rec.ContactEmailHash, rec.ContactPhoneHash,
		rec.AnnualRevenue, rec.PartnershipDate, rec.Specialty, rec.Latitude, rec.Longitude)
	return err
}

func (d *DB) GetBook(sku string) (*internal.BookRecord, error) {
	var rec internal.BookRecord
	var rating sql.NullInt64
	var category, imageRef sql.NullString
	err := d.conn.QueryRow(`
SELECT sku, title, price_gbp, price_eur, rating, category, image_url, minio_image_ref, product_url
FROM books WHERE sku = ?
`, sku).Scan(&rec.SKU, &rec.Title, &rec.PriceGBP, &rec.PriceEUR, &rating, &category, &rec.ImageURL, &imageRef, &rec.ProductURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if rating.Valid {
		v := int(rating.Int64)
		rec.Rating = &v
	}
	if category.Valid {
		rec.Category = &category.String
	}
	if imageRef.Valid {
		rec.ImageRef = &imageRef.String
	}
	return &rec, nil
}

func (d *DB) GetQuote(id string) (*internal.QuoteRecord, error) {
	var rec internal.QuoteRecord
	var tagsJSON, tagsNormJSON string
	err := d.conn.QueryRow(`
SELECT id, text, author, tags, text_normalized, tags_normalized
FROM quotes WHERE id = ?
`, id).Scan(&rec.ID, &rec.Text, &rec.Author, &tagsJSON, &rec.TextNormalized, &tagsNormJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(tagsJSON), &rec.Tags)
	_ = json.Unmarshal([]byte(tagsNormJSON), &rec.TagsNormalized)
	return &rec, nil
}

func (d *DB) GetAddress(id string) (*internal.AddressRecord, error) {
	var rec internal.AddressRecord
	var lat, lon sql.NullFloat64
	err := d.conn.QueryRow(`
SELECT id, label, score, type, city, postcode, context, latitude, longitude, query
FROM api_addresses WHERE id = ?
`, id).Scan(&rec.ID, &rec.Label, &rec.Score, &rec.Type, &rec.City, &rec.Postcode, &rec.Context, &lat, &lon, &rec.Query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lat.Valid {
		rec.Latitude = &lat.Float64
	}
	if lon.Valid {
		rec.Longitude = &lon.Float64
	}
	return &rec, nil
}

func (d *DB) GetPartner(id string) (*internal.PartnerRecord, error) {
	var rec internal.PartnerRecord
	var nameHash, emailHash, phoneHash, date sql.NullString
	var revenue, lat, lon sql.NullFloat64
	err := d.conn.QueryRow(`
SELECT id, nom_librairie, adresse, code_postal, ville,
       contact_nom_hash, contact_email_hash, contact_telephone_hash,
       ca_annuel, date_partenariat, specialite, latitude, longitude
FROM partners WHERE id = ?
`, id).Scan(&rec.ID, &rec.Name, &rec.Address, &rec.Postcode, &rec.City,
		&nameHash, &emailHash, &phoneHash, &revenue, &date, &rec.Specialty, &lat, &lon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if nameHash.Valid {
		rec.ContactNameHash = &nameHash.String
	}
	if emailHash.Valid {
		rec.ContactEmailHash = &emailHash.String
	}
	if phoneHash.Valid {
		rec.ContactPhoneHash = &phoneHash.String
	}
	if revenue.Valid {
		rec.AnnualRevenue = &revenue.Float64
	}
	if date.Valid {
		rec.PartnershipDate = &date.String
	}
	if lat.Valid {
		rec.Latitude = &lat.Float64
	}
	if lon.Valid {
		rec.Longitude = &lon.Float64
	}
	return &rec, nil
}

func (d *DB) CountRows(table string) (int, error) {
	switch table {
	case "books", "quotes", "api_addresses", "partners":
	default:
		return 0, fmt.Errorf("unknown table: %s", table)
	}
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n)
	return n, err
}
