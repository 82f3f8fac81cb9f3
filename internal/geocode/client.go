package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"bookpipe/internal"
	"bookpipe/internal/scrape"
)

// Client talks to the address-search API (GeoJSON feature collection).
type Client struct {
	fetcher *scrape.Fetcher
	baseURL string
	log     zerolog.Logger
}

type featureCollection struct {
	Features []struct {
		Properties struct {
			ID       string  `json:"id"`
			Label    string  `json:"label"`
			Score    float64 `json:"score"`
			Type     string  `json:"type"`
			City     string  `json:"city"`
			Postcode string  `json:"postcode"`
			Context  string  `json:"context"`
		} `json:"properties"`
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

func NewClient(fetcher *scrape.Fetcher, baseURL string, log zerolog.Logger) *Client {
	return &Client{fetcher: fetcher, baseURL: baseURL, log: log}
}

func (c *Client) Search(ctx context.Context, query string, limit int) ([]internal.Address, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u.RawQuery = q.Encode()

	body, err := c.fetcher.Get(ctx, u.String())
	if err != nil {
		return nil, err
	}

	var payload featureCollection
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("address api: %w", err)
	}

	out := make([]internal.Address, 0, len(payload.Features))
	for _, feature := range payload.Features {
		addr := internal.Address{
			ID:       feature.Properties.ID,
			Label:    feature.Properties.Label,
			Score:    feature.Properties.Score,
			Type:     feature.Properties.Type,
			City:     feature.Properties.City,
			Postcode: feature.Properties.Postcode,
			Context:  feature.Properties.Context,
		}
		// GeoJSON order is lon, lat.
		if len(feature.Geometry.Coordinates) == 2 {
			lon := feature.Geometry.Coordinates[0]
			lat := feature.Geometry.Coordinates[1]
			addr.Longitude = &lon
			addr.Latitude = &lat
		}
		out = append(out, addr)
	}
	return out, nil
}
