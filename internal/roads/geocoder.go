package roads

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Place is the slice of a reverse-geocoding response this service cares
// about: the OSM class/type tag pair and something displayable.
type Place struct {
	Class string
	Type  string
	Name  string
}

type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (Place, error)
}

// NominatimClient talks to a Nominatim-compatible /reverse endpoint.
type NominatimClient struct {
	baseURL string
	http    *http.Client
}

func NewNominatimClient(baseURL string) *NominatimClient {
	return &NominatimClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type reverseResponse struct {
	Category    string `json:"category"`
	Class       string `json:"class"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Address     struct {
		Road string `json:"road"`
	} `json:"address"`
}

func (c *NominatimClient) Reverse(ctx context.Context, lat, lng float64) (Place, error) {
	endpoint := fmt.Sprintf("%s/reverse?format=jsonv2&lat=%s&lon=%s",
		c.baseURL,
		url.QueryEscape(fmt.Sprintf("%f", lat)),
		url.QueryEscape(fmt.Sprintf("%f", lng)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Place{}, err
	}
	req.Header.Set("User-Agent", "fleetwatch/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return Place{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Place{}, fmt.Errorf("reverse geocode: unexpected status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Place{}, fmt.Errorf("reverse geocode: decode: %w", err)
	}

	place := Place{Class: body.Category, Type: body.Type}
	if place.Class == "" {
		// older nominatim payloads use "class" instead of "category"
		place.Class = body.Class
	}
	switch {
	case body.Address.Road != "":
		place.Name = body.Address.Road
	case body.Name != "":
		place.Name = body.Name
	default:
		place.Name = body.DisplayName
	}
	return place, nil
}
