package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/findone/findone-backend/config"
	"github.com/findone/findone-backend/utils"
)

const (
	searchLimit   = 5
	requestTimout = 10 * time.Second
	cacheTTL      = 24 * time.Hour
)

// Place is a geocoding result as the client consumes it.
type Place struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Address     struct {
		Road    string `json:"road,omitempty"`
		Suburb  string `json:"suburb,omitempty"`
		City    string `json:"city,omitempty"`
		State   string `json:"state,omitempty"`
		Country string `json:"country,omitempty"`
	} `json:"address"`
}

// Client talks to a Nominatim server. Responses are cached in Redis so
// repeated searches for the same text do not hit the rate-limited API.
type Client struct {
	baseURL      string
	countryCodes string
	http         *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:      cfg.NominatimBaseURL,
		countryCodes: cfg.GeoCountryCodes,
		http:         &http.Client{Timeout: requestTimout},
	}
}

// Search forward-geocodes free text. Failures degrade to an empty result
// so the caller can still render the view.
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	if query == "" {
		return []Place{}, nil
	}

	cacheKey := "geocode:search:" + c.countryCodes + ":" + query
	if cached, err := utils.GetToken(cacheKey); err == nil {
		var places []Place
		if json.Unmarshal([]byte(cached), &places) == nil {
			return places, nil
		}
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)
	params.Set("countrycodes", c.countryCodes)
	params.Set("addressdetails", "1")
	params.Set("limit", fmt.Sprintf("%d", searchLimit))

	var places []Place
	if err := c.get(ctx, c.baseURL+"/search?"+params.Encode(), &places); err != nil {
		log.Printf("geo: search %q: %v", query, err)
		return []Place{}, nil
	}

	c.cache(cacheKey, places)
	return places, nil
}

// Reverse resolves coordinates into a place description.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	cacheKey := fmt.Sprintf("geocode:reverse:%.5f:%.5f", lat, lon)
	if cached, err := utils.GetToken(cacheKey); err == nil {
		var place Place
		if json.Unmarshal([]byte(cached), &place) == nil {
			return &place, nil
		}
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))

	var place Place
	if err := c.get(ctx, c.baseURL+"/reverse?"+params.Encode(), &place); err != nil {
		log.Printf("geo: reverse %.5f,%.5f: %v", lat, lon, err)
		return nil, err
	}

	c.cache(cacheKey, place)
	return &place, nil
}

func (c *Client) get(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "findone-backend/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) cache(key string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := utils.SetToken(key, string(payload), cacheTTL); err != nil {
		log.Printf("geo: cache %s: %v", key, err)
	}
}
