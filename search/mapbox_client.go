package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

const DefaultBaseURL = "https://api.mapbox.com"

var ErrMissingAccessToken = errors.New("mapbox: access token is required")

// MapboxClient implements Provider against the Mapbox Search Box category
// endpoint (ModeCategory) and the Geocoding v5 places endpoint (ModeText).
type MapboxClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewMapboxClient(baseURL string, timeout time.Duration) *MapboxClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &MapboxClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type structuredResponse struct {
	Features []StructuredResult `json:"features"`
}

type freeTextResponse struct {
	Features []FreeTextResult `json:"features"`
}

func (c *MapboxClient) Search(ctx context.Context, q Query) (Results, error) {
	if q.AccessToken == "" {
		return Results{}, ErrMissingAccessToken
	}

	switch q.Mode {
	case ModeCategory:
		var resp structuredResponse
		if err := c.get(ctx, c.categoryURL(q), &resp); err != nil {
			return Results{}, fmt.Errorf("mapbox category %s: %w", q.Token, err)
		}
		return Results{Kind: KindStructured, Structured: resp.Features}, nil
	case ModeText:
		var resp freeTextResponse
		if err := c.get(ctx, c.textURL(q), &resp); err != nil {
			return Results{}, fmt.Errorf("mapbox places %q: %w", q.Phrase, err)
		}
		return Results{Kind: KindFreeText, FreeText: resp.Features}, nil
	default:
		return Results{}, fmt.Errorf("mapbox: unsupported query mode %s", q.Mode)
	}
}

func (c *MapboxClient) categoryURL(q Query) string {
	params := c.commonParams(q)
	if q.BBox != nil {
		params.Set("bbox", formatBound(*q.BBox))
	}
	return c.baseURL + "/search/searchbox/v1/category/" + url.PathEscape(q.Token) + "?" + params.Encode()
}

func (c *MapboxClient) textURL(q Query) string {
	params := c.commonParams(q)
	params.Set("types", "poi")
	if q.BBox != nil {
		params.Set("bbox", formatBound(*q.BBox))
	}
	return c.baseURL + "/geocoding/v5/mapbox.places/" + url.PathEscape(q.Phrase) + ".json?" + params.Encode()
}

func (c *MapboxClient) commonParams(q Query) url.Values {
	params := url.Values{}
	params.Set("access_token", q.AccessToken)
	params.Set("proximity", formatPoint(q.Proximity))
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	return params
}

func (c *MapboxClient) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func formatPoint(p orb.Point) string {
	return formatFloat(p.Lon()) + "," + formatFloat(p.Lat())
}

func formatBound(b orb.Bound) string {
	return strings.Join([]string{
		formatFloat(b.Min.Lon()),
		formatFloat(b.Min.Lat()),
		formatFloat(b.Max.Lon()),
		formatFloat(b.Max.Lat()),
	}, ",")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
