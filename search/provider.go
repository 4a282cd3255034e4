package search

import (
	"context"
	"math"

	"github.com/paulmach/orb"
)

type Mode int

const (
	ModeCategory Mode = iota + 1
	ModeText
)

func (m Mode) String() string {
	switch m {
	case ModeCategory:
		return "category"
	case ModeText:
		return "text"
	default:
		return "unknown"
	}
}

// Query is the provider-neutral description of one search call.
type Query struct {
	Mode        Mode
	Token       string // ModeCategory
	Phrase      string // ModeText
	Proximity   orb.Point
	BBox        *orb.Bound
	Limit       int
	AccessToken string
}

// Provider runs a single search. Implementations return an error for
// transport failures, non-success responses and undecodable bodies.
type Provider interface {
	Search(ctx context.Context, q Query) (Results, error)
}

type Kind int

const (
	KindStructured Kind = iota + 1
	KindFreeText
)

// Results holds the candidates of one call. Exactly one of Structured and
// FreeText is populated, as selected by Kind.
type Results struct {
	Kind       Kind
	Structured []StructuredResult
	FreeText   []FreeTextResult
}

func (r Results) Len() int {
	switch r.Kind {
	case KindStructured:
		return len(r.Structured)
	case KindFreeText:
		return len(r.FreeText)
	}
	return 0
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type LngLat struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// StructuredResult is one feature of a category search response.
type StructuredResult struct {
	Type       string               `json:"type"`
	Geometry   *Geometry            `json:"geometry"`
	Properties StructuredProperties `json:"properties"`
}

type StructuredProperties struct {
	MapboxID       string   `json:"mapbox_id"`
	Name           string   `json:"name"`
	NamePreferred  string   `json:"name_preferred"`
	Address        string   `json:"address"`
	FullAddress    string   `json:"full_address"`
	PlaceFormatted string   `json:"place_formatted"`
	POICategory    []string `json:"poi_category"`
	Coordinates    *LngLat  `json:"coordinates"`
}

// Location prefers the feature geometry and falls back to the
// properties coordinates.
func (r StructuredResult) Location() (orb.Point, bool) {
	if r.Geometry != nil {
		if p, ok := pointOf(r.Geometry.Coordinates); ok {
			return p, true
		}
	}
	if c := r.Properties.Coordinates; c != nil {
		return validPoint(orb.Point{c.Longitude, c.Latitude})
	}
	return orb.Point{}, false
}

// FreeTextResult is one feature of a geocoding response.
type FreeTextResult struct {
	ID         string             `json:"id"`
	Text       string             `json:"text"`
	PlaceName  string             `json:"place_name"`
	Center     []float64          `json:"center"`
	Geometry   *Geometry          `json:"geometry"`
	Properties FreeTextProperties `json:"properties"`
}

type FreeTextProperties struct {
	Address  string `json:"address"`
	Category string `json:"category"`
}

// Location prefers the feature geometry and falls back to center.
func (r FreeTextResult) Location() (orb.Point, bool) {
	if r.Geometry != nil {
		if p, ok := pointOf(r.Geometry.Coordinates); ok {
			return p, true
		}
	}
	return pointOf(r.Center)
}

func pointOf(c []float64) (orb.Point, bool) {
	if len(c) < 2 {
		return orb.Point{}, false
	}
	return validPoint(orb.Point{c[0], c[1]})
}

func validPoint(p orb.Point) (orb.Point, bool) {
	lng, lat := p.Lon(), p.Lat()
	if math.IsNaN(lng) || math.IsNaN(lat) || math.Abs(lng) > 180 || math.Abs(lat) > 90 {
		return orb.Point{}, false
	}
	return p, true
}
