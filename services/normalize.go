package services

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"poi-explorer/models"
	"poi-explorer/search"
)

const defaultPOIName = "Local Spot"

// poiNamespace seeds the name-based UUIDs given to candidates the provider
// returned without an id, so reruns over the same response agree.
var poiNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://poi-explorer/pois"))

// candidate is a provider result that has usable coordinates. index points
// back into the provider Results it came from.
type candidate struct {
	index int
	point orb.Point
}

func locateCandidate(c candidate) (orb.Point, bool) { return c.point, true }

// locate returns the candidates that carry coordinates, in provider order,
// and how many were dropped for lacking them.
func locate(results search.Results) (located []candidate, dropped int) {
	switch results.Kind {
	case search.KindStructured:
		for i, r := range results.Structured {
			if p, ok := r.Location(); ok {
				located = append(located, candidate{index: i, point: p})
			} else {
				dropped++
			}
		}
	case search.KindFreeText:
		for i, r := range results.FreeText {
			if p, ok := r.Location(); ok {
				located = append(located, candidate{index: i, point: p})
			} else {
				dropped++
			}
		}
	}
	return located, dropped
}

// normalize turns qualified candidates into POIs, keeping their order and the
// first occurrence of each id.
func normalize(results search.Results, picks []candidate, n models.Neighborhood, category string) []models.POI {
	pois := make([]models.POI, 0, len(picks))
	seen := make(map[string]struct{}, len(picks))
	for _, c := range picks {
		var poi models.POI
		switch results.Kind {
		case search.KindStructured:
			poi = structuredPOI(results.Structured[c.index], c.point, n, category)
		case search.KindFreeText:
			poi = freeTextPOI(results.FreeText[c.index], c.point, n, category)
		default:
			continue
		}
		if _, dup := seen[poi.ID]; dup {
			continue
		}
		seen[poi.ID] = struct{}{}
		pois = append(pois, poi)
	}
	return pois
}

func structuredPOI(r search.StructuredResult, p orb.Point, n models.Neighborhood, category string) models.POI {
	props := r.Properties
	name := firstNonEmpty(props.Name, props.NamePreferred, defaultPOIName)

	var providerCategory string
	if len(props.POICategory) > 0 {
		providerCategory = props.POICategory[0]
	}

	return models.POI{
		ID:          firstNonEmpty(props.MapboxID, fallbackID(name, p)),
		Name:        name,
		Address:     firstNonEmpty(props.Address, firstSegment(props.FullAddress), firstSegment(props.PlaceFormatted), n.Name),
		Category:    firstNonEmpty(providerCategory, search.Phrase(category)),
		Coordinates: p,
	}
}

func freeTextPOI(r search.FreeTextResult, p orb.Point, n models.Neighborhood, category string) models.POI {
	name := firstNonEmpty(r.Text, firstSegment(r.PlaceName), defaultPOIName)

	return models.POI{
		ID:          firstNonEmpty(r.ID, fallbackID(name, p)),
		Name:        name,
		Address:     firstNonEmpty(r.Properties.Address, firstSegment(r.PlaceName), n.Name),
		Category:    firstNonEmpty(r.Properties.Category, search.Phrase(category)),
		Coordinates: p,
	}
}

func fallbackID(name string, p orb.Point) string {
	key := fmt.Sprintf("%s|%.6f|%.6f", name, p.Lon(), p.Lat())
	return uuid.NewSHA1(poiNamespace, []byte(key)).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstSegment(s string) string {
	head, _, _ := strings.Cut(s, ",")
	return strings.TrimSpace(head)
}

var priceLevels = []string{"$", "$$", "$$$"}

// Placeholders fills the presentation-only POI fields with stand-in values.
// None of them come from a business data source.
type Placeholders struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewPlaceholders(seed1, seed2 uint64) *Placeholders {
	return &Placeholders{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// Fill sets rating in [4.0, 4.9], reviews in [50, 549], a price tier, an
// open flag and an illustrative image URL.
func (p *Placeholders) Fill(poi *models.POI, category string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	poi.Rating = math.Round((4+p.rng.Float64()*0.9)*10) / 10
	poi.Reviews = p.rng.IntN(500) + 50
	poi.PriceLevel = priceLevels[p.rng.IntN(len(priceLevels))]
	poi.IsOpen = p.rng.Float64() > 0.3
	poi.ImageURL = fmt.Sprintf("https://loremflickr.com/400/250/%s,modern/all?lock=%d",
		strings.ReplaceAll(category, "-", ","), len(poi.ID))
}
