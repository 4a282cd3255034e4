// Package presentation holds the hand-off point between discovery and
// whatever renders markers and cards.
package presentation

import (
	"errors"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"poi-explorer/models"
)

var ErrNotCleared = errors.New("presentation: install without clearing previous markers")

// Adapter receives finalized discovery results. Clear must be called for an
// owner before every Install.
type Adapter interface {
	Clear(owner string)
	Install(owner string, generation uint64, result *models.DiscoveryResult) error
}

type Marker struct {
	POIID       string    `json:"poi_id"`
	Coordinates orb.Point `json:"coordinates"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle"`
}

// Board is the installed marker set of one owner.
type Board struct {
	Generation uint64
	Result     *models.DiscoveryResult
	Markers    []Marker
}

// MarkerBoard is the in-process Adapter. Each owner has at most one board and
// boards are only ever replaced whole.
type MarkerBoard struct {
	mu      sync.RWMutex
	boards  map[string]*Board
	cleared map[string]bool
}

func NewMarkerBoard() *MarkerBoard {
	return &MarkerBoard{
		boards:  make(map[string]*Board),
		cleared: make(map[string]bool),
	}
}

func (b *MarkerBoard) Clear(owner string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.boards, owner)
	b.cleared[owner] = true
}

func (b *MarkerBoard) Install(owner string, generation uint64, result *models.DiscoveryResult) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.cleared[owner] {
		return ErrNotCleared
	}
	delete(b.cleared, owner)

	markers := make([]Marker, len(result.POIs))
	for i, poi := range result.POIs {
		markers[i] = Marker{
			POIID:       poi.ID,
			Coordinates: poi.Coordinates,
			Title:       poi.Name,
			Subtitle:    poi.Address,
		}
	}
	b.boards[owner] = &Board{Generation: generation, Result: result, Markers: markers}
	return nil
}

// Current returns the installed board for owner.
func (b *MarkerBoard) Current(owner string) (Board, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	board, ok := b.boards[owner]
	if !ok {
		return Board{}, false
	}
	return *board, true
}

// FeatureCollection renders the installed markers of owner as GeoJSON points.
// An owner without markers gets an empty collection.
func (b *MarkerBoard) FeatureCollection(owner string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	board, ok := b.Current(owner)
	if !ok {
		return fc
	}
	for _, m := range board.Markers {
		f := geojson.NewFeature(m.Coordinates)
		f.ID = m.POIID
		f.Properties["title"] = m.Title
		f.Properties["subtitle"] = m.Subtitle
		fc.Append(f)
	}
	return fc
}
