// Package neighborhoods owns the catalog of explorable neighborhoods for the
// lifetime of the process.
package neighborhoods

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"poi-explorer/geo"
	"poi-explorer/models"
)

var (
	ErrEmptyRegistry       = errors.New("neighborhood registry is empty")
	ErrInvalidNeighborhood = errors.New("invalid neighborhood")
)

// Registry is an immutable, ordered set of neighborhoods.
type Registry struct {
	items []models.Neighborhood
	byID  map[string]int
}

// NewRegistry validates items and builds a registry preserving their order.
func NewRegistry(items []models.Neighborhood) (*Registry, error) {
	if len(items) == 0 {
		return nil, ErrEmptyRegistry
	}

	r := &Registry{
		items: make([]models.Neighborhood, 0, len(items)),
		byID:  make(map[string]int, len(items)),
	}
	for _, n := range items {
		if err := Validate(n); err != nil {
			return nil, err
		}
		if _, dup := r.byID[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidNeighborhood, n.ID)
		}
		r.byID[n.ID] = len(r.items)
		r.items = append(r.items, clone(n))
	}
	return r, nil
}

// Validate checks the invariants every catalog entry must hold.
func Validate(n models.Neighborhood) error {
	switch {
	case n.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidNeighborhood)
	case n.Name == "":
		return fmt.Errorf("%w: %s: missing name", ErrInvalidNeighborhood, n.ID)
	case len(n.Boundary) < 4 || !n.Boundary.Closed():
		return fmt.Errorf("%w: %s: boundary ring is not closed", ErrInvalidNeighborhood, n.ID)
	case n.Bounds.Min.Lon() > n.Bounds.Max.Lon() || n.Bounds.Min.Lat() > n.Bounds.Max.Lat():
		return fmt.Errorf("%w: %s: bounds southwest corner is north-east of its northeast corner", ErrInvalidNeighborhood, n.ID)
	case !geo.ContainsPoint(n.Bounds, n.Center):
		return fmt.Errorf("%w: %s: center %v outside bounds", ErrInvalidNeighborhood, n.ID, n.Center)
	case !(n.DefaultZoom > 0):
		return fmt.Errorf("%w: %s: default zoom must be positive", ErrInvalidNeighborhood, n.ID)
	}
	return nil
}

// Lookup returns the neighborhood with the given id.
func (r *Registry) Lookup(id string) (models.Neighborhood, bool) {
	i, ok := r.byID[id]
	if !ok {
		return models.Neighborhood{}, false
	}
	return clone(r.items[i]), true
}

// Default returns the first registered neighborhood.
func (r *Registry) Default() models.Neighborhood {
	return clone(r.items[0])
}

// Resolve looks up id and falls back to the default neighborhood.
func (r *Registry) Resolve(id string) models.Neighborhood {
	if n, ok := r.Lookup(id); ok {
		return n
	}
	return r.Default()
}

// All returns every neighborhood in registration order.
func (r *Registry) All() []models.Neighborhood {
	out := make([]models.Neighborhood, len(r.items))
	for i, n := range r.items {
		out[i] = clone(n)
	}
	return out
}

// Nearest returns the neighborhood whose center is closest to p.
func (r *Registry) Nearest(p orb.Point) models.Neighborhood {
	best := 0
	bestDistance := math.Inf(1)
	for i, n := range r.items {
		if d := geo.DistanceMeters(p, n.Center); d < bestDistance {
			best, bestDistance = i, d
		}
	}
	return clone(r.items[best])
}

func clone(n models.Neighborhood) models.Neighborhood {
	n.Boundary = n.Boundary.Clone()
	return n
}
