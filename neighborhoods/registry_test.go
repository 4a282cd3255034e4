package neighborhoods

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"poi-explorer/geo"
	"poi-explorer/models"
)

func newCatalogRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(Catalog)
	if err != nil {
		t.Fatalf("NewRegistry(Catalog): %v", err)
	}
	return r
}

func TestCatalogInvariants(t *testing.T) {
	for _, n := range newCatalogRegistry(t).All() {
		if !geo.ContainsPoint(n.Bounds, n.Center) {
			t.Errorf("%s: center %v outside bounds %v", n.ID, n.Center, n.Bounds)
		}
		if !n.Boundary.Closed() {
			t.Errorf("%s: boundary ring is not closed", n.ID)
		}
	}
}

func TestRegistryDefaultIsFirstEntry(t *testing.T) {
	r := newCatalogRegistry(t)
	if got := r.Default().ID; got != "lake-nona-south" {
		t.Errorf("Default() = %s; want lake-nona-south", got)
	}
}

func TestRegistryLookupAndResolve(t *testing.T) {
	r := newCatalogRegistry(t)

	n, ok := r.Lookup("shadyside")
	if !ok || n.Name != "Shadyside" {
		t.Fatalf("Lookup(shadyside) = %+v, %v", n, ok)
	}

	if _, ok := r.Lookup("atlantis"); ok {
		t.Error("Lookup(atlantis) should not be found")
	}
	if got := r.Resolve("atlantis").ID; got != "lake-nona-south" {
		t.Errorf("Resolve(atlantis) = %s; want default", got)
	}
	if got := r.Resolve("winter-park").ID; got != "winter-park" {
		t.Errorf("Resolve(winter-park) = %s", got)
	}
}

func TestRegistryReturnsCopies(t *testing.T) {
	r := newCatalogRegistry(t)

	n := r.Default()
	n.Boundary[0] = orb.Point{0, 0}

	if r.Default().Boundary[0] == (orb.Point{0, 0}) {
		t.Error("mutating a returned boundary changed the registry")
	}
}

func TestRegistryNearest(t *testing.T) {
	r := newCatalogRegistry(t)

	// Near Rollins College.
	if got := r.Nearest(orb.Point{-81.348, 28.593}).ID; got != "winter-park" {
		t.Errorf("Nearest = %s; want winter-park", got)
	}
	// Near Carnegie Mellon.
	if got := r.Nearest(orb.Point{-79.943, 40.443}).ID; got != "shadyside" {
		t.Errorf("Nearest = %s; want shadyside", got)
	}
}

func TestNewRegistryRejectsInvalidEntries(t *testing.T) {
	valid := Catalog[0]

	openRing := valid
	openRing.ID = "open-ring"
	openRing.Boundary = valid.Boundary[:len(valid.Boundary)-1]

	centerOutside := valid
	centerOutside.ID = "center-outside"
	centerOutside.Center = orb.Point{0, 0}

	noZoom := valid
	noZoom.ID = "no-zoom"
	noZoom.DefaultZoom = 0

	tests := []struct {
		name  string
		items []models.Neighborhood
	}{
		{"open ring", []models.Neighborhood{openRing}},
		{"center outside bounds", []models.Neighborhood{centerOutside}},
		{"zero zoom", []models.Neighborhood{noZoom}},
		{"duplicate id", []models.Neighborhood{valid, valid}},
	}

	for _, tt := range tests {
		_, err := NewRegistry(tt.items)
		if !errors.Is(err, ErrInvalidNeighborhood) {
			t.Errorf("%s: expected ErrInvalidNeighborhood, got %v", tt.name, err)
		}
	}

	if _, err := NewRegistry(nil); !errors.Is(err, ErrEmptyRegistry) {
		t.Errorf("expected ErrEmptyRegistry, got %v", err)
	}
}
