// Package geo holds the stateless geometry used to qualify candidate places
// against a neighborhood: rectangle containment, haversine distance and the
// filters built on them.
package geo

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// EarthRadiusMeters is the mean Earth radius used by DistanceMeters.
const EarthRadiusMeters = 6371000.0

// Locator extracts coordinates from an item. ok is false when the item has no
// usable coordinates.
type Locator[T any] func(item T) (p orb.Point, ok bool)

// ContainsPoint reports whether p lies inside bounds. All four edges are
// inclusive.
func ContainsPoint(bounds orb.Bound, p orb.Point) bool {
	return bounds.Min.Lon() <= p.Lon() && p.Lon() <= bounds.Max.Lon() &&
		bounds.Min.Lat() <= p.Lat() && p.Lat() <= bounds.Max.Lat()
}

// DistanceMeters returns the great-circle distance between a and b using the
// haversine formula. Inputs are [lng, lat] in degrees.
func DistanceMeters(a, b orb.Point) float64 {
	lat1 := toRad(a.Lat())
	lat2 := toRad(b.Lat())
	dLat := toRad(b.Lat() - a.Lat())
	dLon := toRad(b.Lon() - a.Lon())

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// FilterWithinRadius keeps the items within radiusMeters of center and orders
// them by ascending distance. Items at equal distance keep their input order.
func FilterWithinRadius[T any](items []T, center orb.Point, radiusMeters float64, locate Locator[T]) []T {
	type ranked struct {
		item     T
		distance float64
	}

	kept := make([]ranked, 0, len(items))
	for _, item := range items {
		p, ok := locate(item)
		if !ok {
			continue
		}
		d := DistanceMeters(p, center)
		if d <= radiusMeters {
			kept = append(kept, ranked{item: item, distance: d})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].distance < kept[j].distance
	})

	out := make([]T, len(kept))
	for i, r := range kept {
		out[i] = r.item
	}
	return out
}

// FilterWithinBounds keeps the items whose coordinates fall inside bounds,
// preserving input order. Items without coordinates are dropped.
func FilterWithinBounds[T any](items []T, bounds orb.Bound, locate Locator[T]) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		p, ok := locate(item)
		if !ok || !ContainsPoint(bounds, p) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// BoundOf returns the smallest rectangle enclosing points. ok is false for an
// empty input.
func BoundOf(points []orb.Point) (orb.Bound, bool) {
	if len(points) == 0 {
		return orb.Bound{}, false
	}
	return orb.MultiPoint(points).Bound(), true
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
