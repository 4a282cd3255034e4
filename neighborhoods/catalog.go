package neighborhoods

import (
	"github.com/paulmach/orb"

	"poi-explorer/models"
)

const defaultZoom = 13.8

// Catalog is the built-in neighborhood list. The first entry is the default.
var Catalog = []models.Neighborhood{
	{
		ID:          "lake-nona-south",
		Name:        "Lake Nona South",
		Center:      orb.Point{-81.2737, 28.3722},
		DefaultZoom: defaultZoom,
		Boundary:    square(-81.298, 28.338, -81.246, 28.398),
		Bounds:      bound(-81.32, 28.32, -81.22, 28.42),
	},
	{
		ID:          "river-oaks",
		Name:        "River Oaks",
		Center:      orb.Point{-97.1176, 33.1423},
		DefaultZoom: defaultZoom,
		Boundary:    square(-97.143, 33.117, -97.092, 33.168),
		Bounds:      bound(-97.16, 33.09, -97.08, 33.20),
	},
	{
		ID:          "government-hill",
		Name:        "Government Hill",
		Center:      orb.Point{-98.4611, 29.4401},
		DefaultZoom: defaultZoom,
		Boundary:    square(-98.487, 29.414, -98.435, 29.466),
		Bounds:      bound(-98.51, 29.39, -98.41, 29.49),
	},
	{
		ID:          "north-hollywood",
		Name:        "North Hollywood",
		Center:      orb.Point{-118.3904, 34.1896},
		DefaultZoom: defaultZoom,
		Boundary:    square(-118.416, 34.163, -118.365, 34.216),
		Bounds:      bound(-118.44, 34.14, -118.34, 34.24),
	},
	{
		ID:          "shadyside",
		Name:        "Shadyside",
		Center:      orb.Point{-79.9323, 40.4535},
		DefaultZoom: defaultZoom,
		Boundary:    square(-79.958, 40.427, -79.907, 40.480),
		Bounds:      bound(-79.98, 40.40, -79.88, 40.51),
	},
	{
		ID:          "downtown-orlando",
		Name:        "Downtown Orlando",
		Center:      orb.Point{-81.379, 28.538},
		DefaultZoom: defaultZoom,
		Boundary:    square(-81.395, 28.520, -81.360, 28.555),
		Bounds:      bound(-81.42, 28.50, -81.34, 28.58),
	},
	{
		ID:          "winter-park",
		Name:        "Winter Park",
		Center:      orb.Point{-81.353, 28.599},
		DefaultZoom: defaultZoom,
		Boundary:    square(-81.375, 28.580, -81.330, 28.615),
		Bounds:      bound(-81.40, 28.56, -81.31, 28.64),
	},
}

// square builds a closed ring starting at the north-west corner and running
// clockwise, the way the outlines are drawn on the map.
func square(west, south, east, north float64) orb.Ring {
	return orb.Ring{
		{west, north},
		{east, north},
		{east, south},
		{west, south},
		{west, north},
	}
}

func bound(west, south, east, north float64) orb.Bound {
	return orb.Bound{Min: orb.Point{west, south}, Max: orb.Point{east, north}}
}
