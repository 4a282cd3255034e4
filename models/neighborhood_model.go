package models

import "github.com/paulmach/orb"

// Neighborhood is an immutable catalog entry. Bounds is the rectangular
// pan/zoom limit, Boundary the closed outline drawn on the map.
type Neighborhood struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Center      orb.Point `json:"center" bson:"center"`
	Boundary    orb.Ring  `json:"boundary" bson:"boundary"`
	Bounds      orb.Bound `json:"bounds" bson:"bounds"`
	DefaultZoom float64   `json:"default_zoom" bson:"default_zoom"`
}
