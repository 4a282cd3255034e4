package models

import "github.com/paulmach/orb"

// POI is the canonical place handed to the presentation layer.
// Rating, Reviews, PriceLevel, IsOpen and ImageURL are synthesized placeholders,
// not provider data.
type POI struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Name        string    `json:"name" bson:"name"`
	Address     string    `json:"address" bson:"address"`
	Category    string    `json:"category" bson:"category"`
	Coordinates orb.Point `json:"coordinates" bson:"coordinates"` // [lng, lat]
	Rating      float64   `json:"rating" bson:"rating"`
	Reviews     int       `json:"reviews" bson:"reviews"`
	PriceLevel  string    `json:"price_level,omitempty" bson:"price_level,omitempty"`
	IsOpen      bool      `json:"is_open" bson:"is_open"`
	ImageURL    string    `json:"image_url" bson:"image_url"`
}
