// Package search maps logical categories to provider queries and talks to
// the external place-search provider.
package search

import (
	"strings"

	"github.com/paulmach/orb"
)

const (
	DefaultCategory = "highlights"
	// DefaultToken is used for any category the table does not know.
	DefaultToken = "restaurant"
)

// Categories lists the logical categories in display order.
var Categories = []string{
	"highlights",
	"grocery",
	"food-drink",
	"parks",
	"shopping",
	"sports",
	"entertainment",
}

var categoryTokens = map[string]string{
	"highlights":    "tourist_attraction",
	"grocery":       "grocery",
	"food-drink":    "food_and_drink",
	"parks":         "park",
	"shopping":      "shopping",
	"sports":        "fitness_center",
	"entertainment": "entertainment",
}

var separators = strings.NewReplacer("-", " ", "_", " ")

// ResolveCategory returns the provider category token for a logical category.
func ResolveCategory(category string) string {
	if token, ok := categoryTokens[category]; ok {
		return token
	}
	return DefaultToken
}

// IsKnownCategory reports whether category is one of Categories.
func IsKnownCategory(category string) bool {
	_, ok := categoryTokens[category]
	return ok
}

// Phrase turns a logical category into a free-text phrase ("food-drink" ->
// "food drink").
func Phrase(category string) string {
	return strings.TrimSpace(separators.Replace(category))
}

// CategoryQuery builds a structured query. bbox may be nil.
func CategoryQuery(category string, proximity orb.Point, bbox *orb.Bound, limit int, accessToken string) Query {
	return Query{
		Mode:        ModeCategory,
		Token:       ResolveCategory(category),
		Proximity:   proximity,
		BBox:        bbox,
		Limit:       limit,
		AccessToken: accessToken,
	}
}

// TextQuery builds a free-text query biased towards proximity.
func TextQuery(category string, proximity orb.Point, limit int, accessToken string) Query {
	return Query{
		Mode:        ModeText,
		Phrase:      Phrase(category),
		Proximity:   proximity,
		Limit:       limit,
		AccessToken: accessToken,
	}
}
