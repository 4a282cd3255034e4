package models

import "github.com/paulmach/orb"

// TierAttempt records one provider call made while discovering.
type TierAttempt struct {
	Tier      int    `json:"tier"`
	Mode      string `json:"mode"`
	Raw       int    `json:"raw"`
	Qualified int    `json:"qualified"`
	Error     string `json:"error,omitempty"`
}

// DiscoveryResult is the finalized output of one discovery cycle. Tier is the
// tier whose qualified set was used, 0 when Empty.
type DiscoveryResult struct {
	NeighborhoodID   string        `json:"neighborhood_id"`
	NeighborhoodName string        `json:"neighborhood_name"`
	Category         string        `json:"category"`
	Tier             int           `json:"tier"`
	POIs             []POI         `json:"pois"`
	Viewport         orb.Bound     `json:"viewport"`
	Empty            bool          `json:"empty"`
	Attempts         []TierAttempt `json:"attempts,omitempty"`
	Cached           bool          `json:"cached,omitempty"`
}

// IDs returns the POI ids in result order.
func (r *DiscoveryResult) IDs() []string {
	ids := make([]string, len(r.POIs))
	for i, p := range r.POIs {
		ids[i] = p.ID
	}
	return ids
}
