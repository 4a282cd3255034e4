package models

// DiscoverySession identifies one discovery cycle for an owner. Generation
// increases monotonically per owner; a result may only be installed while its
// session's generation is still the newest.
type DiscoverySession struct {
	Owner          string `json:"owner"`
	NeighborhoodID string `json:"neighborhood_id"`
	Category       string `json:"category"`
	Generation     uint64 `json:"generation"`
}
