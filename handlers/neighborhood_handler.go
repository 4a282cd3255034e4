package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"poi-explorer/geo"
	"poi-explorer/middleware"
	"poi-explorer/models"
	"poi-explorer/neighborhoods"
	"poi-explorer/utils/errors"
)

const nearestSearchRadiusKm = 100

// NearestIndex finds the closest indexed neighborhood id. An empty id means
// none was found within radiusKm.
type NearestIndex interface {
	NearestID(ctx context.Context, p orb.Point, radiusKm float64) (string, error)
}

type NeighborhoodHandler struct {
	registry *neighborhoods.Registry
	index    NearestIndex
	logger   *zap.Logger
}

type NeighborhoodResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Center      orb.Point        `json:"center"`
	Bounds      [2]orb.Point     `json:"bounds"` // southwest, northeast
	DefaultZoom float64          `json:"default_zoom"`
	Boundary    *geojson.Feature `json:"boundary"`
}

type NearestNeighborhoodResponse struct {
	Neighborhood   NeighborhoodResponse `json:"neighborhood"`
	DistanceMeters float64              `json:"distance_meters"`
	Inside         bool                 `json:"inside"`
	Lat            float64              `json:"lat"`
	Lon            float64              `json:"lon"`
}

// NewNeighborhoodHandler creates the handler. index may be nil, in which case
// nearest lookups scan the registry.
func NewNeighborhoodHandler(registry *neighborhoods.Registry, index NearestIndex, logger *zap.Logger) *NeighborhoodHandler {
	return &NeighborhoodHandler{registry: registry, index: index, logger: logger}
}

func toNeighborhoodResponse(n models.Neighborhood) NeighborhoodResponse {
	boundary := geojson.NewFeature(orb.LineString(n.Boundary))
	boundary.Properties["id"] = n.ID
	boundary.Properties["name"] = n.Name

	return NeighborhoodResponse{
		ID:          n.ID,
		Name:        n.Name,
		Center:      n.Center,
		Bounds:      [2]orb.Point{n.Bounds.Min, n.Bounds.Max},
		DefaultZoom: n.DefaultZoom,
		Boundary:    boundary,
	}
}

func (h *NeighborhoodHandler) ListNeighborhoods(w http.ResponseWriter, r *http.Request) {
	all := h.registry.All()
	out := make([]NeighborhoodResponse, len(all))
	for i, n := range all {
		out[i] = toNeighborhoodResponse(n)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"neighborhoods": out,
		"default":       h.registry.Default().ID,
		"count":         len(out),
	})
}

func (h *NeighborhoodHandler) GetNeighborhood(w http.ResponseWriter, r *http.Request) {
	n, ok := h.registry.Lookup(mux.Vars(r)["id"])
	if !ok {
		middleware.WriteError(w, errors.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toNeighborhoodResponse(n))
}

func (h *NeighborhoodHandler) GetNearestNeighborhood(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	p := orb.Point{lon, lat}

	n := h.nearest(r.Context(), p)
	writeJSON(w, http.StatusOK, NearestNeighborhoodResponse{
		Neighborhood:   toNeighborhoodResponse(n),
		DistanceMeters: geo.DistanceMeters(p, n.Center),
		Inside:         geo.ContainsPoint(n.Bounds, p),
		Lat:            lat,
		Lon:            lon,
	})
}

// nearest prefers the Redis GEO index and falls back to scanning the registry.
func (h *NeighborhoodHandler) nearest(ctx context.Context, p orb.Point) models.Neighborhood {
	if h.index != nil {
		id, err := h.index.NearestID(ctx, p, nearestSearchRadiusKm)
		if err != nil {
			h.logger.Warn("neighborhood geo index unavailable", zap.Error(err))
		} else if n, ok := h.registry.Lookup(id); ok {
			return n
		}
	}
	return h.registry.Nearest(p)
}
