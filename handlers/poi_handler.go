package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/paulmach/orb/geojson"

	"poi-explorer/middleware"
	"poi-explorer/models"
	"poi-explorer/search"
	"poi-explorer/services"
	"poi-explorer/utils/errors"
)

const noResultsMessage = "No locations found nearby. Try another category."

type Explorer interface {
	Explore(ctx context.Context, owner, neighborhoodID, category string) (*models.DiscoveryResult, error)
}

type MarkerSource interface {
	FeatureCollection(owner string) *geojson.FeatureCollection
}

type POIHandler struct {
	explorer    Explorer
	credentials services.CredentialStore
	markers     MarkerSource
}

type POIResponse struct {
	Neighborhood     string               `json:"neighborhood"`
	NeighborhoodName string               `json:"neighborhood_name"`
	Category         string               `json:"category"`
	Tier             int                  `json:"tier"`
	Count            int                  `json:"count"`
	POIs             []models.POI         `json:"pois"`
	Viewport         [2][2]float64        `json:"viewport"` // [[west, south], [east, north]]
	Empty            bool                 `json:"empty"`
	Message          string               `json:"message,omitempty"`
	Attempts         []models.TierAttempt `json:"attempts,omitempty"`
	Cached           bool                 `json:"cached,omitempty"`
}

type CategoryResponse struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Token   string `json:"token"`
	Default bool   `json:"default,omitempty"`
}

func NewPOIHandler(explorer Explorer, credentials services.CredentialStore, markers MarkerSource) *POIHandler {
	return &POIHandler{explorer: explorer, credentials: credentials, markers: markers}
}

// GetPOIs runs one discovery cycle for the caller.
func (h *POIHandler) GetPOIs(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	neighborhoodID := r.URL.Query().Get("neighborhood")
	category := r.URL.Query().Get("category")

	result, err := h.explorer.Explore(r.Context(), userID, neighborhoodID, category)
	switch {
	case stderrors.Is(err, services.ErrNoCredential):
		middleware.WriteError(w, errors.ErrNoCredential)
		return
	case stderrors.Is(err, services.ErrStaleSession):
		middleware.WriteError(w, errors.ErrStaleRequest)
		return
	case err != nil:
		middleware.WriteError(w, err)
		return
	}

	response := POIResponse{
		Neighborhood:     result.NeighborhoodID,
		NeighborhoodName: result.NeighborhoodName,
		Category:         result.Category,
		Tier:             result.Tier,
		Count:            len(result.POIs),
		POIs:             result.POIs,
		Viewport: [2][2]float64{
			{result.Viewport.Min.Lon(), result.Viewport.Min.Lat()},
			{result.Viewport.Max.Lon(), result.Viewport.Max.Lat()},
		},
		Empty:    result.Empty,
		Attempts: result.Attempts,
		Cached:   result.Cached,
	}
	if response.POIs == nil {
		response.POIs = []models.POI{}
	}
	if result.Empty {
		response.Message = noResultsMessage
	}
	writeJSON(w, http.StatusOK, response)
}

// GetMarkers returns the caller's installed marker set as GeoJSON.
func (h *POIHandler) GetMarkers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, h.markers.FeatureCollection(userID))
}

// SaveToken stores the caller's provider access token.
func (h *POIHandler) SaveToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	var input struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	if err := h.credentials.Save(r.Context(), userID, input.Token); err != nil {
		if stderrors.Is(err, services.ErrEmptyCredential) {
			middleware.WriteError(w, errors.ErrInvalidInput.WithDetails(err.Error()))
			return
		}
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Token saved"})
}

// ListCategories returns the logical categories in display order.
func (h *POIHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := make([]CategoryResponse, 0, len(search.Categories))
	for _, c := range search.Categories {
		categories = append(categories, CategoryResponse{
			ID:      c,
			Label:   search.Phrase(c),
			Token:   search.ResolveCategory(c),
			Default: c == search.DefaultCategory,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}
