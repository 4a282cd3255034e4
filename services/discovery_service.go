package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"poi-explorer/geo"
	"poi-explorer/metrics"
	"poi-explorer/models"
	"poi-explorer/search"
)

const (
	// RadiusMeters bounds the relaxed second tier around the neighborhood center.
	RadiusMeters = 3000

	boundedLimit     = 12
	relaxedLimit     = 20
	freeTextLimit    = 10
	freeTextFallback = 8
)

var ErrNoCredential = errors.New("discovery: provider access credential is required")

type DiscoveryRequest struct {
	Neighborhood models.Neighborhood
	Category     string
	AccessToken  string
}

// Discoverer runs one discovery cycle.
type Discoverer interface {
	Discover(ctx context.Context, req DiscoveryRequest) (*models.DiscoveryResult, error)
}

// ResultCache stores finalized, non-empty discovery results.
type ResultCache interface {
	Get(ctx context.Context, key string) (*models.DiscoveryResult, bool)
	Set(ctx context.Context, key string, result *models.DiscoveryResult)
}

// DiscoveryService turns a neighborhood and category into a ranked POI list by
// trying three search tiers in order and keeping the first non-empty one.
type DiscoveryService struct {
	provider     search.Provider
	cache        ResultCache
	placeholders *Placeholders
	logger       *zap.Logger
}

// NewDiscoveryService creates a DiscoveryService. cache may be nil.
func NewDiscoveryService(provider search.Provider, cache ResultCache, placeholders *Placeholders, logger *zap.Logger) *DiscoveryService {
	return &DiscoveryService{
		provider:     provider,
		cache:        cache,
		placeholders: placeholders,
		logger:       logger,
	}
}

// tier is one step of the fallback sequence.
type tier struct {
	number  int
	query   search.Query
	qualify func([]candidate) []candidate
}

func (s *DiscoveryService) tiers(n models.Neighborhood, category, accessToken string) []tier {
	bounds := n.Bounds
	return []tier{
		{
			number: 1,
			query:  search.CategoryQuery(category, n.Center, &bounds, boundedLimit, accessToken),
			qualify: func(cs []candidate) []candidate {
				return geo.FilterWithinBounds(cs, n.Bounds, locateCandidate)
			},
		},
		{
			number: 2,
			query:  search.CategoryQuery(category, n.Center, nil, relaxedLimit, accessToken),
			qualify: func(cs []candidate) []candidate {
				return geo.FilterWithinRadius(cs, n.Center, RadiusMeters, locateCandidate)
			},
		},
		{
			number: 3,
			query:  search.TextQuery(category, n.Center, freeTextLimit, accessToken),
			qualify: func(cs []candidate) []candidate {
				if inside := geo.FilterWithinBounds(cs, n.Bounds, locateCandidate); len(inside) > 0 {
					return inside
				}
				if len(cs) > freeTextFallback {
					cs = cs[:freeTextFallback]
				}
				return cs
			},
		},
	}
}

// Discover runs the tiers until one yields qualified POIs. Provider failures
// only advance to the next tier; when every tier is empty the result has
// Empty set. The returned error is ErrNoCredential or a context error.
func (s *DiscoveryService) Discover(ctx context.Context, req DiscoveryRequest) (*models.DiscoveryResult, error) {
	if req.AccessToken == "" {
		return nil, ErrNoCredential
	}
	category := req.Category
	if category == "" {
		category = search.DefaultCategory
	}
	n := req.Neighborhood

	ctx, span := otel.Tracer("DiscoveryService").Start(ctx, "Discover", trace.WithAttributes(
		attribute.String("neighborhood.id", n.ID),
		attribute.String("category", category),
	))
	defer span.End()

	key := cacheKey(n.ID, category)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			metrics.CacheHits.Inc()
			cached.Cached = true
			return cached, nil
		}
		metrics.CacheMisses.Inc()
	}

	result := &models.DiscoveryResult{
		NeighborhoodID:   n.ID,
		NeighborhoodName: n.Name,
		Category:         category,
		Viewport:         n.Bounds,
	}

	for _, t := range s.tiers(n, category, req.AccessToken) {
		pois, attempt := s.runTier(ctx, t, n, category)
		result.Attempts = append(result.Attempts, attempt)

		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return nil, fmt.Errorf("discover %s/%s: %w", n.ID, category, err)
		}
		if len(pois) > 0 {
			result.Tier = t.number
			result.POIs = pois
			break
		}
	}

	if len(result.POIs) == 0 {
		result.Empty = true
		s.logger.Info("no results for category",
			zap.String("neighborhood", n.ID),
			zap.String("category", category),
			zap.Int("tiers_tried", len(result.Attempts)),
		)
	} else {
		for i := range result.POIs {
			s.placeholders.Fill(&result.POIs[i], category)
		}
		points := make([]orb.Point, len(result.POIs))
		for i, p := range result.POIs {
			points[i] = p.Coordinates
		}
		if viewport, ok := geo.BoundOf(points); ok {
			result.Viewport = viewport
		}
		if s.cache != nil {
			s.cache.Set(ctx, key, result)
		}
	}

	metrics.Discoveries.WithLabelValues(category, strconv.Itoa(result.Tier)).Inc()
	span.SetAttributes(attribute.Int("tier", result.Tier), attribute.Int("poi.count", len(result.POIs)))
	return result, nil
}

// runTier issues one provider call and qualifies its candidates. A failed call
// counts as zero candidates.
func (s *DiscoveryService) runTier(ctx context.Context, t tier, n models.Neighborhood, category string) ([]models.POI, models.TierAttempt) {
	tierLabel := strconv.Itoa(t.number)
	attempt := models.TierAttempt{Tier: t.number, Mode: t.query.Mode.String()}

	ctx, span := otel.Tracer("DiscoveryService").Start(ctx, "Tier"+tierLabel, trace.WithAttributes(
		attribute.String("query.mode", t.query.Mode.String()),
		attribute.Int("query.limit", t.query.Limit),
	))
	defer span.End()

	results, err := s.provider.Search(ctx, t.query)
	if err != nil {
		attempt.Error = err.Error()
		span.RecordError(err)
		metrics.ProviderErrors.WithLabelValues(t.query.Mode.String()).Inc()
		metrics.TierAttempts.WithLabelValues(tierLabel, "provider_error").Inc()
		s.logger.Warn("provider call failed, falling back",
			zap.Int("tier", t.number),
			zap.String("neighborhood", n.ID),
			zap.String("category", category),
			zap.Error(err),
		)
		return nil, attempt
	}

	located, dropped := locate(results)
	if dropped > 0 {
		metrics.DroppedCandidates.Add(float64(dropped))
		s.logger.Debug("dropped candidates without coordinates", zap.Int("tier", t.number), zap.Int("dropped", dropped))
	}

	pois := normalize(results, t.qualify(located), n, category)
	attempt.Raw = results.Len()
	attempt.Qualified = len(pois)

	outcome := "qualified"
	if len(pois) == 0 {
		outcome = "empty"
	}
	metrics.TierAttempts.WithLabelValues(tierLabel, outcome).Inc()
	s.logger.Debug("tier finished",
		zap.Int("tier", t.number),
		zap.Int("raw", attempt.Raw),
		zap.Int("qualified", attempt.Qualified),
	)
	return pois, attempt
}

func cacheKey(neighborhoodID, category string) string {
	return "discovery:" + neighborhoodID + ":" + category
}
