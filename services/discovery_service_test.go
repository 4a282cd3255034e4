package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"poi-explorer/models"
	"poi-explorer/neighborhoods"
	"poi-explorer/search"
)

type scriptedResponse struct {
	results search.Results
	err     error
}

// scriptedProvider answers the n-th Search with the n-th response and records
// every query it saw. Calls past the script return no results.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []scriptedResponse
	queries   []search.Query
	onSearch  func(ctx context.Context)
}

func (p *scriptedProvider) Search(ctx context.Context, q search.Query) (search.Results, error) {
	p.mu.Lock()
	idx := len(p.queries)
	p.queries = append(p.queries, q)
	p.mu.Unlock()

	if p.onSearch != nil {
		p.onSearch(ctx)
	}
	if idx >= len(p.responses) {
		return search.Results{Kind: search.KindStructured}, nil
	}
	return p.responses[idx].results, p.responses[idx].err
}

func (p *scriptedProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queries)
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]*models.DiscoveryResult
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string]*models.DiscoveryResult)}
}

func (c *memoryCache) Get(_ context.Context, key string) (*models.DiscoveryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.items[key]
	if !ok {
		return nil, false
	}
	cp := *r
	return &cp, true
}

func (c *memoryCache) Set(_ context.Context, key string, result *models.DiscoveryResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *result
	c.items[key] = &cp
}

func lakeNona(t *testing.T) models.Neighborhood {
	t.Helper()
	registry, err := neighborhoods.NewRegistry(neighborhoods.Catalog)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	n, ok := registry.Lookup("lake-nona-south")
	if !ok {
		t.Fatal("lake-nona-south missing from catalog")
	}
	return n
}

func structuredAt(id string, lon, lat float64) search.StructuredResult {
	return search.StructuredResult{
		Type:     "Feature",
		Geometry: &search.Geometry{Type: "Point", Coordinates: []float64{lon, lat}},
		Properties: search.StructuredProperties{
			MapboxID: id,
			Name:     "Place " + id,
			Address:  "1 Main St",
		},
	}
}

func freeTextAt(id string, lon, lat float64) search.FreeTextResult {
	return search.FreeTextResult{
		ID:        id,
		Text:      "Place " + id,
		PlaceName: "Place " + id + ", Orlando, Florida",
		Center:    []float64{lon, lat},
	}
}

func structured(rs ...search.StructuredResult) scriptedResponse {
	return scriptedResponse{results: search.Results{Kind: search.KindStructured, Structured: rs}}
}

func freeText(rs ...search.FreeTextResult) scriptedResponse {
	return scriptedResponse{results: search.Results{Kind: search.KindFreeText, FreeText: rs}}
}

func providerError(msg string) scriptedResponse {
	return scriptedResponse{err: errors.New(msg)}
}

func newTestDiscovery(p search.Provider, cache ResultCache) *DiscoveryService {
	return NewDiscoveryService(p, cache, NewPlaceholders(1, 2), zap.NewNop())
}

func TestDiscoverFirstTierWithinBounds(t *testing.T) {
	n := lakeNona(t)
	provider := &scriptedProvider{responses: []scriptedResponse{
		structured(
			structuredAt("c", -81.27, 28.37),
			structuredAt("a", -81.30, 28.40),
			structuredAt("b", -81.25, 28.33),
		),
	}}

	result, err := newTestDiscovery(provider, nil).Discover(context.Background(), DiscoveryRequest{
		Neighborhood: n,
		Category:     "parks",
		AccessToken:  "pk.test",
	})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if got, want := result.IDs(), []string{"c", "a", "b"}; !slices.Equal(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
	if result.Tier != 1 {
		t.Errorf("tier = %d, want 1", result.Tier)
	}
	if result.Empty {
		t.Error("result marked empty")
	}
	if provider.calls() != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls())
	}

	q := provider.queries[0]
	if q.Mode != search.ModeCategory || q.Token != "park" || q.Limit != 12 {
		t.Errorf("tier 1 query = %+v", q)
	}
	if q.BBox == nil || *q.BBox != n.Bounds {
		t.Errorf("tier 1 bbox = %v, want %v", q.BBox, n.Bounds)
	}
	if q.Proximity != n.Center || q.AccessToken != "pk.test" {
		t.Errorf("tier 1 proximity/token = %v/%q", q.Proximity, q.AccessToken)
	}
}

func TestDiscoverFirstTierDropsOutOfBounds(t *testing.T) {
	n := lakeNona(t)
	provider := &scriptedProvider{responses: []scriptedResponse{
		structured(
			structuredAt("in", -81.27, 28.37),
			structuredAt("out", -81.10, 28.37),
		),
	}}

	result, err := newTestDiscovery(provider, nil).Discover(context.Background(), DiscoveryRequest{
		Neighborhood: n, Category: "grocery", AccessToken: "pk.test",
	})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if got := result.IDs(); !slices.Equal(got, []string{"in"}) {
		t.Errorf("ids = %v, want [in]", got)
	}
	if a := result.Attempts[0]; a.Raw != 2 || a.Qualified != 1 {
		t.Errorf("attempt = %+v, want raw 2 qualified 1", a)
	}
}

func TestDiscoverSecondTierSortedByDistance(t *testing.T) {
	n := lakeNona(t)
	lon, lat := n.Center.Lon(), n.Center.Lat()
	// 0.01 degrees of latitude is about 1112 m.
	provider := &scriptedProvider{responses: []scriptedResponse{
		structured(),
		structured(
			structuredAt("2km", lon, lat+0.02),
			structuredAt("0.5km", lon, lat+0.005),
			structuredAt("4km", lon, lat+0.04),
			structuredAt("1km", lon, lat-0.01),
			structuredAt("5km", lon, lat-0.05),
		),
	}}

	result, err := newTestDiscovery(provider, nil).Discover(context.Background(), DiscoveryRequest{
		Neighborhood: n, Category: "entertainment", AccessToken: "pk.test",
	})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if got, want := result.IDs(), []string{"0.5km", "1km", "2km"}; !slices.Equal(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
	if result.Tier != 2 {
		t.Errorf("tier = %d, want 2", result.Tier)
	}
	if provider.calls() != 2 {
		t.Errorf("provider called %d times, want 2 (tier 3 must not run)", provider.calls())
	}

	q := provider.queries[1]
	if q.Mode != search.ModeCategory || q.BBox != nil || q.Limit != 20 || q.Token != "entertainment" {
		t.Errorf("tier 2 query = %+v", q)
	}
}

func TestDiscoverProviderErrorFallsThrough(t *testing.T) {
	n := lakeNona(t)
	provider := &scriptedProvider{responses: []scriptedResponse{
		providerError("503 from provider"),
		structured(structuredAt("near", n.Center.Lon(), n.Center.Lat())),
	}}

	result, err := newTestDiscovery(provider, nil).Discover(context.Background(), DiscoveryRequest{
		Neighborhood: n, Category: "shopping", AccessToken: "pk.test",
	})
	if err != nil {
		t.Fatalf("provider error leaked out of Discover: %v", err)
	}
	if result.Tier != 2 || len(result.POIs) != 1 {
		t.Fatalf("tier = %d, pois = %d; want tier 2 with 1 POI", result.Tier, len(result.POIs))
	}
	if result.Attempts[0].Error == "" {
		t.Error("tier 1 attempt does not record the provider error")
	}
}

func TestDiscoverAllTiersEmpty(t *testing.T) {
	n := lakeNona(t)
	provider := &scriptedProvider{responses: []scriptedResponse{
		structured(),
		providerError("timeout"),
		freeText(),
	}}

	result, err := newTestDiscovery(provider, nil).Discover(context.Background(), DiscoveryRequest{
		Neighborhood: n, Category: "sports", AccessToken: "pk.test",
	})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if !result.Empty || len(result.POIs) != 0 || result.Tier != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
	if len(result.Attempts) != 3 {
		t.Errorf("attempts = %d, want 3", len(result.Attempts))
	}
	if result.Viewport != n.Bounds {
		t.Errorf("viewport = %v, want neighborhood bounds %v", result.Viewport, n.Bounds)
	}
	if q := provider.queries[2]; q.Mode != search.ModeText || q.Limit != 10 || q.Phrase != "sports" {
		t.Errorf("tier 3 query = %+v", q)
	}
}

func TestDiscoverFreeTextTier(t *testing.T) {
	n := lakeNona(t)

	t.Run("keeps only in-bounds matches when there are some", func(t *testing.T) {
		provider := &scriptedProvider{responses: []scriptedResponse{
			structured(),
			structured(),
			freeText(
				freeTextAt("far", -80.0, 27.0),
				freeTextAt("in", -81.27, 28.38),
				freeTextAt("far2", -82.0, 29.0),
			),
		}}
		result, err := newTestDiscovery(provider, nil).Discover(context.Background(), DiscoveryRequest{
			Neighborhood: n, Category: "food-drink", AccessToken: "pk.test",
		})
		if err != nil {
			t.Fatalf("Discover: %v", err)
		}
		if got := result.IDs(); !slices.Equal(got, []string{"in"}) {
			t.Errorf("ids = %v, want [in]", got)
		}
		if result.Tier != 3 {
			t.Errorf("tier = %d, want 3", result.Tier)
		}
	})

	t.Run("falls back to the first eight located candidates", func(t *testing.T) {
		var far []search.FreeTextResult
		far = append(far, search.FreeTextResult{ID: "nowhere", Text: "No coordinates"})
		for i := range 10 {
			far = append(far, freeTextAt(fmt.Sprintf("f%d", i), -80.0-float64(i)*0.1, 27.0))
		}
		provider := &scriptedProvider{responses: []scriptedResponse{
			providerError("down"),
			providerError("down"),
			freeText(far...),
		}}
		result, err := newTestDiscovery(provider, nil).Discover(context.Background(), DiscoveryRequest{
			Neighborhood: n, Category: "food-drink", AccessToken: "pk.test",
		})
		if err != nil {
			t.Fatalf("Discover: %v", err)
		}
		want := []string{"f0", "f1", "f2", "f3", "f4", "f5", "f6", "f7"}
		if got := result.IDs(); !slices.Equal(got, want) {
			t.Errorf("ids = %v, want %v", got, want)
		}
	})
}

func TestDiscoverRequiresCredential(t *testing.T) {
	provider := &scriptedProvider{}
	_, err := newTestDiscovery(provider, nil).Discover(context.Background(), DiscoveryRequest{
		Neighborhood: lakeNona(t), Category: "parks",
	})
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("err = %v, want ErrNoCredential", err)
	}
	if provider.calls() != 0 {
		t.Errorf("provider called %d times without a credential", provider.calls())
	}
}

func TestDiscoverIsRepeatable(t *testing.T) {
	n := lakeNona(t)
	response := structured(
		structuredAt("x", -81.27, 28.37),
		search.StructuredResult{
			Geometry:   &search.Geometry{Coordinates: []float64{-81.26, 28.36}},
			Properties: search.StructuredProperties{Name: "Unnamed Park"},
		},
		structuredAt("y", -81.28, 28.38),
	)

	run := func() []string {
		provider := &scriptedProvider{responses: []scriptedResponse{response}}
		result, err := newTestDiscovery(provider, nil).Discover(context.Background(), DiscoveryRequest{
			Neighborhood: n, Category: "parks", AccessToken: "pk.test",
		})
		if err != nil {
			t.Fatalf("Discover: %v", err)
		}
		return result.IDs()
	}

	first, second := run(), run()
	if !slices.Equal(first, second) {
		t.Errorf("ids differ between runs: %v vs %v", first, second)
	}
	if len(first) != 3 {
		t.Errorf("got %d ids, want 3", len(first))
	}
}

func TestDiscoverCancelledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := &scriptedProvider{
		responses: []scriptedResponse{structured()},
		onSearch:  func(context.Context) { cancel() },
	}
	_, err := newTestDiscovery(provider, nil).Discover(ctx, DiscoveryRequest{
		Neighborhood: lakeNona(t), Category: "parks", AccessToken: "pk.test",
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if provider.calls() != 1 {
		t.Errorf("provider called %d times after cancellation, want 1", provider.calls())
	}
}

func TestDiscoverCachesNonEmptyResults(t *testing.T) {
	n := lakeNona(t)
	cache := newMemoryCache()
	provider := &scriptedProvider{responses: []scriptedResponse{
		structured(structuredAt("a", -81.27, 28.37)),
	}}
	svc := newTestDiscovery(provider, cache)
	req := DiscoveryRequest{Neighborhood: n, Category: "parks", AccessToken: "pk.test"}

	if _, err := svc.Discover(context.Background(), req); err != nil {
		t.Fatalf("first Discover: %v", err)
	}
	again, err := svc.Discover(context.Background(), req)
	if err != nil {
		t.Fatalf("second Discover: %v", err)
	}
	if !again.Cached {
		t.Error("second result not served from cache")
	}
	if provider.calls() != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls())
	}
}

func TestDiscoverDoesNotCacheEmptyResults(t *testing.T) {
	cache := newMemoryCache()
	provider := &scriptedProvider{}
	svc := newTestDiscovery(provider, cache)
	req := DiscoveryRequest{Neighborhood: lakeNona(t), Category: "parks", AccessToken: "pk.test"}

	for range 2 {
		result, err := svc.Discover(context.Background(), req)
		if err != nil {
			t.Fatalf("Discover: %v", err)
		}
		if !result.Empty {
			t.Fatal("expected an empty result")
		}
	}
	if provider.calls() != 6 {
		t.Errorf("provider called %d times, want 6", provider.calls())
	}
}

func TestDiscoverViewportFramesResults(t *testing.T) {
	provider := &scriptedProvider{responses: []scriptedResponse{
		structured(
			structuredAt("a", -81.30, 28.35),
			structuredAt("b", -81.25, 28.40),
		),
	}}
	result, err := newTestDiscovery(provider, nil).Discover(context.Background(), DiscoveryRequest{
		Neighborhood: lakeNona(t), Category: "parks", AccessToken: "pk.test",
	})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := orb.Bound{Min: orb.Point{-81.30, 28.35}, Max: orb.Point{-81.25, 28.40}}
	if result.Viewport != want {
		t.Errorf("viewport = %v, want %v", result.Viewport, want)
	}
}
