package neighborhoods

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"poi-explorer/models"
)

const geoKey = "neighborhoods:geo"

// Store persists the catalog in MongoDB and keeps a Redis GEO index of the
// neighborhood centers.
type Store struct {
	collection  *mongo.Collection
	redisClient *redis.Client
	logger      *zap.Logger
}

type neighborhoodDocument struct {
	ID          string      `bson:"_id"`
	Position    int         `bson:"position"`
	Name        string      `bson:"name"`
	Center      []float64   `bson:"center"`
	Boundary    [][]float64 `bson:"boundary"`
	Southwest   []float64   `bson:"southwest"`
	Northeast   []float64   `bson:"northeast"`
	DefaultZoom float64     `bson:"default_zoom"`
}

func NewStore(db *mongo.Database, redisClient *redis.Client, logger *zap.Logger) *Store {
	return &Store{
		collection:  db.Collection("neighborhoods"),
		redisClient: redisClient,
		logger:      logger,
	}
}

// Load returns the persisted catalog, seeding it with seed when the
// collection is empty.
func (s *Store) Load(ctx context.Context, seed []models.Neighborhood) ([]models.Neighborhood, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count neighborhoods: %w", err)
	}
	if count == 0 {
		s.logger.Info("no neighborhoods in MongoDB, seeding catalog", zap.Int("count", len(seed)))
		if err := s.seed(ctx, seed); err != nil {
			return nil, err
		}
	}

	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find neighborhoods: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []neighborhoodDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode neighborhoods: %w", err)
	}

	out := make([]models.Neighborhood, 0, len(docs))
	for _, doc := range docs {
		n, err := fromDocument(doc)
		if err != nil {
			s.logger.Warn("skipping malformed neighborhood document", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		out = append(out, n)
	}
	s.logger.Info("loaded neighborhoods", zap.Int("count", len(out)))
	return out, nil
}

func (s *Store) seed(ctx context.Context, seed []models.Neighborhood) error {
	docs := make([]any, 0, len(seed))
	for i, n := range seed {
		docs = append(docs, toDocument(i, n))
	}
	result, err := s.collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("seed neighborhoods: %w", err)
	}
	s.logger.Info("seeded neighborhoods", zap.Int("inserted", len(result.InsertedIDs)))
	return nil
}

// IndexCenters replaces the Redis GEO index with the centers of items.
func (s *Store) IndexCenters(ctx context.Context, items []models.Neighborhood) error {
	if err := s.redisClient.Del(ctx, geoKey).Err(); err != nil {
		return fmt.Errorf("reset neighborhood geo index: %w", err)
	}
	locations := make([]*redis.GeoLocation, 0, len(items))
	for _, n := range items {
		locations = append(locations, &redis.GeoLocation{
			Name:      n.ID,
			Longitude: n.Center.Lon(),
			Latitude:  n.Center.Lat(),
		})
	}
	if err := s.redisClient.GeoAdd(ctx, geoKey, locations...).Err(); err != nil {
		return fmt.Errorf("index neighborhood centers: %w", err)
	}
	return nil
}

// NearestID returns the id of the indexed neighborhood center closest to p
// within radiusKm. An empty id means nothing is indexed in range.
func (s *Store) NearestID(ctx context.Context, p orb.Point, radiusKm float64) (string, error) {
	results, err := s.redisClient.GeoRadius(ctx, geoKey, p.Lon(), p.Lat(), &redis.GeoRadiusQuery{
		Radius:   radiusKm,
		Unit:     "km",
		WithDist: true,
		Sort:     "ASC",
		Count:    1,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("neighborhood geo radius: %w", err)
	}
	if len(results) == 0 {
		return "", nil
	}
	return results[0].Name, nil
}

func toDocument(position int, n models.Neighborhood) neighborhoodDocument {
	boundary := make([][]float64, len(n.Boundary))
	for i, p := range n.Boundary {
		boundary[i] = []float64{p.Lon(), p.Lat()}
	}
	return neighborhoodDocument{
		ID:          n.ID,
		Position:    position,
		Name:        n.Name,
		Center:      []float64{n.Center.Lon(), n.Center.Lat()},
		Boundary:    boundary,
		Southwest:   []float64{n.Bounds.Min.Lon(), n.Bounds.Min.Lat()},
		Northeast:   []float64{n.Bounds.Max.Lon(), n.Bounds.Max.Lat()},
		DefaultZoom: n.DefaultZoom,
	}
}

func fromDocument(doc neighborhoodDocument) (models.Neighborhood, error) {
	center, err := pointOf(doc.Center)
	if err != nil {
		return models.Neighborhood{}, fmt.Errorf("center: %w", err)
	}
	sw, err := pointOf(doc.Southwest)
	if err != nil {
		return models.Neighborhood{}, fmt.Errorf("southwest: %w", err)
	}
	ne, err := pointOf(doc.Northeast)
	if err != nil {
		return models.Neighborhood{}, fmt.Errorf("northeast: %w", err)
	}
	ring := make(orb.Ring, 0, len(doc.Boundary))
	for _, c := range doc.Boundary {
		p, err := pointOf(c)
		if err != nil {
			return models.Neighborhood{}, fmt.Errorf("boundary: %w", err)
		}
		ring = append(ring, p)
	}

	n := models.Neighborhood{
		ID:          doc.ID,
		Name:        doc.Name,
		Center:      center,
		Boundary:    ring,
		Bounds:      orb.Bound{Min: sw, Max: ne},
		DefaultZoom: doc.DefaultZoom,
	}
	return n, Validate(n)
}

func pointOf(c []float64) (orb.Point, error) {
	if len(c) < 2 {
		return orb.Point{}, fmt.Errorf("expected [lng, lat], got %v", c)
	}
	return orb.Point{c[0], c[1]}, nil
}
