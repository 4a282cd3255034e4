package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"poi-explorer/models"
)

const userCacheTTL = 24 * time.Hour

// UserService owns explorer accounts. Accounts live in MongoDB and are cached
// in Redis by public id.
type UserService struct {
	collection  *mongo.Collection
	redisClient *redis.Client
	jwtSecret   string
	tokenTTL    time.Duration
	logger      *zap.Logger
}

func NewUserService(ctx context.Context, db *mongo.Database, redisClient *redis.Client, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) (*UserService, error) {
	collection := db.Collection("users")

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "public_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return nil, fmt.Errorf("create user indexes: %w", err)
	}

	return &UserService{
		collection:  collection,
		redisClient: redisClient,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
		logger:      logger,
	}, nil
}

func userCacheKey(publicID string) string {
	return "user:" + publicID
}

// GetUser retrieves a user from Redis or MongoDB
func (s *UserService) GetUser(ctx context.Context, publicID string) (models.User, error) {
	var user models.User

	userJSON, err := s.redisClient.Get(ctx, userCacheKey(publicID)).Bytes()
	if err == nil {
		if err := json.Unmarshal(userJSON, &user); err == nil {
			return user, nil
		}
		s.logger.Warn("failed to unmarshal cached user", zap.String("user", publicID), zap.Error(err))
	}

	if err := s.collection.FindOne(ctx, bson.M{"public_id": publicID}).Decode(&user); err != nil {
		return models.User{}, err
	}
	s.cacheUser(ctx, user)
	return user, nil
}

func (s *UserService) cacheUser(ctx context.Context, user models.User) {
	data, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, userCacheKey(user.PublicID), data, userCacheTTL).Err(); err != nil {
		s.logger.Warn("failed to cache user", zap.String("user", user.PublicID), zap.Error(err))
	}
}
