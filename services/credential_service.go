package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

var ErrEmptyCredential = errors.New("credential must not be empty")

// CredentialStore persists the opaque provider access token of each owner.
// Get returns an empty string when nothing is stored.
type CredentialStore interface {
	Get(ctx context.Context, owner string) (string, error)
	Save(ctx context.Context, owner, token string) error
}

type RedisCredentialStore struct {
	client *redis.Client
}

func NewRedisCredentialStore(client *redis.Client) *RedisCredentialStore {
	return &RedisCredentialStore{client: client}
}

func credentialKey(owner string) string {
	return "credential:" + owner
}

func (s *RedisCredentialStore) Get(ctx context.Context, owner string) (string, error) {
	token, err := s.client.Get(ctx, credentialKey(owner)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	return token, nil
}

func (s *RedisCredentialStore) Save(ctx context.Context, owner, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyCredential
	}
	if err := s.client.Set(ctx, credentialKey(owner), token, 0).Err(); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}
