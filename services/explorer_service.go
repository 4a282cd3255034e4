package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"poi-explorer/models"
	"poi-explorer/neighborhoods"
	"poi-explorer/search"
)

// ExplorerService runs a full discovery cycle for an owner: resolve the
// neighborhood, check the stored credential, discover and hand the result to
// the session's presentation adapter.
type ExplorerService struct {
	registry    *neighborhoods.Registry
	credentials CredentialStore
	discovery   Discoverer
	sessions    *SessionService
	logger      *zap.Logger
}

func NewExplorerService(registry *neighborhoods.Registry, credentials CredentialStore, discovery Discoverer, sessions *SessionService, logger *zap.Logger) *ExplorerService {
	return &ExplorerService{
		registry:    registry,
		credentials: credentials,
		discovery:   discovery,
		sessions:    sessions,
		logger:      logger,
	}
}

// Explore returns ErrNoCredential when owner has no stored token and
// ErrStaleSession when a newer Explore for the same owner replaced this one.
// An unknown neighborhood id falls back to the default neighborhood.
func (e *ExplorerService) Explore(ctx context.Context, owner, neighborhoodID, category string) (*models.DiscoveryResult, error) {
	n := e.registry.Resolve(neighborhoodID)
	if category == "" {
		category = search.DefaultCategory
	}

	token, err := e.credentials.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNoCredential
	}

	session, sessionCtx, cancel := e.sessions.Begin(ctx, owner, n.ID, category)
	defer cancel()

	result, err := e.discovery.Discover(sessionCtx, DiscoveryRequest{
		Neighborhood: n,
		Category:     category,
		AccessToken:  token,
	})
	if err != nil {
		// Cancelled by a newer session rather than by the caller.
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: generation %d", ErrStaleSession, session.Generation)
		}
		return nil, err
	}

	if err := e.sessions.Commit(session, result); err != nil {
		if errors.Is(err, ErrStaleSession) {
			e.logger.Info("discarding stale discovery result",
				zap.String("owner", owner),
				zap.Uint64("generation", session.Generation),
			)
		}
		return nil, err
	}
	return result, nil
}
