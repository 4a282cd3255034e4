package services

import (
	"context"
	"errors"
	"sync"

	"poi-explorer/metrics"
	"poi-explorer/models"
	"poi-explorer/presentation"
)

var ErrStaleSession = errors.New("discovery session superseded by a newer request")

type ownerState struct {
	generation uint64
	current    models.DiscoverySession
	cancel     context.CancelFunc
}

// SessionService tracks the newest discovery session per owner and is the
// only path through which results reach the presentation adapter.
type SessionService struct {
	mu      sync.Mutex
	owners  map[string]*ownerState
	adapter presentation.Adapter
}

func NewSessionService(adapter presentation.Adapter) *SessionService {
	return &SessionService{
		owners:  make(map[string]*ownerState),
		adapter: adapter,
	}
}

// Begin starts a new session for owner and cancels the context of the
// previous one. The returned context is derived from ctx; call the returned
// CancelFunc once the cycle is over.
func (s *SessionService) Begin(ctx context.Context, owner, neighborhoodID, category string) (models.DiscoverySession, context.Context, context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.owners[owner]
	if !ok {
		st = &ownerState{}
		s.owners[owner] = st
	}
	if st.cancel != nil {
		st.cancel()
	}

	st.generation++
	session := models.DiscoverySession{
		Owner:          owner,
		NeighborhoodID: neighborhoodID,
		Category:       category,
		Generation:     st.generation,
	}
	sessionCtx, cancel := context.WithCancel(ctx)
	st.current = session
	st.cancel = cancel
	return session, sessionCtx, cancel
}

// Commit installs result if session is still the newest for its owner.
// Markers are always cleared before the new set is installed.
func (s *SessionService) Commit(session models.DiscoverySession, result *models.DiscoveryResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.owners[session.Owner]
	if !ok || st.generation != session.Generation {
		metrics.StaleCommits.Inc()
		return ErrStaleSession
	}

	s.adapter.Clear(session.Owner)
	return s.adapter.Install(session.Owner, session.Generation, result)
}

// Current returns the newest session begun for owner.
func (s *SessionService) Current(owner string) (models.DiscoverySession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.owners[owner]
	if !ok {
		return models.DiscoverySession{}, false
	}
	return st.current, true
}
