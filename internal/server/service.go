package server

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hks-corretora/proposal-intake/constants"
	"github.com/hks-corretora/proposal-intake/internal/cascade"
	"github.com/hks-corretora/proposal-intake/internal/common"
	"github.com/hks-corretora/proposal-intake/internal/proposal"
	"github.com/hks-corretora/proposal-intake/internal/store"
)

// Service owns the HTTP surface: the cascade for extraction, the store for
// persistence, and a cache of live sessions so concurrent requests against
// one session share the same in-memory state.
type Service struct {
	cfg     *common.Config
	logger  *zap.Logger
	cascade *cascade.Orchestrator
	store   *store.Store

	mu       sync.Mutex
	sessions map[string]*proposal.Session
}

func NewService(cfg *common.Config, logger *zap.Logger, orch *cascade.Orchestrator, st *store.Store) *Service {
	return &Service{
		cfg:      cfg,
		logger:   logger,
		cascade:  orch,
		store:    st,
		sessions: make(map[string]*proposal.Session),
	}
}

// createSession builds a new session, caches it, and persists the empty
// snapshot.
func (s *Service) createSession(ctx context.Context, category constants.ProposalCategory) (*proposal.Session, error) {
	sess := proposal.NewSession(category)
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// session returns the cached live session, falling back to the store on a
// cache miss (e.g. after a restart).
func (s *Service) session(ctx context.Context, id string) (*proposal.Session, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok {
		s.mu.Unlock()
		return sess, nil
	}
	s.mu.Unlock()

	sess, err := s.store.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	// Another request may have loaded it concurrently; keep the first.
	if cached, ok := s.sessions[id]; ok {
		sess = cached
	} else {
		s.sessions[id] = sess
	}
	s.mu.Unlock()
	return sess, nil
}

// persist saves the session snapshot; persistence failures are logged, not
// surfaced, so a broken database never blocks the intake workflow.
func (s *Service) persist(ctx context.Context, sess *proposal.Session) {
	if err := s.store.SaveSession(ctx, sess); err != nil {
		s.logger.Error("session persist failed",
			zap.String("session_id", sess.ID), zap.Error(err))
	}
}

func (s *Service) dropSession(ctx context.Context, id string) error {
	if err := s.store.DeleteSession(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}
