package memory

import (
	"context"
	"sort"
	"sync"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/domain/cash"
)

// CashRepo implements cash.Repository in memory.
type CashRepo struct {
	mu        sync.RWMutex
	sessions  map[id.ID]cash.Session
	movements []cash.Movement
}

// NewCashRepo creates an empty cash repository.
func NewCashRepo() *CashRepo {
	return &CashRepo{sessions: make(map[id.ID]cash.Session)}
}

func (r *CashRepo) CreateSession(ctx context.Context, s *cash.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; ok {
		return apperror.NewDuplicate("cash session", "id", s.ID.String())
	}
	r.sessions[s.ID] = *s
	return nil
}

func (r *CashRepo) GetSession(ctx context.Context, sessionID id.ID) (*cash.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, apperror.NewNotFound("cash session", sessionID)
	}
	return &s, nil
}

func (r *CashRepo) GetOpenSessionForUpdate(ctx context.Context) (*cash.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.Status == cash.SessionOpen {
			s := s
			return &s, nil
		}
	}
	return nil, apperror.NewNotFound("open cash session", nil)
}

func (r *CashRepo) UpdateSession(ctx context.Context, s *cash.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		return apperror.NewNotFound("cash session", s.ID)
	}
	r.sessions[s.ID] = *s
	return nil
}

func (r *CashRepo) ListSessions(ctx context.Context, limit, offset int) ([]*cash.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*cash.Session
	for _, s := range r.sessions {
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.After(out[j].OpenedAt) })
	return paginate(out, limit, offset), nil
}

func (r *CashRepo) AppendMovement(ctx context.Context, m *cash.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *CashRepo) ListMovements(ctx context.Context, sessionID id.ID) ([]*cash.Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*cash.Movement
	for i := range r.movements {
		if r.movements[i].SessionID == sessionID {
			m := r.movements[i]
			out = append(out, &m)
		}
	}
	return out, nil
}

var _ cash.Repository = (*CashRepo)(nil)
