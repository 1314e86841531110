package cash

import (
	"context"

	"hornada/internal/core/id"
)

// Repository defines persistence operations for cash sessions.
type Repository interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, sessionID id.ID) (*Session, error)

	// GetOpenSessionForUpdate returns the open session with a row lock,
	// or a not-found error when no session is open. The lock serializes
	// concurrent opens and closes.
	GetOpenSessionForUpdate(ctx context.Context) (*Session, error)

	UpdateSession(ctx context.Context, s *Session) error
	ListSessions(ctx context.Context, limit, offset int) ([]*Session, error)

	AppendMovement(ctx context.Context, m *Movement) error
	ListMovements(ctx context.Context, sessionID id.ID) ([]*Movement, error)
}
