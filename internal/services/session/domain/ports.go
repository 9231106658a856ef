package domain

import "context"

// StorageRepo persists and retrieves sessions. A "found=false" is never an
// error: it means "no such session", distinct from a DB failure
type StorageRepo interface {
	GetSession(ctx context.Context, unitID, sessionID string) (Session, bool, error)
	PutSession(ctx context.Context, s Session) error
	DeleteExpired(ctx context.Context, unitID string, nowMillis int64) (int64, error)
}
