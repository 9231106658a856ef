package domain

import (
	"context"

	"shiftsage/internal/core/capacity"
	"shiftsage/internal/core/model"
	sessiondomain "shiftsage/internal/services/session/domain"
)

// StorageRepo reads the inputs of one unit-week request
type StorageRepo interface {
	ReadWeek(ctx context.Context, unitID, weekStart string) (WeekData, error)
}

// CoverageSink is an optional, write-only analytics export of a computed
// capacity map; the core never reads it back, it exists purely for
// dashboards outside this system's scope
type CoverageSink interface {
	WriteCoverageSnapshot(ctx context.Context, unitID, weekStart string, m capacity.Map) error
}

// SessionResolver is the subset of services/session.Service scheduling
// needs: resolve a session for the current request's contextKey, returning
// nil (never an error) when the session is missing or stale
type SessionResolver interface {
	Resolve(ctx context.Context, in sessiondomain.ResolveInput) (*model.AssistantSession, error)
}
