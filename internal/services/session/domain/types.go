// Package domain defines the core types and interfaces for the session service
package domain

import (
	"shiftsage/internal/core/contextkey"
	"shiftsage/internal/core/model"
)

// CreateInput describes a new session request. ExpiresInSeconds of zero
// means "use the configured default TTL"
type CreateInput struct {
	UnitID           string
	ContextKey       contextkey.Input
	ExpiresInSeconds int64
}

// Session is the persisted, fully-resolved session record for a unit
type Session struct {
	SessionID     string
	UnitID        string
	Decisions     []model.DecisionRecord
	SchemaVersion int
	ContextKey    string
	CreatedAt     int64
	UpdatedAt     int64
	ExpiresAt     *int64
}

// RecordDecisionInput appends one decision onto an existing session; an
// earlier record with the same suggestionId is kept, not replaced
type RecordDecisionInput struct {
	UnitID    string
	SessionID string
	Decision  model.DecisionRecord
}

// ResolveInput is a request to fetch a session for use against a given
// request shape, checking it for staleness before returning it
type ResolveInput struct {
	UnitID     string
	SessionID  string
	ContextKey contextkey.Input
	NowMillis  int64
}
