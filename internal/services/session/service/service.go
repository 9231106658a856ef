// Package service implements session CRUD and staleness checks on top of a
// transactional store
package service

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"shiftsage/internal/core/contextkey"
	"shiftsage/internal/core/model"
	"shiftsage/internal/modkit/repokit"
	"shiftsage/internal/platform/clock"
	perr "shiftsage/internal/platform/errors"
	"shiftsage/internal/services/session/domain"
)

const schemaVersion = 1

// Config for the session service
type Config struct {
	// DefaultTTLSeconds backs SERVICE_SESSION_TTL; used for a session's
	// expiresAt whenever the caller does not supply one
	DefaultTTLSeconds int64
}

// Service implements session create/record/resolve over a transactional
// Queryer and a domain.StorageRepo binder
type Service struct {
	tx    repokit.TxRunner
	bind  repokit.Binder[domain.StorageRepo]
	clock clock.Clock
	cfg   Config
}

// New constructs a new session Service
func New(tx repokit.TxRunner, bind repokit.Binder[domain.StorageRepo], c clock.Clock, cfg Config) *Service {
	if c == nil {
		c = clock.System{}
	}
	return &Service{tx: tx, bind: bind, clock: c, cfg: cfg}
}

// Create starts a new session with a fresh sessionId and the contextKey
// computed for in.ContextKey
func (s *Service) Create(ctx context.Context, in domain.CreateInput) (domain.Session, error) {
	now := s.clock.NowUnixMilli()
	ttl := in.ExpiresInSeconds
	if ttl <= 0 {
		ttl = s.cfg.DefaultTTLSeconds
	}

	sess := domain.Session{
		SessionID:     uuid.NewString(),
		UnitID:        in.UnitID,
		SchemaVersion: schemaVersion,
		ContextKey:    contextkey.Compute(in.ContextKey),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if ttl > 0 {
		expires := now + ttl*1000
		sess.ExpiresAt = &expires
	}

	var out domain.Session
	err := s.tx.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.bind.Bind(q)
		if err := repo.PutSession(ctx, sess); err != nil {
			return perr.DBf("session: create: %v", err)
		}
		out = sess
		return nil
	})
	return out, err
}

// RecordDecision appends one decision onto the named session. It does not
// deduplicate by suggestionId: internal/core/decision.Normalize is the
// single source of truth for "at most one record per suggestionId", applied
// at read/assemble time
func (s *Service) RecordDecision(ctx context.Context, in domain.RecordDecisionInput) (domain.Session, error) {
	var out domain.Session
	err := s.tx.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.bind.Bind(q)
		sess, found, err := repo.GetSession(ctx, in.UnitID, in.SessionID)
		if err != nil {
			return perr.DBf("session: read: %v", err)
		}
		if !found {
			return perr.NotFoundf("session: %s not found for unit %s", in.SessionID, in.UnitID)
		}

		sess.Decisions = append(sess.Decisions, in.Decision)
		sort.SliceStable(sess.Decisions, func(i, j int) bool {
			return sess.Decisions[i].SuggestionID < sess.Decisions[j].SuggestionID
		})
		sess.UpdatedAt = s.clock.NowUnixMilli()

		if err := repo.PutSession(ctx, sess); err != nil {
			return perr.DBf("session: record decision: %v", err)
		}
		out = sess
		return nil
	})
	return out, err
}

// Resolve fetches a session and checks it for staleness: a
// contextKey mismatch, a schemaVersion mismatch, or an expiresAt already in
// the past all cause the session to be discarded silently — Resolve
// returns (nil, nil) rather than an error, since a stale session is simply
// "as if no session was supplied", never a caller-visible failure
func (s *Service) Resolve(ctx context.Context, in domain.ResolveInput) (*model.AssistantSession, error) {
	var sess domain.Session
	var found bool
	err := s.tx.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.bind.Bind(q)
		var err error
		sess, found, err = repo.GetSession(ctx, in.UnitID, in.SessionID)
		if err != nil {
			return perr.DBf("session: resolve: %v", err)
		}
		return nil
	})
	if err != nil || !found {
		return nil, err
	}

	if sess.SchemaVersion != schemaVersion {
		return nil, nil
	}
	if sess.ExpiresAt != nil && *sess.ExpiresAt <= in.NowMillis {
		return nil, nil
	}
	if sess.ContextKey != contextkey.Compute(in.ContextKey) {
		return nil, nil
	}

	return &model.AssistantSession{
		SessionID:     sess.SessionID,
		Decisions:     append([]model.DecisionRecord(nil), sess.Decisions...),
		SchemaVersion: sess.SchemaVersion,
		ContextKey:    sess.ContextKey,
		CreatedAt:     sess.CreatedAt,
		UpdatedAt:     sess.UpdatedAt,
		ExpiresAt:     sess.ExpiresAt,
	}, nil
}

// Prune removes every expired session for a unit, returning the count removed
func (s *Service) Prune(ctx context.Context, unitID string) (int64, error) {
	var removed int64
	err := s.tx.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.bind.Bind(q)
		n, err := repo.DeleteExpired(ctx, unitID, s.clock.NowUnixMilli())
		if err != nil {
			return perr.DBf("session: prune: %v", err)
		}
		removed = n
		return nil
	})
	return removed, err
}
