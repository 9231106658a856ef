package service

import (
	"context"
	"testing"

	"shiftsage/internal/core/contextkey"
	"shiftsage/internal/core/model"
	"shiftsage/internal/modkit/repokit"
	"shiftsage/internal/platform/testkit"
	"shiftsage/internal/services/session/domain"
)

// fakeTx runs fn immediately against a nil Queryer; fakeBind ignores it and
// always returns the same in-memory repo, mirroring services/apply's tests
type fakeTx struct{}

func (f *fakeTx) Tx(_ context.Context, fn func(q repokit.Queryer) error) error {
	return fn(nil)
}

type fakeBind struct{ repo *fakeRepo }

func (f fakeBind) Bind(repokit.Queryer) domain.StorageRepo { return f.repo }

type fakeRepo struct {
	sessions map[string]domain.Session
}

func newFakeRepo() *fakeRepo { return &fakeRepo{sessions: map[string]domain.Session{}} }

func sessKey(unitID, sessionID string) string { return unitID + "|" + sessionID }

func (r *fakeRepo) GetSession(_ context.Context, unitID, sessionID string) (domain.Session, bool, error) {
	s, ok := r.sessions[sessKey(unitID, sessionID)]
	return s, ok, nil
}

func (r *fakeRepo) PutSession(_ context.Context, s domain.Session) error {
	r.sessions[sessKey(s.UnitID, s.SessionID)] = s
	return nil
}

func (r *fakeRepo) DeleteExpired(_ context.Context, unitID string, nowMillis int64) (int64, error) {
	var n int64
	for k, s := range r.sessions {
		if s.UnitID != unitID {
			continue
		}
		if s.ExpiresAt != nil && *s.ExpiresAt < nowMillis {
			delete(r.sessions, k)
			n++
		}
	}
	return n, nil
}

func newService(repo *fakeRepo, millis int64, ttl int64) *Service {
	return New(&fakeTx{}, fakeBind{repo: repo}, testkit.FixedClock{Millis: millis}, Config{DefaultTTLSeconds: ttl})
}

func sampleContextKey() contextkey.Input {
	return contextkey.Input{UnitID: "unit-1", WeekStart: "2025-01-06", Users: []model.User{{ID: "u1", IsActive: true}}, BucketMinutes: 60}
}

func TestCreate_SetsContextKeyAndExpiry(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, 1_000_000, 3600)

	sess, err := svc.Create(context.Background(), domain.CreateInput{UnitID: "unit-1", ContextKey: sampleContextKey()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.ContextKey != contextkey.Compute(sampleContextKey()) {
		t.Fatalf("expected contextKey to be computed from the create input")
	}
	if sess.ExpiresAt == nil || *sess.ExpiresAt != 1_000_000+3600*1000 {
		t.Fatalf("expected expiresAt = now + ttl*1000, got %+v", sess.ExpiresAt)
	}
	if sess.SessionID == "" {
		t.Fatalf("expected a generated sessionId")
	}
}

func TestRecordDecision_AppendsAndSortsBySuggestionID(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, 1000, 3600)

	sess, err := svc.Create(context.Background(), domain.CreateInput{UnitID: "unit-1", ContextKey: sampleContextKey()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ts := int64(2000)
	_, err = svc.RecordDecision(context.Background(), domain.RecordDecisionInput{
		UnitID: "unit-1", SessionID: sess.SessionID,
		Decision: model.DecisionRecord{SuggestionID: "sig:b", Decision: model.DecisionValueAccepted, Timestamp: &ts},
	})
	if err != nil {
		t.Fatalf("record b: %v", err)
	}
	updated, err := svc.RecordDecision(context.Background(), domain.RecordDecisionInput{
		UnitID: "unit-1", SessionID: sess.SessionID,
		Decision: model.DecisionRecord{SuggestionID: "sig:a", Decision: model.DecisionValueRejected, Timestamp: &ts},
	})
	if err != nil {
		t.Fatalf("record a: %v", err)
	}

	if len(updated.Decisions) != 2 || updated.Decisions[0].SuggestionID != "sig:a" || updated.Decisions[1].SuggestionID != "sig:b" {
		t.Fatalf("expected decisions sorted by suggestionId, got %+v", updated.Decisions)
	}
}

func TestRecordDecision_MissingSessionReturnsError(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, 1000, 3600)

	_, err := svc.RecordDecision(context.Background(), domain.RecordDecisionInput{UnitID: "unit-1", SessionID: "ghost"})
	if err == nil {
		t.Fatalf("expected an error for a missing session")
	}
}

func TestResolve_ReturnsSessionForMatchingContextKey(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, 1000, 3600)

	sess, err := svc.Create(context.Background(), domain.CreateInput{UnitID: "unit-1", ContextKey: sampleContextKey()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	resolved, err := svc.Resolve(context.Background(), domain.ResolveInput{
		UnitID: "unit-1", SessionID: sess.SessionID, ContextKey: sampleContextKey(), NowMillis: 1500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved == nil || resolved.SessionID != sess.SessionID {
		t.Fatalf("expected the session to resolve, got %+v", resolved)
	}
}

func TestResolve_DiscardsOnContextKeyMismatch(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, 1000, 3600)

	sess, err := svc.Create(context.Background(), domain.CreateInput{UnitID: "unit-1", ContextKey: sampleContextKey()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	changed := sampleContextKey()
	changed.BucketMinutes = 30

	resolved, err := svc.Resolve(context.Background(), domain.ResolveInput{
		UnitID: "unit-1", SessionID: sess.SessionID, ContextKey: changed, NowMillis: 1500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != nil {
		t.Fatalf("expected a stale contextKey to discard the session silently, got %+v", resolved)
	}
}

func TestResolve_DiscardsOnExpiry(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, 1000, 1) // 1 second TTL

	sess, err := svc.Create(context.Background(), domain.CreateInput{UnitID: "unit-1", ContextKey: sampleContextKey()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	resolved, err := svc.Resolve(context.Background(), domain.ResolveInput{
		UnitID: "unit-1", SessionID: sess.SessionID, ContextKey: sampleContextKey(), NowMillis: 1000 + 2000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != nil {
		t.Fatalf("expected an expired session to be discarded silently, got %+v", resolved)
	}
}

func TestResolve_MissingSessionReturnsNilNil(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, 1000, 3600)

	resolved, err := svc.Resolve(context.Background(), domain.ResolveInput{UnitID: "unit-1", SessionID: "ghost", ContextKey: sampleContextKey()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != nil {
		t.Fatalf("expected no session, got %+v", resolved)
	}
}

func TestPrune_RemovesOnlyExpiredSessions(t *testing.T) {
	repo := newFakeRepo()

	expired := int64(500)
	notExpired := int64(5000)
	repo.sessions[sessKey("unit-1", "expired")] = domain.Session{
		UnitID: "unit-1", SessionID: "expired", SchemaVersion: schemaVersion, ExpiresAt: &expired,
	}
	repo.sessions[sessKey("unit-1", "fresh")] = domain.Session{
		UnitID: "unit-1", SessionID: "fresh", SchemaVersion: schemaVersion, ExpiresAt: &notExpired,
	}

	svc := newService(repo, 1000, 3600)
	removed, err := svc.Prune(context.Background(), "unit-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected exactly 1 expired session pruned, got %d", removed)
	}
	if _, ok := repo.sessions[sessKey("unit-1", "fresh")]; !ok {
		t.Fatalf("expected the non-expired session to survive pruning")
	}
}
