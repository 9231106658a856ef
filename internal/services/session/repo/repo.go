// Package repo provides repository implementations for the session service
package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"shiftsage/internal/modkit/repokit"
	"shiftsage/internal/services/session/domain"
)

// binder implements repokit.Binder[domain.StorageRepo]
type binder struct{ table string }

// NewPG returns a Postgres binder for domain.StorageRepo. table is the
// sessions table name (SERVICE_SESSION_TABLE, default below)
func NewPG(table string) repokit.Binder[domain.StorageRepo] {
	if table == "" {
		table = "assistant_sessions"
	}
	return binder{table: table}
}

// Bind implements repokit.Binder
func (b binder) Bind(q repokit.Queryer) domain.StorageRepo { return &pg{q: q, table: b.table} }

type pg struct {
	q     repokit.Queryer
	table string
}

// GetSession reads a session by (unitId, sessionId)
func (s *pg) GetSession(ctx context.Context, unitID, sessionID string) (domain.Session, bool, error) {
	q := "SELECT decisions, schema_version, context_key, created_at, updated_at, expires_at FROM " +
		s.table + " WHERE unit_id = $1 AND session_id = $2"
	row := s.q.QueryRow(ctx, q, unitID, sessionID)

	var sess domain.Session
	var decisionsJSON string
	var expiresAt sql.NullInt64
	if err := row.Scan(&decisionsJSON, &sess.SchemaVersion, &sess.ContextKey, &sess.CreatedAt, &sess.UpdatedAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, false, nil
		}
		return domain.Session{}, false, err
	}
	if decisionsJSON != "" {
		if err := json.Unmarshal([]byte(decisionsJSON), &sess.Decisions); err != nil {
			return domain.Session{}, false, err
		}
	}
	if expiresAt.Valid {
		v := expiresAt.Int64
		sess.ExpiresAt = &v
	}
	sess.UnitID = unitID
	sess.SessionID = sessionID
	return sess, true, nil
}

// PutSession writes or overwrites a session row
func (s *pg) PutSession(ctx context.Context, sess domain.Session) error {
	decisionsJSON, err := json.Marshal(sess.Decisions)
	if err != nil {
		return err
	}
	var expiresAt any
	if sess.ExpiresAt != nil {
		expiresAt = *sess.ExpiresAt
	}

	q := `
		INSERT INTO ` + s.table + ` (unit_id, session_id, decisions, schema_version, context_key, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (unit_id, session_id) DO UPDATE SET
			decisions = EXCLUDED.decisions,
			schema_version = EXCLUDED.schema_version,
			context_key = EXCLUDED.context_key,
			updated_at = EXCLUDED.updated_at,
			expires_at = EXCLUDED.expires_at`
	_, err = s.q.Exec(ctx, q, sess.UnitID, sess.SessionID, string(decisionsJSON),
		sess.SchemaVersion, sess.ContextKey, sess.CreatedAt, sess.UpdatedAt, expiresAt)
	return err
}

// DeleteExpired removes every session for unitID whose expiresAt has passed
// as of nowMillis, returning the number of rows removed
func (s *pg) DeleteExpired(ctx context.Context, unitID string, nowMillis int64) (int64, error) {
	q := "DELETE FROM " + s.table + " WHERE unit_id = $1 AND expires_at IS NOT NULL AND expires_at < $2"
	tag, err := s.q.Exec(ctx, q, unitID, nowMillis)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
