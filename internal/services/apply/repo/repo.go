// Package repo provides repository implementations for the apply service
package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"shiftsage/internal/core/model"
	"shiftsage/internal/modkit/repokit"
	"shiftsage/internal/services/apply/domain"
)

// binder implements repokit.Binder[domain.StorageRepo]
type binder struct{ table string }

// NewPG returns a Postgres binder for domain.StorageRepo. table is the
// applied-ledger table name (SERVICE_APPLY_LEDGER_TABLE, default below)
func NewPG(table string) repokit.Binder[domain.StorageRepo] {
	if table == "" {
		table = "shift_applied_ledger"
	}
	return binder{table: table}
}

// Bind implements repokit.Binder
func (b binder) Bind(q repokit.Queryer) domain.StorageRepo { return &pg{q: q, table: b.table} }

type pg struct {
	q     repokit.Queryer
	table string
}

// GetAppliedLedger reads the ledger entry for (unitId, suggestionId)
func (s *pg) GetAppliedLedger(ctx context.Context, unitID, suggestionID string) (model.AppliedLedgerRecord, bool, error) {
	q := "SELECT signature_hash, applied_at, applied_shift_ids FROM " + s.table + " WHERE unit_id = $1 AND suggestion_id = $2"
	row := s.q.QueryRow(ctx, q, unitID, suggestionID)

	var rec model.AppliedLedgerRecord
	var idsJSON string
	if err := row.Scan(&rec.SignatureHash, &rec.AppliedAt, &idsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AppliedLedgerRecord{}, false, nil
		}
		return model.AppliedLedgerRecord{}, false, err
	}
	if idsJSON != "" {
		if err := json.Unmarshal([]byte(idsJSON), &rec.AppliedShiftIDs); err != nil {
			return model.AppliedLedgerRecord{}, false, err
		}
	}
	rec.UnitID = unitID
	rec.SuggestionID = suggestionID
	return rec, true, nil
}

// PutAppliedLedger writes or overwrites the ledger entry for (unitId, suggestionId)
func (s *pg) PutAppliedLedger(ctx context.Context, rec model.AppliedLedgerRecord) error {
	idsJSON, err := json.Marshal(rec.AppliedShiftIDs)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO ` + `{{table}}` + ` (unit_id, suggestion_id, signature_hash, applied_at, applied_shift_ids)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (unit_id, suggestion_id) DO UPDATE SET
			signature_hash = EXCLUDED.signature_hash,
			applied_at = EXCLUDED.applied_at,
			applied_shift_ids = EXCLUDED.applied_shift_ids`
	_, err = s.q.Exec(ctx, strings.Replace(q, "{{table}}", s.table, 1),
		rec.UnitID, rec.SuggestionID, rec.SignatureHash, rec.AppliedAt, string(idsJSON))
	return err
}

// ReplaceShifts persists the full next-shifts list for a unit
func (s *pg) ReplaceShifts(ctx context.Context, unitID string, shifts []model.Shift) error {
	if _, err := s.q.Exec(ctx, "DELETE FROM shifts WHERE unit_id = $1", unitID); err != nil {
		return err
	}
	if len(shifts) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO shifts (id, unit_id, user_id, date_key, start_time, end_time, position_id) VALUES ")
	args := make([]any, 0, len(shifts)*7)
	for i, sh := range shifts {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*7 + 1
		sb.WriteString(placeholderGroup(base, 7))
		args = append(args, sh.ID, unitID, sh.UserID, sh.DateKey, sh.StartTime, sh.EndTime, sh.PositionID)
	}
	_, err := s.q.Exec(ctx, sb.String(), args...)
	return err
}

// PutDecision appends a decision record to a session's decision log
func (s *pg) PutDecision(ctx context.Context, unitID, sessionID string, rec model.DecisionRecord) error {
	const q = `
		INSERT INTO assistant_decisions
			(unit_id, session_id, suggestion_id, decision, timestamp_ms, suggestion_version, reason, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.q.Exec(ctx, q, unitID, sessionID, rec.SuggestionID, rec.Decision,
		rec.Timestamp, rec.SuggestionVersion, rec.Reason, rec.Source)
	return err
}

// LogApplyFailure records a transaction's failure reason for audit purposes.
// Called outside the failed transaction, so it runs as its own auto-committing
// statement
func (s *pg) LogApplyFailure(ctx context.Context, rec model.ApplyFailureRecord) error {
	const q = `
		INSERT INTO apply_failures (unit_id, suggestion_id, session_id, reason, occurred_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := s.q.Exec(ctx, q, rec.UnitID, rec.SuggestionID, rec.SessionID, rec.Reason, rec.OccurredAt)
	return err
}

func placeholderGroup(base, n int) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('$')
		sb.WriteString(itoa(base + i))
	}
	sb.WriteByte(')')
	return sb.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
