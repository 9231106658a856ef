package domain

import (
	"context"

	"shiftsage/internal/core/model"
)

// StorageRepo persists shifts, the applied ledger, and decision records for
// the apply service, all bound to the same transactional Queryer so the
// three writes in step 4 of §4.12 commit atomically
type StorageRepo interface {
	// GetAppliedLedger returns the ledger entry for (unitId, suggestionId),
	// if one exists. found is false when nothing has ever been applied
	GetAppliedLedger(ctx context.Context, unitID, suggestionID string) (rec model.AppliedLedgerRecord, found bool, err error)

	// PutAppliedLedger writes or overwrites the ledger entry for a unit/suggestion pair
	PutAppliedLedger(ctx context.Context, rec model.AppliedLedgerRecord) error

	// ReplaceShifts persists the full next-shifts list for a unit, replacing
	// whatever shifts previously existed for it
	ReplaceShifts(ctx context.Context, unitID string, shifts []model.Shift) error

	// PutDecision appends a decision record to a session's decision log
	PutDecision(ctx context.Context, unitID, sessionID string, rec model.DecisionRecord) error

	// LogApplyFailure records that a transaction threw partway through, after
	// the transaction itself has already rolled back. Best-effort: a write
	// error here is logged by the caller and never replaces the original error
	LogApplyFailure(ctx context.Context, rec model.ApplyFailureRecord) error
}
