// Package service implements the apply service: a transactional
// at-most-once accept/reject write path, wrapped around the pure
// internal/core/apply and internal/core/engine packages
package service

import (
	"context"
	"sort"
	"strings"

	coreapply "shiftsage/internal/core/apply"
	"shiftsage/internal/core/engine"
	"shiftsage/internal/core/model"
	"shiftsage/internal/core/timeutil"
	"shiftsage/internal/modkit/repokit"
	"shiftsage/internal/platform/clock"
	perr "shiftsage/internal/platform/errors"
	"shiftsage/internal/platform/logger"
	"shiftsage/internal/services/apply/domain"
)

// Config for the apply service
type Config struct {
	// LedgerTable backs SERVICE_APPLY_LEDGER_TABLE; passed through to repo.NewPG
	LedgerTable string
}

// Service implements acceptSuggestion/rejectSuggestion over a transactional
// Queryer and a domain.StorageRepo binder
type Service struct {
	tx    repokit.TxRunner
	bind  repokit.Binder[domain.StorageRepo]
	clock clock.Clock
	log   logger.Logger
}

// New constructs a new apply Service
func New(tx repokit.TxRunner, bind repokit.Binder[domain.StorageRepo], c clock.Clock, log logger.Logger) *Service {
	if c == nil {
		c = clock.System{}
	}
	return &Service{tx: tx, bind: bind, clock: c, log: log}
}

// AcceptSuggestion resolves a suggestion's actions against the current
// shifts inside a single transaction: already-applied and dedupe-noop
// suggestions short-circuit to a decision-only write, and a genuine apply
// replaces the shift list, records the applied ledger entry, and writes the
// decision record atomically. A transaction failure is logged via
// LogApplyFailure after the rollback, on a best-effort basis
func (s *Service) AcceptSuggestion(ctx context.Context, in domain.AcceptInput) (domain.AcceptResult, error) {
	var result domain.AcceptResult

	err := s.tx.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.bind.Bind(q)

		// Step 1: already applied?
		if _, found, err := repo.GetAppliedLedger(ctx, in.UnitID, in.SuggestionID); err != nil {
			return perr.DBf("apply: read applied ledger: %v", err)
		} else if found {
			result = domain.AcceptResult{Status: domain.StatusNoop, AlreadyApplied: true}
			return nil
		}

		// Step 2: compute prospective writes
		outcome := coreapply.ApplySuggestionActions(in.Engine.Shifts, in.Engine.Users, in.Suggestion.Actions)
		decision := coreapply.Classify(outcome)

		// Step 3: no-op w.r.t. current shifts?
		if dedupeSetsEqual(in.Engine.Shifts, outcome.NextShifts) {
			rec := decisionRecord(in, decision, s.clock.NowUnixMilli())
			if err := repo.PutDecision(ctx, in.UnitID, in.SessionID, rec); err != nil {
				return perr.DBf("apply: write decision (noop): %v", err)
			}
			result = domain.AcceptResult{Status: domain.StatusNoop, Decision: decision}
			return nil
		}

		// Step 4: apply, then re-run the engine to compute the delta
		before, err := engine.Run(in.Engine)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeDB, "apply: recompute before-violations")
		}
		afterInput := in.Engine
		afterInput.Shifts = outcome.NextShifts
		after, err := engine.Run(afterInput)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeDB, "apply: recompute after-violations")
		}
		delta := coreapply.ComputeDelta(before.Violations, after.Violations)

		if err := repo.ReplaceShifts(ctx, in.UnitID, outcome.NextShifts); err != nil {
			return perr.DBf("apply: replace shifts: %v", err)
		}

		ledgerRec := model.AppliedLedgerRecord{
			SuggestionID:    in.SuggestionID,
			UnitID:          in.UnitID,
			SignatureHash:   in.SignatureHash,
			AppliedAt:       s.clock.NowUnixMilli(),
			AppliedShiftIDs: append([]string(nil), outcome.AppliedActionKeys...),
		}
		if err := repo.PutAppliedLedger(ctx, ledgerRec); err != nil {
			return perr.DBf("apply: write applied ledger: %v", err)
		}

		rec := decisionRecord(in, decision, s.clock.NowUnixMilli())
		if err := repo.PutDecision(ctx, in.UnitID, in.SessionID, rec); err != nil {
			return perr.DBf("apply: write decision: %v", err)
		}

		result = domain.AcceptResult{
			Status:          domain.StatusApplied,
			Decision:        decision,
			Delta:           delta,
			AppliedShiftIDs: ledgerRec.AppliedShiftIDs,
		}
		return nil
	})
	if err != nil {
		s.logApplyFailure(ctx, in, err)
		return domain.AcceptResult{Status: domain.StatusFailed}, err
	}
	return result, nil
}

// logApplyFailure records why the transaction above threw. It runs after the
// rollback has already happened, as its own auto-committing write against
// s.tx (a repokit.TxRunner embeds the Queryer methods directly). A failure
// here is only logged: it must never replace the original transaction error
func (s *Service) logApplyFailure(ctx context.Context, in domain.AcceptInput, txErr error) {
	rec := model.ApplyFailureRecord{
		UnitID:       in.UnitID,
		SuggestionID: in.SuggestionID,
		SessionID:    in.SessionID,
		Reason:       timeutil.SanitizeReason(txErr.Error()),
		OccurredAt:   s.clock.NowUnixMilli(),
	}
	if err := s.bind.Bind(s.tx).LogApplyFailure(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("unitId", in.UnitID).Str("suggestionId", in.SuggestionID).
			Msg("apply: failed to log apply failure")
	}
}

// RejectSuggestion only ever writes a decision record; it never touches
// shifts or the applied ledger
func (s *Service) RejectSuggestion(ctx context.Context, in domain.RejectInput) error {
	return s.tx.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.bind.Bind(q)
		ts := s.clock.NowUnixMilli()
		rec := model.DecisionRecord{
			SuggestionID:      in.SuggestionID,
			Decision:          model.DecisionValueRejected,
			Timestamp:         &ts,
			SessionID:         in.SessionID,
			SuggestionVersion: model.SuggestionVersionV2,
			Reason:            timeutil.SanitizeReason(in.Reason),
		}
		if in.DecisionSource != "" {
			src := in.DecisionSource
			rec.Source = &src
		}
		if err := repo.PutDecision(ctx, in.UnitID, in.SessionID, rec); err != nil {
			return perr.DBf("apply: write decision (reject): %v", err)
		}
		return nil
	})
}

// decisionRecord maps an apply.Decision (accepted/partially-accepted/rejected)
// down to the two-valued model.Decision a DecisionRecord carries:
// partially-accepted still counts as accepted since the suggestion itself
// was accepted by the caller, just not every action applied cleanly
func decisionRecord(in domain.AcceptInput, d coreapply.Decision, ts int64) model.DecisionRecord {
	val := model.DecisionValueRejected
	if d == coreapply.DecisionAccepted || d == coreapply.DecisionPartiallyAccepted {
		val = model.DecisionValueAccepted
	}
	rec := model.DecisionRecord{
		SuggestionID:      in.SuggestionID,
		Decision:          val,
		Timestamp:         &ts,
		SessionID:         in.SessionID,
		SuggestionVersion: model.SuggestionVersionV2,
		Reason:            timeutil.SanitizeReason(in.Reason),
	}
	if in.DecisionSource != "" {
		src := in.DecisionSource
		rec.Source = &src
	}
	return rec
}

// dedupeSetsEqual compares two shift lists by the
// (userId, dateKey, startTime, endTime, positionId) dedupe key,
// ignoring shift ID and order
func dedupeSetsEqual(before, after []model.Shift) bool {
	if len(before) != len(after) {
		return false
	}
	bk := dedupeKeys(before)
	ak := dedupeKeys(after)
	for i := range bk {
		if bk[i] != ak[i] {
			return false
		}
	}
	return true
}

func dedupeKeys(shifts []model.Shift) []string {
	keys := make([]string, len(shifts))
	for i, sh := range shifts {
		end := ""
		if sh.EndTime != nil {
			end = *sh.EndTime
		}
		pos := ""
		if sh.PositionID != nil {
			pos = *sh.PositionID
		}
		keys[i] = strings.Join([]string{sh.UserID, sh.DateKey, sh.StartTime, end, pos}, "|")
	}
	sort.Strings(keys)
	return keys
}
