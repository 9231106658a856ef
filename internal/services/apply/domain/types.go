// Package domain defines the core types and interfaces for the apply
// service: the transactional at-most-once AcceptLedger contract of spec
// §4.12, layered on top of the pure internal/core/apply.ApplySuggestionActions
package domain

import (
	"shiftsage/internal/core/apply"
	"shiftsage/internal/core/engine"
	"shiftsage/internal/core/model"
)

// Status is the outcome of a single acceptSuggestion/rejectSuggestion call
type Status string

const (
	StatusApplied Status = "applied"
	StatusNoop    Status = "noop"
	StatusFailed  Status = "failed"
)

// AcceptInput bundles what acceptSuggestion needs: the suggestion to apply,
// identity for the ledger key, and the engine input used to recompute
// violations after the apply (the "re-run the engine" step of §4.11)
type AcceptInput struct {
	UnitID         string
	SuggestionID   string
	SignatureHash  string
	Suggestion     model.Suggestion
	SessionID      string
	Engine         engine.Input
	DecisionSource model.DecisionSource
	Reason         string
}

// RejectInput bundles what rejectSuggestion needs: it writes a decision
// record only, never touching shifts or the applied ledger
type RejectInput struct {
	UnitID         string
	SuggestionID   string
	SessionID      string
	DecisionSource model.DecisionSource
	Reason         string
}

// AcceptResult is returned from acceptSuggestion
type AcceptResult struct {
	Status          Status
	AlreadyApplied  bool
	Decision        apply.Decision
	Delta           apply.Delta
	AppliedShiftIDs []string
}
