// Package assistant assembles the final suggestion/explanation response:
// it overlays session decisions, hides accepted suggestions, and enforces
// the response invariants
package assistant

import (
	"fmt"
	"sort"

	"shiftsage/internal/core/decision"
	"shiftsage/internal/core/explain"
	"shiftsage/internal/core/model"
	"shiftsage/internal/core/signature"
)

// Config controls assembly behaviour
type Config struct {
	BucketMinutes int
	HashOptions   signature.Options
	// Strict causes InvariantViolation to be returned as an error instead of
	// only being reported via InvariantSink; non-production callers should
	// set this so a broken invariant fails loudly instead of just logging
	Strict        bool
	InvariantSink func(string)
}

// Result is the assembled response
type Result struct {
	Suggestions  []model.AssistantSuggestion
	Explanations []model.Explanation
}

// InvariantViolation reports a broken response invariant when Config.Strict is set
type InvariantViolation struct {
	Messages []string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("assistant: %d invariant(s) violated: %v", len(e.Messages), e.Messages)
}

func sourceLabel(s *model.DecisionSource) string {
	if s != nil && *s == model.SourceSystem {
		return "System"
	}
	return "User"
}

// Assemble derives identity and signature metadata for raw suggestions and
// violations and folds in the session's decision overlay, if any
func Assemble(cfg Config, suggestions []model.Suggestion, violations []model.Violation, session *model.AssistantSession) (Result, error) {
	bucket := cfg.BucketMinutes
	if bucket <= 0 {
		bucket = 60
	}
	sink := cfg.InvariantSink
	if sink == nil {
		sink = func(string) {}
	}

	all := make([]model.AssistantSuggestion, 0, len(suggestions))
	for _, s := range suggestions {
		id, meta := signature.Build(s, cfg.HashOptions)
		all = append(all, model.AssistantSuggestion{
			ID: id, Meta: meta, Type: s.Type, Explanation: s.Explanation,
			ExpectedImpact: s.ExpectedImpact, Actions: s.Actions,
		})
	}

	var decisionMap map[string]model.DecisionRecord
	hasSession := session != nil
	if hasSession {
		normalized := decision.Normalize(session.Decisions)
		decisionMap = resolveDecisionMap(normalized, all)
	}

	suggestionExplanations := explain.BuildSuggestionExplanations(all, violations, bucket)
	violationExplanations := explain.BuildViolationExplanations(violations)

	explanations := make([]model.Explanation, 0, len(suggestionExplanations)+len(violationExplanations))
	explanations = append(explanations, suggestionExplanations...)
	explanations = append(explanations, violationExplanations...)

	var visible []model.AssistantSuggestion
	for _, s := range all {
		rec, hasDecision := decisionMap[s.ID]
		if hasDecision {
			explanations = append(explanations, decisionExplanation(s, rec))
		}
		if hasDecision && rec.Decision == model.DecisionValueAccepted {
			continue // accepted suggestions are hidden from the visible list
		}
		if hasSession {
			state := model.DecisionPending
			if hasDecision && rec.Decision == model.DecisionValueRejected {
				state = model.DecisionRejected
			}
			s.DecisionState = &state
		}
		visible = append(visible, s)
	}

	sort.SliceStable(visible, func(i, j int) bool { return visible[i].ID < visible[j].ID })
	sort.SliceStable(explanations, func(i, j int) bool { return explanations[i].ID < explanations[j].ID })

	result := Result{Suggestions: visible, Explanations: explanations}

	if msgs := checkInvariants(result, hasSession, decisionMap); len(msgs) > 0 {
		for _, m := range msgs {
			sink(m)
		}
		if cfg.Strict {
			return result, &InvariantViolation{Messages: msgs}
		}
	}

	return result, nil
}

// decisionExplanation builds the "info"-kind explanation for a decision
// that resolves to a current suggestion. Only called when a decision for s
// is already known to exist
func decisionExplanation(s model.AssistantSuggestion, rec model.DecisionRecord) model.Explanation {
	var id, title, why, whatIf string
	if rec.Decision == model.DecisionValueAccepted {
		id = fmt.Sprintf("info:suggestion-applied:%s", s.ID)
		title = "Suggestion applied"
		why = s.Explanation
		whatIf = s.ExpectedImpact
	} else {
		id = fmt.Sprintf("info:suggestion-dismissed:%s", s.ID)
		title = "Suggestion dismissed"
	}

	whyNow := fmt.Sprintf("%s decision: %s", sourceLabel(rec.Source), rec.Decision)
	if rec.Reason != "" {
		whyNow += " — " + rec.Reason
	}

	meta := map[string]any{
		"decisionSource":    rec.Source,
		"hasDecisionReason": rec.Reason != "",
		"decision":          rec.Decision,
	}
	if rec.Timestamp != nil {
		meta["decisionTimestamp"] = *rec.Timestamp
	}

	return model.Explanation{
		ID:                  id,
		Kind:                model.ExplanationInfo,
		Title:               title,
		Why:                 why,
		WhyNow:              whyNow,
		WhatIfAccepted:      whatIf,
		RelatedSuggestionID: s.ID,
		Meta:                meta,
	}
}

// resolveDecisionMap keys every normalized decision by its suggestion's V2
// ID. Decisions already keyed by V2 pass through directly; decisions keyed
// by the legacy V1 ID are matched by recomputing V1 for every current
// suggestion
func resolveDecisionMap(normalized []model.DecisionRecord, current []model.AssistantSuggestion) map[string]model.DecisionRecord {
	v2IDs := make(map[string]struct{}, len(current))
	v1ToV2 := make(map[string]string, len(current))
	for _, s := range current {
		v2IDs[s.ID] = struct{}{}
		v1ToV2[s.Meta.V1SuggestionID] = s.ID
	}

	out := make(map[string]model.DecisionRecord, len(normalized))
	for _, rec := range normalized {
		if _, ok := v2IDs[rec.SuggestionID]; ok {
			out[rec.SuggestionID] = rec
			continue
		}
		if v2, ok := v1ToV2[rec.SuggestionID]; ok {
			out[v2] = rec
		}
	}
	return out
}

// checkInvariants verifies the conditions over the assembled result that
// don't require knowing the raw pre-assembly suggestions/violations:
// no duplicate suggestion IDs, no accepted suggestion still listed, no
// decisionState without a session, and every explanation's
// relatedSuggestionId resolves to a listed suggestion or a decision
func checkInvariants(r Result, hasSession bool, decisionMap map[string]model.DecisionRecord) []string {
	var msgs []string

	seen := make(map[string]bool, len(r.Suggestions))
	for _, s := range r.Suggestions {
		if seen[s.ID] {
			msgs = append(msgs, fmt.Sprintf("duplicate suggestion id %s", s.ID))
		}
		seen[s.ID] = true
		if s.DecisionState != nil && *s.DecisionState == model.DecisionAccepted {
			msgs = append(msgs, fmt.Sprintf("accepted suggestion %s still listed", s.ID))
		}
		if !hasSession && s.DecisionState != nil {
			msgs = append(msgs, fmt.Sprintf("decisionState present without a session for suggestion %s", s.ID))
		}
	}

	for _, e := range r.Explanations {
		if e.RelatedSuggestionID == "" {
			continue
		}
		if seen[e.RelatedSuggestionID] {
			continue
		}
		if _, ok := decisionMap[e.RelatedSuggestionID]; ok {
			continue
		}
		msgs = append(msgs, fmt.Sprintf("explanation %s references unknown suggestion %s", e.ID, e.RelatedSuggestionID))
	}

	return msgs
}
