// Package apply validates and applies a suggestion's actions against the
// current shift list, and computes the before/after violation delta. It
// is pure: no I/O, no clock, no ledger
package apply

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"shiftsage/internal/core/model"
	"shiftsage/internal/core/signature"
	"shiftsage/internal/core/timeutil"
)

// Outcome is the result of applying one suggestion's actions
type Outcome struct {
	NextShifts         []model.Shift
	AppliedActionKeys  []string
	RejectedActionKeys []string
	Issues             []string
}

// genShiftID builds the deterministic createShift ID:
// gen:{userId}:{dateKey}:{startTime}:{endTime}:{positionId?}
func genShiftID(userID, dateKey, startTime, endTime, positionID string) string {
	return fmt.Sprintf("gen:%s:%s:%s:%s:%s", userID, dateKey, startTime, endTime, positionID)
}

// sanitizedHash is used only to give a malformed action's rejection message
// a stable, content-derived suffix, matching the "no undefined literal"
// posture the rest of the engine holds to
func sanitizedHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ApplySuggestionActions validates and applies each action in order,
// against shifts and the active-user set in users. Actions that fail
// validation are rejected individually; the remaining actions still apply
func ApplySuggestionActions(shifts []model.Shift, users []model.User, actions []model.SuggestionAction) Outcome {
	activeUsers := make(map[string]bool, len(users))
	for _, u := range users {
		activeUsers[u.ID] = u.IsActive
	}

	next := append([]model.Shift(nil), shifts...)
	byID := make(map[string]int, len(next))
	for i, sh := range next {
		byID[sh.ID] = i
	}

	var out Outcome
	for _, a := range actions {
		key, degraded, reason := signature.ActionKey(a)
		if degraded {
			out.RejectedActionKeys = append(out.RejectedActionKeys, key)
			out.Issues = append(out.Issues, reason)
			continue
		}

		switch a.Kind {
		case model.ActionCreateShift:
			c := a.Create
			if _, err := timeutil.ParseHHmm(c.StartTime); err != nil {
				out.RejectedActionKeys = append(out.RejectedActionKeys, key)
				out.Issues = append(out.Issues, "createShift: unparseable startTime")
				continue
			}
			if _, err := timeutil.ParseHHmm(c.EndTime); err != nil {
				out.RejectedActionKeys = append(out.RejectedActionKeys, key)
				out.Issues = append(out.Issues, "createShift: unparseable endTime")
				continue
			}
			if !timeutil.ValidDateKey(c.DateKey) {
				out.RejectedActionKeys = append(out.RejectedActionKeys, key)
				out.Issues = append(out.Issues, "createShift: invalid dateKey")
				continue
			}
			if isActive, known := activeUsers[c.UserID]; !known || !isActive {
				out.RejectedActionKeys = append(out.RejectedActionKeys, key)
				out.Issues = append(out.Issues, "createShift: user inactive or unknown")
				continue
			}

			id := genShiftID(c.UserID, c.DateKey, c.StartTime, c.EndTime, c.PositionID)
			sh := model.Shift{ID: id, UserID: c.UserID, DateKey: c.DateKey, StartTime: c.StartTime, EndTime: strPtr(c.EndTime)}
			if c.PositionID != "" {
				sh.PositionID = strPtr(c.PositionID)
			}
			if i, exists := byID[id]; exists {
				next[i] = sh
			} else {
				byID[id] = len(next)
				next = append(next, sh)
			}
			out.AppliedActionKeys = append(out.AppliedActionKeys, key)

		case model.ActionMoveShift:
			m := a.Move
			if _, err := timeutil.ParseHHmm(m.NewStartTime); err != nil {
				out.RejectedActionKeys = append(out.RejectedActionKeys, key)
				out.Issues = append(out.Issues, "moveShift: unparseable newStartTime")
				continue
			}
			if _, err := timeutil.ParseHHmm(m.NewEndTime); err != nil {
				out.RejectedActionKeys = append(out.RejectedActionKeys, key)
				out.Issues = append(out.Issues, "moveShift: unparseable newEndTime")
				continue
			}
			if !timeutil.ValidDateKey(m.DateKey) {
				out.RejectedActionKeys = append(out.RejectedActionKeys, key)
				out.Issues = append(out.Issues, "moveShift: invalid dateKey")
				continue
			}
			idx, exists := byID[m.ShiftID]
			if !exists {
				out.RejectedActionKeys = append(out.RejectedActionKeys, key)
				out.Issues = append(out.Issues, fmt.Sprintf("moveShift: shift %s not found", m.ShiftID))
				continue
			}
			existing := next[idx]
			if existing.UserID != m.UserID {
				out.RejectedActionKeys = append(out.RejectedActionKeys, key)
				out.Issues = append(out.Issues, fmt.Sprintf("moveShift: cross-user hijack of shift %s (hash %s)", m.ShiftID, sanitizedHash(key)))
				continue
			}
			if isActive, known := activeUsers[m.UserID]; !known || !isActive {
				out.RejectedActionKeys = append(out.RejectedActionKeys, key)
				out.Issues = append(out.Issues, "moveShift: user inactive or unknown")
				continue
			}

			updated := existing
			updated.DateKey = m.DateKey
			updated.StartTime = m.NewStartTime
			updated.EndTime = strPtr(m.NewEndTime)
			if m.PositionID != "" {
				updated.PositionID = strPtr(m.PositionID)
			} else {
				updated.PositionID = nil
			}
			next[idx] = updated
			out.AppliedActionKeys = append(out.AppliedActionKeys, key)

		default:
			out.RejectedActionKeys = append(out.RejectedActionKeys, key)
			out.Issues = append(out.Issues, "unknown action kind")
		}
	}

	sort.SliceStable(next, func(i, j int) bool {
		a, b := next[i], next[j]
		if a.DateKey != b.DateKey {
			return a.DateKey < b.DateKey
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		ap, bp := positionOf(a), positionOf(b)
		if ap != bp {
			return ap < bp
		}
		return a.ID < b.ID
	})

	out.NextShifts = next
	return out
}

func positionOf(s model.Shift) string {
	if s.PositionID == nil {
		return ""
	}
	return *s.PositionID
}

func strPtr(s string) *string { return &s }

// Decision is the acceptance outcome of applying a suggestion
type Decision string

const (
	DecisionAccepted          Decision = "accepted"
	DecisionPartiallyAccepted Decision = "partially-accepted"
	DecisionRejected          Decision = "rejected"
)

// Classify derives the accepted/partially-accepted/rejected decision from
// an Outcome
func Classify(o Outcome) Decision {
	switch {
	case len(o.AppliedActionKeys) == 0:
		return DecisionRejected
	case len(o.RejectedActionKeys) == 0:
		return DecisionAccepted
	default:
		return DecisionPartiallyAccepted
	}
}

// Delta is the before/after violation comparison: resolvedViolations are
// violations present before but gone after; newViolations are the reverse
type Delta struct {
	ResolvedViolations []model.Violation
	NewViolations      []model.Violation
}

// ComputeDelta compares two violation sets by ID: violations present before
// but absent after are "resolved"; violations present after but absent
// before are "new". ComputeDelta additionally requires the decision is
// accepted|partially-accepted to be meaningful, which acceptSuggestion
// (internal/services/apply) enforces
func ComputeDelta(before, after []model.Violation) Delta {
	beforeSet := make(map[string]model.Violation, len(before))
	for _, v := range before {
		beforeSet[v.ID] = v
	}
	afterSet := make(map[string]model.Violation, len(after))
	for _, v := range after {
		afterSet[v.ID] = v
	}

	var delta Delta
	for _, v := range before {
		if _, stillThere := afterSet[v.ID]; !stillThere {
			delta.ResolvedViolations = append(delta.ResolvedViolations, v)
		}
	}
	for _, v := range after {
		if _, wasThere := beforeSet[v.ID]; !wasThere {
			delta.NewViolations = append(delta.NewViolations, v)
		}
	}

	sort.SliceStable(delta.ResolvedViolations, func(i, j int) bool { return delta.ResolvedViolations[i].ID < delta.ResolvedViolations[j].ID })
	sort.SliceStable(delta.NewViolations, func(i, j int) bool { return delta.NewViolations[i].ID < delta.NewViolations[j].ID })
	return delta
}
