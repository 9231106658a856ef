// Package explain joins suggestions to the violations they resolve and
// composes the why/whyNow/whatIfAccepted narrative
package explain

import (
	"fmt"
	"sort"
	"strings"

	"shiftsage/internal/core/model"
	"shiftsage/internal/core/timeutil"
)

const maxLinkedShown = 5
const maxWhyNowLen = 200

// SuggestionAffected computes the union of entities a suggestion's actions
// touch: userIds/shiftIds/dateKeys sorted & deduplicated, positionId the
// lexicographically smallest non-empty one seen
func SuggestionAffected(s model.AssistantSuggestion) model.Affected {
	userSet := map[string]struct{}{}
	dateSet := map[string]struct{}{}
	shiftSet := map[string]struct{}{}
	var positions []string

	for _, a := range s.Actions {
		switch a.Kind {
		case model.ActionCreateShift:
			if a.Create == nil {
				continue
			}
			userSet[a.Create.UserID] = struct{}{}
			dateSet[a.Create.DateKey] = struct{}{}
			if a.Create.PositionID != "" {
				positions = append(positions, a.Create.PositionID)
			}
		case model.ActionMoveShift:
			if a.Move == nil {
				continue
			}
			userSet[a.Move.UserID] = struct{}{}
			dateSet[a.Move.DateKey] = struct{}{}
			shiftSet[a.Move.ShiftID] = struct{}{}
			if a.Move.PositionID != "" {
				positions = append(positions, a.Move.PositionID)
			}
		}
	}

	affected := model.Affected{
		UserIDs:  sortedKeys(userSet),
		DateKeys: sortedKeys(dateSet),
		ShiftIDs: sortedKeys(shiftSet),
	}
	if len(positions) > 0 {
		sort.Strings(positions)
		affected.PositionID = positions[0]
	}
	return affected
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// isLinked reports whether a violation shares any identifying field with a
// suggestion's affected-entity union
func isLinked(v model.Violation, affected model.Affected, slots map[string]struct{}) bool {
	if affected.PositionID != "" && v.Affected.PositionID == affected.PositionID {
		return true
	}
	if containsAny(v.Affected.UserIDs, affected.UserIDs) {
		return true
	}
	if containsAny(v.Affected.ShiftIDs, affected.ShiftIDs) {
		return true
	}
	if containsAny(v.Affected.DateKeys, affected.DateKeys) {
		return true
	}
	for _, s := range v.Affected.Slots {
		if _, ok := slots[s]; ok {
			return true
		}
	}
	return false
}

func containsAny(xs, ys []string) bool {
	if len(xs) == 0 || len(ys) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(ys))
	for _, y := range ys {
		set[y] = struct{}{}
	}
	for _, x := range xs {
		if _, ok := set[x]; ok {
			return true
		}
	}
	return false
}

// actionSlots enumerates the bucket-aligned slotKeys an action's merged time
// range spans, so a violation can also be linked purely by slot overlap
func actionSlots(s model.AssistantSuggestion, bucketMinutes int) map[string]struct{} {
	out := map[string]struct{}{}
	for _, a := range s.Actions {
		var dateKey, startS, endS string
		switch a.Kind {
		case model.ActionCreateShift:
			if a.Create == nil {
				continue
			}
			dateKey, startS, endS = a.Create.DateKey, a.Create.StartTime, a.Create.EndTime
		case model.ActionMoveShift:
			if a.Move == nil {
				continue
			}
			dateKey, startS, endS = a.Move.DateKey, a.Move.NewStartTime, a.Move.NewEndTime
		default:
			continue
		}
		start, errS := timeutil.ParseHHmm(startS)
		end, errE := timeutil.ParseHHmm(endS)
		if errS != nil || errE != nil {
			continue
		}
		if end <= start {
			end += timeutil.MinutesPerDay
		}
		for _, m := range timeutil.EnumerateSlots(start, end, bucketMinutes) {
			dk, norm, err := timeutil.DateKeyForWrappedMinute(dateKey, m)
			if err != nil {
				continue
			}
			out[string(timeutil.NewSlotKey(dk, norm, bucketMinutes))] = struct{}{}
		}
	}
	return out
}

// whyNow composes the "Linked to violations: ..." narrative, truncated at
// 200 chars
func whyNow(linkedIDs []string) string {
	if len(linkedIDs) == 0 {
		return ""
	}
	shown := linkedIDs
	suffix := ""
	if len(shown) > maxLinkedShown {
		shown = shown[:maxLinkedShown]
		suffix = fmt.Sprintf(" (+%d more)", len(linkedIDs)-maxLinkedShown)
	}
	s := "Linked to violations: " + strings.Join(shown, ", ") + suffix
	if len(s) > maxWhyNowLen {
		s = s[:maxWhyNowLen-3] + "..."
	}
	return s
}

// BuildSuggestionExplanations produces one "suggestion"-kind Explanation per
// AssistantSuggestion, joined against the violation list
func BuildSuggestionExplanations(suggestions []model.AssistantSuggestion, violations []model.Violation, bucketMinutes int) []model.Explanation {
	out := make([]model.Explanation, 0, len(suggestions))
	for _, s := range suggestions {
		affected := SuggestionAffected(s)
		slots := actionSlots(s, bucketMinutes)

		var linked []model.Violation
		for _, v := range violations {
			if isLinked(v, affected, slots) {
				linked = append(linked, v)
			}
		}
		sort.SliceStable(linked, func(i, j int) bool { return linked[i].ID < linked[j].ID })

		linkedIDs := make([]string, len(linked))
		relatedConstraintID := ""
		for i, v := range linked {
			linkedIDs[i] = v.ID
			if relatedConstraintID == "" || v.ConstraintID < relatedConstraintID {
				relatedConstraintID = v.ConstraintID
			}
		}

		sev := model.SeverityMedium
		if len(linked) > 0 {
			sev = linked[0].Severity
			for _, v := range linked {
				if v.Severity == model.SeverityHigh {
					sev = model.SeverityHigh
				}
			}
		}

		out = append(out, model.Explanation{
			ID:                  fmt.Sprintf("explanation:suggestion:%s", s.ID),
			Kind:                model.ExplanationSuggestion,
			Severity:            sev,
			Title:               string(s.Type),
			Details:             s.Explanation,
			Why:                 s.Explanation,
			WhyNow:              whyNow(linkedIDs),
			WhatIfAccepted:      s.ExpectedImpact,
			Affected:            affected,
			RelatedSuggestionID: s.ID,
			RelatedConstraintID: relatedConstraintID,
		})
	}
	return out
}

// BuildViolationExplanations produces one "violation"-kind Explanation per
// violation, mirroring its own fields
func BuildViolationExplanations(violations []model.Violation) []model.Explanation {
	out := make([]model.Explanation, 0, len(violations))
	for _, v := range violations {
		out = append(out, model.Explanation{
			ID:                  fmt.Sprintf("explanation:violation:%s", v.ID),
			Kind:                model.ExplanationViolation,
			Severity:            v.Severity,
			Title:               v.ConstraintID,
			Details:             v.Details,
			Affected:            v.Affected,
			RelatedConstraintID: v.ConstraintID,
		})
	}
	return out
}
