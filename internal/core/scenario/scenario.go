// Package scenario rewrites the engine's shifts and minimum-coverage
// ruleset according to a list of scenarios
package scenario

import (
	"math"
	"sort"

	"shiftsage/internal/core/model"
	"shiftsage/internal/core/timeutil"
)

// Stats reports the side effects of a Rewrite call
type Stats struct {
	RemovedShiftsCount   int
	AddedRulesCount      int
	OverriddenRulesCount int
}

// Rewrite applies scenarios, in input order, to shifts and rules. Invalid
// scenario elements (bad dateKeys, non-positive minCounts, inverted time
// ranges) are silently dropped; Rewrite never errors
func Rewrite(shifts []model.Shift, rules []model.MinCoverageRule, scenarios []model.Scenario) ([]model.Shift, []model.MinCoverageRule, Stats) {
	outShifts := append([]model.Shift(nil), shifts...)
	outRules := append([]model.MinCoverageRule(nil), rules...)
	var stats Stats

	for _, sc := range scenarios {
		switch sc.Kind {
		case model.ScenarioSickness:
			outShifts, stats.RemovedShiftsCount = applySickness(outShifts, sc, stats.RemovedShiftsCount)
		case model.ScenarioEvent, model.ScenarioPeak:
			outRules, stats = applyCoverage(outRules, sc, stats)
		case model.ScenarioLastMinute:
			// no engine-side effect in this core; patches are consumed by
			// the caller
		default:
			// forward-compat ignore for unknown scenario kinds
		}
	}

	return outShifts, outRules, stats
}

func validDateKeys(xs []string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if timeutil.ValidDateKey(x) {
			out = append(out, x)
		}
	}
	return out
}

func applySickness(shifts []model.Shift, sc model.Scenario, removedSoFar int) ([]model.Shift, int) {
	if sc.Sickness == nil {
		return shifts, removedSoFar
	}
	dateSet := make(map[string]struct{})
	for _, dk := range validDateKeys(sc.Sickness.DateKeys) {
		dateSet[dk] = struct{}{}
	}
	for _, dk := range validDateKeys(sc.DateKeys) {
		dateSet[dk] = struct{}{}
	}
	if sc.Sickness.UserID == "" || len(dateSet) == 0 {
		return shifts, removedSoFar
	}

	out := make([]model.Shift, 0, len(shifts))
	removed := 0
	for _, sh := range shifts {
		if sh.UserID == sc.Sickness.UserID {
			if _, hit := dateSet[sh.DateKey]; hit {
				removed++
				continue
			}
		}
		out = append(out, sh)
	}
	return out, removedSoFar + removed
}

// candidateRules builds the validated MinCoverageRule set implied by an
// EVENT/PEAK scenario's payload, one rule per override
func candidateRules(sc model.Scenario) []model.MinCoverageRule {
	if sc.Coverage == nil {
		return nil
	}
	dateKeys := validDateKeys(sc.Coverage.DateKeys)
	if len(dateKeys) == 0 {
		return nil
	}
	start, errS := timeutil.ParseHHmm(sc.Coverage.TimeRange.StartHHmm)
	end, errE := timeutil.ParseHHmm(sc.Coverage.TimeRange.EndHHmm)
	if errS != nil || errE != nil || end <= start {
		return nil
	}

	var out []model.MinCoverageRule
	for _, ov := range sc.Coverage.MinCoverageOverrides {
		minCount := int(math.Floor(float64(ov.MinCount)))
		if minCount <= 0 {
			continue
		}
		out = append(out, model.MinCoverageRule{
			PositionID: ov.PositionID,
			DateKeys:   append([]string(nil), dateKeys...),
			StartTime:  sc.Coverage.TimeRange.StartHHmm,
			EndTime:    sc.Coverage.TimeRange.EndHHmm,
			MinCount:   minCount,
		})
	}
	return out
}

func ruleKeyMatches(a, b model.MinCoverageRule) bool {
	return a.PositionID == b.PositionID && a.StartTime == b.StartTime && a.EndTime == b.EndTime
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func applyCoverage(rules []model.MinCoverageRule, sc model.Scenario, stats Stats) ([]model.MinCoverageRule, Stats) {
	newRules := candidateRules(sc)
	if len(newRules) == 0 {
		return rules, stats
	}

	mode := sc.InheritMode
	if mode == "" {
		mode = model.InheritAdd
	}

	switch mode {
	case model.InheritOverride:
		for _, nr := range newRules {
			toRemove := make(map[int]bool, len(rules))
			for _, dk := range nr.DateKeys {
				for i, existing := range rules {
					if ruleKeyMatches(existing, nr) && containsString(existing.DateKeys, dk) {
						toRemove[i] = true
						stats.OverriddenRulesCount++
					}
				}
			}
			if len(toRemove) > 0 {
				filtered := make([]model.MinCoverageRule, 0, len(rules))
				for i, r := range rules {
					if !toRemove[i] {
						filtered = append(filtered, r)
					}
				}
				rules = filtered
			}
			rules = append(rules, nr)
			stats.AddedRulesCount++
		}

	case model.InheritIfEmpty:
		for _, nr := range newRules {
			hasAnyMatch := false
			for _, dk := range nr.DateKeys {
				for _, existing := range rules {
					if ruleKeyMatches(existing, nr) && containsString(existing.DateKeys, dk) {
						hasAnyMatch = true
					}
				}
			}
			if !hasAnyMatch {
				rules = append(rules, nr)
				stats.AddedRulesCount++
			}
		}

	default: // ADD
		for _, nr := range newRules {
			rules = append(rules, nr)
			stats.AddedRulesCount++
		}
	}

	return rules, stats
}

// SortRulesForDeterminism orders rules for stable downstream iteration
// (tests and callers that want canonical ordering rather than append order)
func SortRulesForDeterminism(rules []model.MinCoverageRule) []model.MinCoverageRule {
	out := append([]model.MinCoverageRule(nil), rules...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PositionID != b.PositionID {
			return a.PositionID < b.PositionID
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.EndTime < b.EndTime
	})
	return out
}
