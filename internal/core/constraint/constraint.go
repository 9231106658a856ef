// Package constraint evaluates a capacity map and shift list against a
// ruleset, emitting deterministic violations
package constraint

import (
	"fmt"
	"sort"

	"shiftsage/internal/core/availability"
	"shiftsage/internal/core/capacity"
	"shiftsage/internal/core/model"
	"shiftsage/internal/core/timeutil"
)

// Input bundles everything the evaluator needs
type Input struct {
	Shifts                  []model.Shift
	Capacity                capacity.Map
	Ruleset                 model.Ruleset
	EmployeeProfilesByUser  map[string]model.EmployeeProfile
	BucketMinutes           int
}

// Evaluate runs both MIN_COVERAGE_BY_POSITION and EMPLOYEE_AVAILABILITY and
// returns violations sorted by (dateKey, slot, constraintId, positionId, userId)
func Evaluate(in Input) []model.Violation {
	bucket := in.BucketMinutes
	if !timeutil.ValidBucketMinutes(bucket) {
		bucket = 60
	}

	var out []model.Violation
	out = append(out, evalMinCoverage(in.Ruleset.MinCoverageByPosition, in.Capacity, bucket)...)
	out = append(out, evalAvailability(in.Shifts, in.EmployeeProfilesByUser)...)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ak := sortKey(a)
		bk := sortKey(b)
		return ak < bk
	})

	return out
}

// sortKey builds the composite (dateKey, slot, constraintId, positionId,
// userId) tuple as a single comparable string
func sortKey(v model.Violation) string {
	dateKey := ""
	if len(v.Affected.DateKeys) > 0 {
		dateKey = v.Affected.DateKeys[0]
	}
	slot := ""
	if len(v.Affected.Slots) > 0 {
		slot = v.Affected.Slots[0]
	}
	userID := ""
	if len(v.Affected.UserIDs) > 0 {
		userID = v.Affected.UserIDs[0]
	}
	return dateKey + "\x00" + slot + "\x00" + v.ConstraintID + "\x00" + v.Affected.PositionID + "\x00" + userID
}

func evalMinCoverage(rules []model.MinCoverageRule, cap capacity.Map, bucket int) []model.Violation {
	var out []model.Violation
	for _, rule := range rules {
		if rule.MinCount <= 0 {
			continue
		}
		start, err := timeutil.ParseHHmm(rule.StartTime)
		if err != nil {
			continue
		}
		end, err := timeutil.ParseHHmm(rule.EndTime)
		if err != nil {
			continue
		}
		if end <= start {
			continue
		}
		slots := timeutil.EnumerateSlots(start, end, bucket)
		for _, dateKey := range rule.DateKeys {
			if !timeutil.ValidDateKey(dateKey) {
				continue
			}
			for _, m := range slots {
				slot := timeutil.NewSlotKey(dateKey, m, bucket)
				have := cap.Get(slot, rule.PositionID)
				if have >= rule.MinCount {
					continue
				}
				deficit := rule.MinCount - have
				sev := model.SeverityMedium
				if deficit >= 2 {
					sev = model.SeverityHigh
				}
				hhmm := timeutil.FormatHHmm(m)
				out = append(out, model.Violation{
					ID:           fmt.Sprintf("violation:%s:%s:%s:%s", model.ConstraintMinCoverageByPosition, rule.PositionID, dateKey, hhmm),
					ConstraintID: model.ConstraintMinCoverageByPosition,
					Severity:     sev,
					Affected: model.Affected{
						PositionID: rule.PositionID,
						DateKeys:   []string{dateKey},
						Slots:      []string{string(slot)},
					},
					Details: fmt.Sprintf("need %d, have %d for position %s at %s %s", rule.MinCount, have, rule.PositionID, dateKey, hhmm),
				})
			}
		}
	}
	return out
}

func evalAvailability(shifts []model.Shift, profiles map[string]model.EmployeeProfile) []model.Violation {
	var out []model.Violation
	for _, sh := range shifts {
		if !timeutil.ValidDateKey(sh.DateKey) {
			continue
		}
		start, err := timeutil.ParseHHmm(sh.StartTime)
		if err != nil {
			continue
		}
		var endPtr *int
		if sh.EndTime != nil {
			e, err := timeutil.ParseHHmm(*sh.EndTime)
			if err != nil {
				continue
			}
			endPtr = &e
		}
		end, ok := timeutil.ResolveShiftEnd(start, endPtr, nil, 0)
		if !ok {
			// open-ended shift with no resolvable close time: nothing to
			// check against availability windows
			continue
		}

		var profilePtr *model.EmployeeProfile
		if p, ok := profiles[sh.UserID]; ok {
			profilePtr = &p
		}
		if availability.Covers(profilePtr, sh.DateKey, start, end) {
			continue
		}

		positionID := ""
		if sh.PositionID != nil {
			positionID = *sh.PositionID
		}
		out = append(out, model.Violation{
			ID:           fmt.Sprintf("violation:%s:%s:%s:%s", model.ConstraintEmployeeAvailability, sh.UserID, sh.DateKey, sh.ID),
			ConstraintID: model.ConstraintEmployeeAvailability,
			Severity:     model.SeverityMedium,
			Affected: model.Affected{
				UserIDs:    []string{sh.UserID},
				PositionID: positionID,
				DateKeys:   []string{sh.DateKey},
				ShiftIDs:   []string{sh.ID},
			},
			Details: fmt.Sprintf("user %s is not available for shift %s on %s", sh.UserID, sh.ID, sh.DateKey),
		})
	}
	return out
}
