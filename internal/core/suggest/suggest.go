// Package suggest turns minimum-coverage deficits into ADD_SHIFT/SHIFT_MOVE
// candidates. It never mutates its inputs and never consults a clock or
// RNG: the same deficits and roster always yield the same suggestions in
// the same order
package suggest

import (
	"fmt"
	"sort"

	"shiftsage/internal/core/availability"
	"shiftsage/internal/core/model"
	"shiftsage/internal/core/timeutil"
)

// Input bundles everything the synthesizer needs
type Input struct {
	Violations             []model.Violation
	Shifts                 []model.Shift
	Users                  []model.User
	EmployeeProfilesByUser map[string]model.EmployeeProfile
	BucketMinutes          int
}

type kind int

const (
	kindAdd kind = iota
	kindMove
)

// resolution is one deficit slot's chosen remedy, before contiguous slots
// get collapsed into a single suggestion
type resolution struct {
	dateKey      string
	positionID   string
	startMin     int
	endMin       int
	userID       string
	kind         kind
	moveShiftID  string // set only when kind == kindMove
}

// Synthesize produces one suggestion per contiguous run of deficit slots
// resolved by the same user with the same action kind
func Synthesize(in Input) []model.Suggestion {
	bucket := in.BucketMinutes
	if !timeutil.ValidBucketMinutes(bucket) {
		bucket = 60
	}

	activeUsers := make([]model.User, 0, len(in.Users))
	for _, u := range in.Users {
		if u.IsActive {
			activeUsers = append(activeUsers, u)
		}
	}
	sort.Slice(activeUsers, func(i, j int) bool { return activeUsers[i].ID < activeUsers[j].ID })

	var resolutions []resolution
	for _, v := range in.Violations {
		if v.ConstraintID != model.ConstraintMinCoverageByPosition {
			continue
		}
		if len(v.Affected.DateKeys) == 0 || len(v.Affected.Slots) == 0 {
			continue
		}
		dateKey := v.Affected.DateKeys[0]
		_, hhmm, ok := timeutil.SplitSlotKey(timeutil.SlotKey(v.Affected.Slots[0]))
		if !ok {
			continue
		}
		startMin, err := timeutil.ParseHHmm(hhmm)
		if err != nil {
			continue
		}
		endMin := startMin + bucket

		r, found := chooseResolution(activeUsers, in.Shifts, in.EmployeeProfilesByUser, dateKey, v.Affected.PositionID, startMin, endMin)
		if !found {
			continue
		}
		resolutions = append(resolutions, r)
	}

	return collapse(resolutions)
}

// chooseResolution finds eligible users, prefers moveShift over createShift
// when a single-step relocation works, and picks deterministically among
// remaining candidates
func chooseResolution(
	users []model.User,
	shifts []model.Shift,
	profiles map[string]model.EmployeeProfile,
	dateKey, positionID string,
	startMin, endMin int,
) (resolution, bool) {
	type candidate struct {
		userID      string
		kind        kind
		moveShiftID string
		actionKey   string
	}
	var candidates []candidate

	for _, u := range users {
		var profilePtr *model.EmployeeProfile
		if p, ok := profiles[u.ID]; ok {
			profilePtr = &p
		}
		if !availability.Covers(profilePtr, dateKey, startMin, endMin) {
			continue
		}
		if availability.HasOverlappingShift(shifts, u.ID, dateKey, startMin, endMin, "") {
			continue
		}

		if moveShiftID, ok := findMoveCandidate(shifts, u.ID, dateKey, startMin, endMin); ok {
			candidates = append(candidates, candidate{
				userID: u.ID, kind: kindMove, moveShiftID: moveShiftID,
				actionKey: fmt.Sprintf("moveShift|%s|%s|%s|%s|%s|%s", moveShiftID, u.ID, dateKey, timeutil.FormatHHmm(startMin), timeutil.FormatHHmm(endMin), positionID),
			})
			continue
		}
		candidates = append(candidates, candidate{
			userID: u.ID, kind: kindAdd,
			actionKey: fmt.Sprintf("createShift|%s|%s|%s|%s|%s", u.ID, dateKey, timeutil.FormatHHmm(startMin), timeutil.FormatHHmm(endMin), positionID),
		})
	}

	if len(candidates) == 0 {
		return resolution{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.userID != b.userID {
			return a.userID < b.userID
		}
		if a.kind != b.kind {
			return a.kind < b.kind // ADD(0) before MOVE(1)
		}
		return a.actionKey < b.actionKey
	})

	chosen := candidates[0]
	return resolution{
		dateKey: dateKey, positionID: positionID, startMin: startMin, endMin: endMin,
		userID: chosen.userID, kind: chosen.kind, moveShiftID: chosen.moveShiftID,
	}, true
}

// findMoveCandidate looks for an existing shift of userID on dateKey or an
// adjacent day that could be relocated into [startMin,endMin) without
// overlapping any of the user's other shifts (the single-step relocation
// check). It returns the earliest such shift by (dateKey, startTime) for
// determinism
func findMoveCandidate(shifts []model.Shift, userID, dateKey string, startMin, endMin int) (string, bool) {
	prev, prevErr := timeutil.AddDaysToDateKey(dateKey, -1)
	next, nextErr := timeutil.AddDaysToDateKey(dateKey, 1)

	eligibleDates := map[string]bool{dateKey: true}
	if prevErr == nil {
		eligibleDates[prev] = true
	}
	if nextErr == nil {
		eligibleDates[next] = true
	}

	var best *model.Shift
	for i := range shifts {
		sh := &shifts[i]
		if sh.UserID != userID || !eligibleDates[sh.DateKey] {
			continue
		}
		if sh.DateKey == dateKey {
			s, err := timeutil.ParseHHmm(sh.StartTime)
			if err == nil && s == startMin {
				continue // already sitting in the target slot
			}
		}
		// would relocating this shift collide with the user's other shifts?
		if availability.HasOverlappingShift(shifts, userID, dateKey, startMin, endMin, sh.ID) {
			continue
		}
		if best == nil || sh.DateKey < best.DateKey || (sh.DateKey == best.DateKey && sh.StartTime < best.StartTime) {
			best = sh
		}
	}
	if best == nil {
		return "", false
	}
	return best.ID, true
}

// collapse merges consecutive resolutions that share (dateKey, positionID,
// userID, kind) and form a contiguous time range into a single suggestion
// with one merged-range action
func collapse(resolutions []resolution) []model.Suggestion {
	var out []model.Suggestion
	i := 0
	for i < len(resolutions) {
		j := i + 1
		for j < len(resolutions) && sameGroup(resolutions[i], resolutions[j]) && resolutions[j].startMin == resolutions[j-1].endMin {
			j++
		}
		out = append(out, buildSuggestion(resolutions[i], resolutions[j-1]))
		i = j
	}
	return out
}

func sameGroup(a, b resolution) bool {
	return a.dateKey == b.dateKey && a.positionID == b.positionID && a.userID == b.userID && a.kind == b.kind && a.moveShiftID == b.moveShiftID
}

func buildSuggestion(first, last resolution) model.Suggestion {
	startHHmm := timeutil.FormatHHmm(first.startMin)
	endHHmm := timeutil.FormatHHmm(last.endMin)

	if first.kind == kindMove {
		return model.Suggestion{
			Type:           model.SuggestionShiftMove,
			Explanation:    fmt.Sprintf("move %s's shift to cover the %s-%s coverage gap for %s on %s", first.userID, startHHmm, endHHmm, first.positionID, first.dateKey),
			ExpectedImpact: fmt.Sprintf("resolves the min-coverage deficit for %s on %s %s-%s", first.positionID, first.dateKey, startHHmm, endHHmm),
			Actions: []model.SuggestionAction{
				{
					Kind: model.ActionMoveShift,
					Move: &model.MoveShiftAction{
						ShiftID:      first.moveShiftID,
						UserID:       first.userID,
						DateKey:      first.dateKey,
						NewStartTime: startHHmm,
						NewEndTime:   endHHmm,
						PositionID:   first.positionID,
					},
				},
			},
		}
	}

	return model.Suggestion{
		Type:           model.SuggestionAddShift,
		Explanation:    fmt.Sprintf("add %s to cover the %s-%s coverage gap for %s on %s", first.userID, startHHmm, endHHmm, first.positionID, first.dateKey),
		ExpectedImpact: fmt.Sprintf("resolves the min-coverage deficit for %s on %s %s-%s", first.positionID, first.dateKey, startHHmm, endHHmm),
		Actions: []model.SuggestionAction{
			{
				Kind: model.ActionCreateShift,
				Create: &model.CreateShiftAction{
					UserID:     first.userID,
					DateKey:    first.dateKey,
					StartTime:  startHHmm,
					EndTime:    endHHmm,
					PositionID: first.positionID,
				},
			},
		},
	}
}
