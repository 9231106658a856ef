// Package availability answers whether an employee is free to work a given
// window. A missing profile means unconditionally available; an empty
// weekly window list means unavailable
package availability

import (
	"shiftsage/internal/core/model"
	"shiftsage/internal/core/timeutil"
)

// windowsForDate resolves the windows that apply to dateKey: an exception
// always wins over the weekly rule
func windowsForDate(p model.EmployeeProfile, dateKey string) (windows []model.TimeWindow, available bool) {
	for _, ex := range p.Exceptions {
		if ex.DateKey != dateKey {
			continue
		}
		if !ex.Available {
			return nil, false
		}
		return ex.Windows, true
	}
	dow, err := timeutil.DayOfWeek(dateKey)
	if err != nil {
		return nil, true // malformed dateKey: let caller's own validation handle it
	}
	ws := p.Weekly[dow]
	if len(ws) == 0 {
		return nil, false
	}
	return ws, true
}

// Covers reports whether the half-open window [startMin,endMin) on dateKey
// is covered by the union of the user's available windows on that date. A
// nil profile (no profile found) is unconditionally available
func Covers(profile *model.EmployeeProfile, dateKey string, startMin, endMin int) bool {
	if profile == nil {
		return true
	}
	windows, available := windowsForDate(*profile, dateKey)
	if !available {
		return false
	}
	return windowUnionCovers(windows, startMin, endMin)
}

// windowUnionCovers reports whether [startMin,endMin) is a subset of the
// union of windows, under cross-midnight semantics: [shiftStart, shiftEnd)
// must be contained in the union of the day's available windows
func windowUnionCovers(windows []model.TimeWindow, startMin, endMin int) bool {
	if startMin >= endMin {
		return false
	}
	cur := startMin
	// Repeatedly find a window covering `cur` and advance cur to its end,
	// until cur reaches endMin or no covering window is found
	for cur < endMin {
		advanced := false
		for _, w := range windows {
			ws, err := timeutil.ParseHHmm(w.StartHHmm)
			if err != nil {
				continue
			}
			we, err := timeutil.ParseHHmm(w.EndHHmm)
			if err != nil {
				continue
			}
			if we <= ws {
				we += timeutil.MinutesPerDay
			}
			// try the window as-is and shifted by a full day, so a window
			// like 22:00-02:00 can cover the tail of a cross-midnight shift
			for _, shift := range [2]int{0, timeutil.MinutesPerDay} {
				s, e := ws+shift, we+shift
				if s <= cur && cur < e {
					if e > cur {
						cur = e
						advanced = true
					}
					break
				}
			}
			if advanced {
				break
			}
		}
		if !advanced {
			return false
		}
	}
	return true
}

// HasOverlappingShift reports whether any shift in shifts belongs to userID
// and overlaps [startMin,endMin) on dateKey, ignoring the shift identified
// by excludeShiftID (used when checking whether a shift can move into a
// slot it may itself already occupy)
func HasOverlappingShift(
	shifts []model.Shift,
	userID, dateKey string,
	startMin, endMin int,
	excludeShiftID string,
) bool {
	for _, sh := range shifts {
		if sh.UserID != userID || sh.ID == excludeShiftID {
			continue
		}
		if sh.DateKey != dateKey {
			continue
		}
		s, err := timeutil.ParseHHmm(sh.StartTime)
		if err != nil {
			continue
		}
		var ePtr *int
		if sh.EndTime != nil {
			e, err := timeutil.ParseHHmm(*sh.EndTime)
			if err != nil {
				continue
			}
			ePtr = &e
		}
		// Without schedule settings we can't resolve an open-ended shift's
		// close time here; conservatively treat an unresolved end as
		// extending to end of day, which is the safe (more restrictive)
		// assumption for "could this new shift collide"
		var e int
		if ePtr != nil {
			e = *ePtr
			if e <= s {
				e += timeutil.MinutesPerDay
			}
		} else {
			e = timeutil.MinutesPerDay
		}
		if timeutil.RangesOverlap(startMin, endMin, s, e) {
			return true
		}
	}
	return false
}
