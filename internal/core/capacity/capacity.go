// Package capacity computes the per-slot, per-position staffing map from a
// set of shifts
package capacity

import (
	"sort"

	"shiftsage/internal/core/model"
	"shiftsage/internal/core/scheduleset"
	"shiftsage/internal/core/timeutil"
)

// UnassignedPosition is the bucket key used for shifts with no positionId
const UnassignedPosition = "unassigned"

// Map is a slotKey -> positionID -> headcount capacity table
type Map map[timeutil.SlotKey]map[string]int

// Get returns the headcount for (slot, positionID), 0 if absent
func (m Map) Get(slot timeutil.SlotKey, positionID string) int {
	if positionID == "" {
		positionID = UnassignedPosition
	}
	row, ok := m[slot]
	if !ok {
		return 0
	}
	return row[positionID]
}

func (m Map) add(slot timeutil.SlotKey, positionID string, n int) {
	positionID = orUnassigned(positionID)
	row, ok := m[slot]
	if !ok {
		row = make(map[string]int, 4)
		m[slot] = row
	}
	row[positionID] += n
}

func orUnassigned(positionID string) string {
	if positionID == "" {
		return UnassignedPosition
	}
	return positionID
}

// Build computes the capacity map for the given shifts. bucketMinutes
// defaults to 60 if not a supported value. settings supplies the per-day
// opening hours used to resolve open-ended shift endings
func Build(shifts []model.Shift, settings scheduleset.ScheduleSettings, bucketMinutes int) Map {
	if !timeutil.ValidBucketMinutes(bucketMinutes) {
		bucketMinutes = 60
	}
	out := make(Map, len(shifts))

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

		dow, err := timeutil.DayOfWeek(sh.DateKey)
		if err != nil {
			continue
		}
		closingHHmm, offset := scheduleset.EffectiveClosing(settings, dow)
		var closingPtr *int
		if c, err := timeutil.ParseHHmm(closingHHmm); err == nil {
			closingPtr = &c
		}

		end, ok := timeutil.ResolveShiftEnd(start, endPtr, closingPtr, offset)
		if !ok {
			continue
		}

		positionID := ""
		if sh.PositionID != nil {
			positionID = *sh.PositionID
		}

		for _, m := range timeutil.EnumerateSlots(start, end, bucketMinutes) {
			dateKey, normMin, err := timeutil.DateKeyForWrappedMinute(sh.DateKey, m)
			if err != nil {
				continue
			}
			slot := timeutil.NewSlotKey(dateKey, normMin, bucketMinutes)
			out.add(slot, positionID, 1)
		}
	}

	return out
}

// SortedSlots returns the map's slot keys in ascending lexicographic order,
// which for "dateKey|HH:MM" keys also means chronological order
func SortedSlots(m Map) []timeutil.SlotKey {
	out := make([]timeutil.SlotKey, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
