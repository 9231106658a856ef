package repo

import (
	"context"

	"shiftsage/internal/core/capacity"
	"shiftsage/internal/core/timeutil"
	"shiftsage/internal/platform/store"
)

// CH is a write-only ClickHouse export of a computed capacity map, for
// analytics dashboards outside this system's scope. The core never reads
// these rows back
type CH struct{ ch store.Clickhouse }

// NewCH constructs a new coverage-snapshot sink
func NewCH(ch store.Clickhouse) *CH { return &CH{ch: ch} }

// WriteCoverageSnapshot appends one row per (dateKey, slot, positionId) into
// shiftsage.coverage_snapshots
func (c *CH) WriteCoverageSnapshot(ctx context.Context, unitID, weekStart string, m capacity.Map) error {
	if len(m) == 0 {
		return nil
	}

	const table = "shiftsage.coverage_snapshots (unit_id, week_start, date_key, slot, position_id, headcount)"

	rows := make([][]any, 0, len(m))
	for key, byPosition := range m {
		dateKey, hhmm, ok := timeutil.SplitSlotKey(key)
		if !ok {
			continue
		}
		for positionID, headcount := range byPosition {
			rows = append(rows, []any{unitID, weekStart, dateKey, hhmm, positionID, headcount})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return c.ch.Insert(ctx, table, rows)
}
