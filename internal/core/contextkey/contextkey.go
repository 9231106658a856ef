// Package contextkey computes the canonical session-compatibility key: a
// deterministic string derived from the parts of an engine input that
// change the meaning of a session's decisions. A
// session whose stored key differs from the key recomputed for the current
// request is stale and must be discarded
package contextkey

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"shiftsage/internal/core/model"
	"shiftsage/internal/core/scheduleset"
)

// Input bundles the parts of an engine request that determine session
// compatibility. It is a narrow view over engine.Input so this package
// never has to import engine (which already imports scheduleset and model)
type Input struct {
	UnitID           string
	WeekStart        string
	WeekDays         []string
	Positions        []model.Position
	Users            []model.User
	BucketMinutes    int
	ScheduleSettings scheduleset.ScheduleSettings
	Scenarios        []model.Scenario
}

// Compute returns the canonical context key for in
func Compute(in Input) string {
	var b strings.Builder

	b.WriteString(in.UnitID)
	b.WriteByte('|')
	b.WriteString(in.WeekStart)
	b.WriteByte('|')
	b.WriteString(strings.Join(in.WeekDays, ","))
	b.WriteByte('|')

	positions := make([]string, len(in.Positions))
	for i, p := range in.Positions {
		positions[i] = p.ID
	}
	sort.Strings(positions)
	b.WriteString(strings.Join(positions, ","))
	b.WriteByte('|')

	users := make([]string, len(in.Users))
	for i, u := range in.Users {
		users[i] = fmt.Sprintf("%s:%t", u.ID, u.IsActive)
	}
	sort.Strings(users)
	b.WriteString(strings.Join(users, ","))
	b.WriteByte('|')

	b.WriteString(strconv.Itoa(in.BucketMinutes))
	b.WriteByte('|')

	b.WriteString(canonicalScheduleSettings(in.ScheduleSettings))
	b.WriteByte('|')

	b.WriteString(canonicalScenarios(in.Scenarios))

	return b.String()
}

func canonicalScheduleSettings(s scheduleset.ScheduleSettings) string {
	parts := make([]string, 0, 9)
	for i, d := range s.Daily {
		parts = append(parts, fmt.Sprintf("%d:%t:%s:%s:%t:%d", i, d.IsOpen, d.OpeningTime, d.ClosingTime, d.ClosingTimeInherit, d.ClosingOffsetMinutes))
	}
	parts = append(parts, fmt.Sprintf("def:%s:%d:%t", s.DefaultClosingTime, s.DefaultClosingOffsetMinutes, s.MergeDailySettings))
	return strings.Join(parts, ";")
}

func canonicalScenarios(scenarios []model.Scenario) string {
	sorted := append([]model.Scenario(nil), scenarios...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	parts := make([]string, len(sorted))
	for i, sc := range sorted {
		parts[i] = fmt.Sprintf("%s:%s:%s:%s", sc.ID, sc.Kind, sc.InheritMode, canonicalPayload(sc))
	}
	return strings.Join(parts, ";")
}

func canonicalPayload(sc model.Scenario) string {
	switch sc.Kind {
	case model.ScenarioSickness:
		if sc.Sickness == nil {
			return ""
		}
		return fmt.Sprintf("%s:%s:%s:%s", sc.Sickness.UserID, strings.Join(sc.Sickness.DateKeys, ","), sc.Sickness.Reason, sc.Sickness.Severity)
	case model.ScenarioEvent, model.ScenarioPeak:
		if sc.Coverage == nil {
			return ""
		}
		overrides := make([]string, len(sc.Coverage.MinCoverageOverrides))
		for i, o := range sc.Coverage.MinCoverageOverrides {
			overrides[i] = fmt.Sprintf("%s:%d", o.PositionID, o.MinCount)
		}
		sort.Strings(overrides)
		return fmt.Sprintf("%s:%s-%s:%s:%g",
			strings.Join(sc.Coverage.DateKeys, ","),
			sc.Coverage.TimeRange.StartHHmm, sc.Coverage.TimeRange.EndHHmm,
			strings.Join(overrides, ","), sc.Coverage.ExpectedLoadMultiplier)
	case model.ScenarioLastMinute:
		if sc.LastMinute == nil {
			return ""
		}
		return fmt.Sprintf("%d:%s", sc.LastMinute.Timestamp, sc.LastMinute.Description)
	default:
		return ""
	}
}
