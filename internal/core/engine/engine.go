// Package engine wires the pure pipeline behind a single entrypoint: raw
// input flows through scheduleset resolution, scenario application,
// capacity computation, constraint evaluation, suggestion synthesis, and
// assistant response assembly (which assigns signatures)
package engine

import (
	"fmt"

	"shiftsage/internal/core/assistant"
	"shiftsage/internal/core/capacity"
	"shiftsage/internal/core/constraint"
	"shiftsage/internal/core/contextkey"
	"shiftsage/internal/core/model"
	"shiftsage/internal/core/scenario"
	"shiftsage/internal/core/scheduleset"
	"shiftsage/internal/core/signature"
	"shiftsage/internal/core/suggest"
	"shiftsage/internal/core/timeutil"
)

// SessionSchemaVersion is the only AssistantSession.SchemaVersion this
// engine understands; anything else is treated as stale
const SessionSchemaVersion = 1

// Input bundles one week's worth of raw engine input
type Input struct {
	UnitID    string
	WeekStart string
	WeekDays  []string

	Users                  []model.User
	Positions              []model.Position
	Shifts                 []model.Shift
	EmployeeProfilesByUser map[string]model.EmployeeProfile
	RawScheduleSettings    scheduleset.RawScheduleSettings
	MinCoverageByPosition  []model.MinCoverageRule
	Scenarios              []model.Scenario
	BucketMinutes          int

	// Session is the caller's session overlay. Its expiresAt must already
	// have been checked by the caller (the core never reads the wall
	// clock); a contextKey or schemaVersion mismatch is checked here and
	// causes the session to be discarded silently
	Session *model.AssistantSession

	// Strict mirrors assistant.Config.Strict: non-production callers set
	// this to turn invariant breaches into an error instead of a log line
	Strict        bool
	HashOptions   signature.Options
	InvariantSink func(string)
}

// Result is everything a caller might need from a single Run: the
// normalized settings, the rewritten shifts/rules, the computed capacity
// map, the raw violations, and the final assistant response
type Result struct {
	ScheduleSettings scheduleset.ScheduleSettings
	Shifts           []model.Shift
	Rules            []model.MinCoverageRule
	Capacity         capacity.Map
	Violations       []model.Violation
	ScenarioStats    scenario.Stats
	Assistant        assistant.Result
}

// Run executes the full pipeline once, purely, over in. It never reads the
// wall clock, never mutates in's slices/maps, and returns the same Result
// for the same Input every time (modulo the decision overlay)
func Run(in Input) (Result, error) {
	bucket := in.BucketMinutes
	if !timeutil.ValidBucketMinutes(bucket) {
		bucket = 60
	}

	settings := scheduleset.Normalize(in.RawScheduleSettings)

	shifts, rules, stats := scenario.Rewrite(in.Shifts, in.MinCoverageByPosition, in.Scenarios)

	capMap := capacity.Build(shifts, settings, bucket)

	violations := constraint.Evaluate(constraint.Input{
		Shifts:                 shifts,
		Capacity:               capMap,
		Ruleset:                model.Ruleset{BucketMinutes: bucket, MinCoverageByPosition: rules},
		EmployeeProfilesByUser: in.EmployeeProfilesByUser,
		BucketMinutes:          bucket,
	})

	suggestions := suggest.Synthesize(suggest.Input{
		Violations:             violations,
		Shifts:                 shifts,
		Users:                  in.Users,
		EmployeeProfilesByUser: in.EmployeeProfilesByUser,
		BucketMinutes:          bucket,
	})

	sink := in.InvariantSink
	if sink == nil {
		sink = func(string) {}
	}

	session := in.Session
	if session != nil {
		currentKey := contextkey.Compute(contextkey.Input{
			UnitID:           in.UnitID,
			WeekStart:        in.WeekStart,
			WeekDays:         in.WeekDays,
			Positions:        in.Positions,
			Users:            in.Users,
			BucketMinutes:    bucket,
			ScheduleSettings: settings,
			Scenarios:        in.Scenarios,
		})
		if session.ContextKey != currentKey || session.SchemaVersion != SessionSchemaVersion {
			sink(fmt.Sprintf("session %s discarded: stale (contextKey or schemaVersion mismatch)", session.SessionID))
			session = nil
		}
	}

	asstResult, err := assistant.Assemble(assistant.Config{
		BucketMinutes: bucket,
		HashOptions:   in.HashOptions,
		Strict:        in.Strict,
		InvariantSink: sink,
	}, suggestions, violations, session)

	return Result{
		ScheduleSettings: settings,
		Shifts:           shifts,
		Rules:            rules,
		Capacity:         capMap,
		Violations:       violations,
		ScenarioStats:    stats,
		Assistant:        asstResult,
	}, err
}
