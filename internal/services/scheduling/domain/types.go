// Package domain defines the core types and interfaces for the scheduling
// orchestration service: it glues internal/core/engine and the session
// service together for a single unit-week request
package domain

import (
	"shiftsage/internal/core/engine"
	"shiftsage/internal/core/model"
	"shiftsage/internal/core/scheduleset"
)

// WeekRequest asks for the assembled assistant response for one unit-week.
// SessionID is optional: an empty value means "no session overlay"
type WeekRequest struct {
	UnitID    string
	WeekStart string
	SessionID string
}

// WeekData is everything services/scheduling/repo reads back for a unit-week
type WeekData struct {
	Positions              []model.Position
	Users                  []model.User
	Shifts                 []model.Shift
	EmployeeProfilesByUser map[string]model.EmployeeProfile
	RawScheduleSettings    scheduleset.RawScheduleSettings
	MinCoverageByPosition  []model.MinCoverageRule
	Scenarios              []model.Scenario
	BucketMinutes          int
}

// WeekResponse is the assembled result of a WeekRequest
type WeekResponse struct {
	Result    engine.Result
	SessionID string
}
