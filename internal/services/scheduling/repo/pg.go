// Package repo provides repository implementations for the scheduling service
package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"shiftsage/internal/core/model"
	"shiftsage/internal/core/scheduleset"
	"shiftsage/internal/core/timeutil"
	"shiftsage/internal/modkit/repokit"
	"shiftsage/internal/services/scheduling/domain"
)

// pgBinder implements repokit.Binder[domain.StorageRepo]
type pgBinder struct{}

// NewPG returns a Postgres binder for domain.StorageRepo
func NewPG() repokit.Binder[domain.StorageRepo] { return pgBinder{} }

// Bind implements repokit.Binder
func (pgBinder) Bind(q repokit.Queryer) domain.StorageRepo { return &pg{q: q} }

type pg struct{ q repokit.Queryer }

// ReadWeek loads every row needed to build an engine.Input for unitID's week
// starting at weekStart. Reads, never writes: scheduling has no batch-commit
// path of its own, that belongs to services/apply
func (s *pg) ReadWeek(ctx context.Context, unitID, weekStart string) (domain.WeekData, error) {
	var out domain.WeekData

	positions, err := s.readPositions(ctx, unitID)
	if err != nil {
		return out, err
	}
	users, err := s.readUsers(ctx, unitID)
	if err != nil {
		return out, err
	}
	shifts, err := s.readShifts(ctx, unitID, weekStart)
	if err != nil {
		return out, err
	}
	profiles, err := s.readProfiles(ctx, unitID)
	if err != nil {
		return out, err
	}
	rules, err := s.readMinCoverageRules(ctx, unitID, weekStart)
	if err != nil {
		return out, err
	}
	scenarios, err := s.readScenarios(ctx, unitID, weekStart)
	if err != nil {
		return out, err
	}
	settings, bucket, err := s.readScheduleSettings(ctx, unitID)
	if err != nil {
		return out, err
	}

	out.Positions = positions
	out.Users = users
	out.Shifts = shifts
	out.EmployeeProfilesByUser = profiles
	out.MinCoverageByPosition = rules
	out.Scenarios = scenarios
	out.RawScheduleSettings = settings
	out.BucketMinutes = bucket
	return out, nil
}

func (s *pg) readPositions(ctx context.Context, unitID string) ([]model.Position, error) {
	rows, err := s.q.Query(ctx, "SELECT id, name FROM positions WHERE unit_id = $1", unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Position
	for rows.Next() {
		var p model.Position
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *pg) readUsers(ctx context.Context, unitID string) ([]model.User, error) {
	rows, err := s.q.Query(ctx, "SELECT id, display_name, is_active FROM users WHERE unit_id = $1", unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.IsActive); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *pg) readShifts(ctx context.Context, unitID, weekStart string) ([]model.Shift, error) {
	weekEnd, err := timeutil.AddDaysToDateKey(weekStart, 7)
	if err != nil {
		weekEnd = weekStart
	}
	const q = `
		SELECT id, user_id, date_key, start_time, end_time, position_id
		FROM shifts WHERE unit_id = $1 AND date_key >= $2 AND date_key < $3`
	rows, err := s.q.Query(ctx, q, unitID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Shift
	for rows.Next() {
		sh := model.Shift{UnitID: unitID}
		if err := rows.Scan(&sh.ID, &sh.UserID, &sh.DateKey, &sh.StartTime, &sh.EndTime, &sh.PositionID); err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (s *pg) readProfiles(ctx context.Context, unitID string) (map[string]model.EmployeeProfile, error) {
	const q = `SELECT user_id, weekly_windows, exceptions FROM employee_profiles WHERE unit_id = $1`
	rows, err := s.q.Query(ctx, q, unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]model.EmployeeProfile{}
	for rows.Next() {
		var userID, weeklyJSON, exceptionsJSON string
		if err := rows.Scan(&userID, &weeklyJSON, &exceptionsJSON); err != nil {
			return nil, err
		}
		p := model.EmployeeProfile{UserID: userID, UnitID: unitID}
		if weeklyJSON != "" {
			if err := json.Unmarshal([]byte(weeklyJSON), &p.Weekly); err != nil {
				return nil, err
			}
		}
		if exceptionsJSON != "" {
			if err := json.Unmarshal([]byte(exceptionsJSON), &p.Exceptions); err != nil {
				return nil, err
			}
		}
		out[userID] = p
	}
	return out, rows.Err()
}

func (s *pg) readMinCoverageRules(ctx context.Context, unitID, weekStart string) ([]model.MinCoverageRule, error) {
	const q = `
		SELECT position_id, date_keys, start_time, end_time, min_count
		FROM min_coverage_rules WHERE unit_id = $1 AND week_start = $2`
	rows, err := s.q.Query(ctx, q, unitID, weekStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MinCoverageRule
	for rows.Next() {
		var r model.MinCoverageRule
		var dateKeysJSON string
		if err := rows.Scan(&r.PositionID, &dateKeysJSON, &r.StartTime, &r.EndTime, &r.MinCount); err != nil {
			return nil, err
		}
		if dateKeysJSON != "" {
			if err := json.Unmarshal([]byte(dateKeysJSON), &r.DateKeys); err != nil {
				return nil, err
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *pg) readScenarios(ctx context.Context, unitID, weekStart string) ([]model.Scenario, error) {
	const q = `
		SELECT id, kind, inherit_mode, date_keys, payload
		FROM scenarios WHERE unit_id = $1 AND week_start_date = $2`
	rows, err := s.q.Query(ctx, q, unitID, weekStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Scenario
	for rows.Next() {
		sc := model.Scenario{UnitID: unitID, WeekStartDate: weekStart}
		var dateKeysJSON, payloadJSON string
		if err := rows.Scan(&sc.ID, &sc.Kind, &sc.InheritMode, &dateKeysJSON, &payloadJSON); err != nil {
			return nil, err
		}
		if dateKeysJSON != "" {
			if err := json.Unmarshal([]byte(dateKeysJSON), &sc.DateKeys); err != nil {
				return nil, err
			}
		}
		if err := unmarshalScenarioPayload(&sc, payloadJSON); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func unmarshalScenarioPayload(sc *model.Scenario, payloadJSON string) error {
	if payloadJSON == "" {
		return nil
	}
	switch sc.Kind {
	case model.ScenarioSickness:
		var p model.SicknessPayload
		if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
			return err
		}
		p.Reason = timeutil.SanitizeReason(p.Reason)
		sc.Sickness = &p
	case model.ScenarioEvent, model.ScenarioPeak:
		var p model.CoveragePayload
		if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
			return err
		}
		sc.Coverage = &p
	case model.ScenarioLastMinute:
		var p model.LastMinutePayload
		if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
			return err
		}
		sc.LastMinute = &p
	}
	return nil
}

func (s *pg) readScheduleSettings(ctx context.Context, unitID string) (scheduleset.RawScheduleSettings, int, error) {
	const q = `SELECT settings_json, bucket_minutes FROM unit_schedule_settings WHERE unit_id = $1`
	row := s.q.QueryRow(ctx, q, unitID)

	var settingsJSON string
	var bucket int
	if err := row.Scan(&settingsJSON, &bucket); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return scheduleset.RawScheduleSettings{}, 60, nil
		}
		return scheduleset.RawScheduleSettings{}, 0, err
	}

	var raw scheduleset.RawScheduleSettings
	if settingsJSON != "" {
		if err := json.Unmarshal([]byte(settingsJSON), &raw); err != nil {
			return scheduleset.RawScheduleSettings{}, 0, err
		}
	}
	return raw, bucket, nil
}
