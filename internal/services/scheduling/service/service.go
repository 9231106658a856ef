// Package service implements the scheduling orchestration service: it reads
// a unit-week's raw inputs, resolves the caller's session overlay, and runs
// the pure internal/core/engine pipeline
package service

import (
	"context"

	"shiftsage/internal/core/contextkey"
	"shiftsage/internal/core/engine"
	"shiftsage/internal/core/model"
	"shiftsage/internal/core/scheduleset"
	"shiftsage/internal/core/signature"
	"shiftsage/internal/core/timeutil"
	"shiftsage/internal/platform/clock"
	"shiftsage/internal/platform/logger"
	"shiftsage/internal/services/scheduling/domain"
	sessiondomain "shiftsage/internal/services/session/domain"
)

// Config for the scheduling service
type Config struct {
	Strict bool
}

// Service implements domain's week-request orchestration
type Service struct {
	repo     domain.StorageRepo
	sessions domain.SessionResolver
	coverage domain.CoverageSink // optional, may be nil
	clock    clock.Clock
	log      logger.Logger
	cfg      Config
}

// New constructs a new scheduling Service. coverage may be nil, in which
// case no analytics snapshot is ever written
func New(repo domain.StorageRepo, sessions domain.SessionResolver, coverage domain.CoverageSink, c clock.Clock, log logger.Logger, cfg Config) *Service {
	if c == nil {
		c = clock.System{}
	}
	return &Service{repo: repo, sessions: sessions, coverage: coverage, clock: c, log: log, cfg: cfg}
}

// EngineInputForWeek assembles the engine.Input for one unit-week, resolving
// a session overlay when req.SessionID is set. Exported so cmd/shiftsage-apply
// can recompute the same input acceptSuggestion/rejectSuggestion need without
// duplicating the contextKey/weekDays wiring done here
func (s *Service) EngineInputForWeek(ctx context.Context, req domain.WeekRequest) (engine.Input, error) {
	data, err := s.repo.ReadWeek(ctx, req.UnitID, req.WeekStart)
	if err != nil {
		return engine.Input{}, err
	}

	weekDays := buildWeekDays(req.WeekStart)
	key := contextkey.Input{
		UnitID:           req.UnitID,
		WeekStart:        req.WeekStart,
		WeekDays:         weekDays,
		Positions:        data.Positions,
		Users:            data.Users,
		BucketMinutes:    data.BucketMinutes,
		ScheduleSettings: scheduleset.Normalize(data.RawScheduleSettings),
		Scenarios:        data.Scenarios,
	}

	var session *model.AssistantSession
	if req.SessionID != "" {
		resolved, err := s.sessions.Resolve(ctx, sessiondomain.ResolveInput{
			UnitID: req.UnitID, SessionID: req.SessionID, ContextKey: key, NowMillis: s.clock.NowUnixMilli(),
		})
		if err != nil {
			return engine.Input{}, err
		}
		session = resolved
	}

	return engine.Input{
		UnitID:                 req.UnitID,
		WeekStart:              req.WeekStart,
		WeekDays:               weekDays,
		Users:                  data.Users,
		Positions:              data.Positions,
		Shifts:                 data.Shifts,
		EmployeeProfilesByUser: data.EmployeeProfilesByUser,
		RawScheduleSettings:    data.RawScheduleSettings,
		MinCoverageByPosition:  data.MinCoverageByPosition,
		Scenarios:              data.Scenarios,
		BucketMinutes:          data.BucketMinutes,
		Session:                session,
		Strict:                 s.cfg.Strict,
		HashOptions:            signature.Options{},
		InvariantSink:          func(msg string) { s.log.Warn().Str("unitId", req.UnitID).Msg(msg) },
	}, nil
}

// GetWeek assembles a full assistant response for one unit-week
func (s *Service) GetWeek(ctx context.Context, req domain.WeekRequest) (domain.WeekResponse, error) {
	in, err := s.EngineInputForWeek(ctx, req)
	if err != nil {
		return domain.WeekResponse{}, err
	}
	session := in.Session

	result, err := engine.Run(in)
	if err != nil {
		return domain.WeekResponse{}, err
	}

	if s.coverage != nil {
		if err := s.coverage.WriteCoverageSnapshot(ctx, req.UnitID, req.WeekStart, result.Capacity); err != nil {
			s.log.Warn().Err(err).Str("unitId", req.UnitID).Msg("coverage snapshot export failed")
		}
	}

	resp := domain.WeekResponse{Result: result}
	if session != nil {
		resp.SessionID = session.SessionID
	}
	return resp, nil
}

// buildWeekDays returns the 7 dateKeys for the week starting at weekStart,
// falling back to just weekStart if it fails to parse
func buildWeekDays(weekStart string) []string {
	days := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		d, err := timeutil.AddDaysToDateKey(weekStart, i)
		if err != nil {
			return []string{weekStart}
		}
		days = append(days, d)
	}
	return days
}
