package contextkey

import (
	"testing"

	"shiftsage/internal/core/model"
	"shiftsage/internal/core/scheduleset"
)

func baseInput() Input {
	return Input{
		UnitID:           "unit-1",
		WeekStart:        "2025-01-06",
		WeekDays:         []string{"2025-01-06", "2025-01-07"},
		Positions:        []model.Position{{ID: "p1"}, {ID: "p2"}},
		Users:            []model.User{{ID: "u1", IsActive: true}, {ID: "u2", IsActive: false}},
		BucketMinutes:    60,
		ScheduleSettings: scheduleset.Normalize(scheduleset.RawScheduleSettings{}),
	}
}

func TestCompute_IsStableForEqualInputs(t *testing.T) {
	if Compute(baseInput()) != Compute(baseInput()) {
		t.Fatalf("expected Compute to be deterministic for equal inputs")
	}
}

func TestCompute_IsOrderIndependentForPositionsAndUsers(t *testing.T) {
	a := baseInput()
	b := baseInput()
	b.Positions = []model.Position{{ID: "p2"}, {ID: "p1"}}
	b.Users = []model.User{{ID: "u2", IsActive: false}, {ID: "u1", IsActive: true}}

	if Compute(a) != Compute(b) {
		t.Fatalf("expected Compute to be invariant to positions/users order")
	}
}

func TestCompute_ChangesWhenBucketMinutesChanges(t *testing.T) {
	a := baseInput()
	b := baseInput()
	b.BucketMinutes = 30

	if Compute(a) == Compute(b) {
		t.Fatalf("expected a different context key when bucketMinutes differs")
	}
}

func TestCompute_ChangesWhenUserActiveFlagChanges(t *testing.T) {
	a := baseInput()
	b := baseInput()
	b.Users = []model.User{{ID: "u1", IsActive: true}, {ID: "u2", IsActive: true}}

	if Compute(a) == Compute(b) {
		t.Fatalf("expected a different context key when a user's active flag differs")
	}
}

func TestCompute_ChangesWhenScenarioPayloadChanges(t *testing.T) {
	a := baseInput()
	a.Scenarios = []model.Scenario{
		{ID: "s1", Kind: model.ScenarioSickness, Sickness: &model.SicknessPayload{UserID: "u1", DateKeys: []string{"2025-01-06"}}},
	}
	b := baseInput()
	b.Scenarios = []model.Scenario{
		{ID: "s1", Kind: model.ScenarioSickness, Sickness: &model.SicknessPayload{UserID: "u2", DateKeys: []string{"2025-01-06"}}},
	}

	if Compute(a) == Compute(b) {
		t.Fatalf("expected a different context key when a scenario payload differs")
	}
}

func TestCompute_IsOrderIndependentForScenarios(t *testing.T) {
	a := baseInput()
	a.Scenarios = []model.Scenario{
		{ID: "s1", Kind: model.ScenarioSickness, Sickness: &model.SicknessPayload{UserID: "u1"}},
		{ID: "s2", Kind: model.ScenarioSickness, Sickness: &model.SicknessPayload{UserID: "u2"}},
	}
	b := baseInput()
	b.Scenarios = []model.Scenario{
		{ID: "s2", Kind: model.ScenarioSickness, Sickness: &model.SicknessPayload{UserID: "u2"}},
		{ID: "s1", Kind: model.ScenarioSickness, Sickness: &model.SicknessPayload{UserID: "u1"}},
	}

	if Compute(a) != Compute(b) {
		t.Fatalf("expected Compute to be invariant to scenario order")
	}
}
