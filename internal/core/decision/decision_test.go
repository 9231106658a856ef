package decision

import (
	"testing"

	"shiftsage/internal/core/model"
)

func i64(v int64) *int64 { return &v }
func src(s model.DecisionSource) *model.DecisionSource { return &s }

func TestNormalize_LargerTimestampWins(t *testing.T) {
	out := Normalize([]model.DecisionRecord{
		{SuggestionID: "s1", Decision: model.DecisionValueRejected, Timestamp: i64(100)},
		{SuggestionID: "s1", Decision: model.DecisionValueAccepted, Timestamp: i64(200)},
	})
	if len(out) != 1 || out[0].Decision != model.DecisionValueAccepted {
		t.Fatalf("expected the later-timestamped accepted record to win, got %+v", out)
	}
}

func TestNormalize_MissingTimestampTreatedAsNegativeOne(t *testing.T) {
	out := Normalize([]model.DecisionRecord{
		{SuggestionID: "s1", Decision: model.DecisionValueAccepted, Timestamp: nil},
		{SuggestionID: "s1", Decision: model.DecisionValueRejected, Timestamp: i64(0)},
	})
	if len(out) != 1 || out[0].Decision != model.DecisionValueRejected {
		t.Fatalf("expected timestamp=0 to beat a missing timestamp, got %+v", out)
	}
}

func TestNormalize_TiesBreakByDecisionRank(t *testing.T) {
	out := Normalize([]model.DecisionRecord{
		{SuggestionID: "s1", Decision: model.DecisionValueRejected, Timestamp: i64(100)},
		{SuggestionID: "s1", Decision: model.DecisionValueAccepted, Timestamp: i64(100)},
	})
	if out[0].Decision != model.DecisionValueAccepted {
		t.Fatalf("expected accepted to outrank rejected on a timestamp tie, got %+v", out)
	}
}

func TestNormalize_TiesBreakBySourceThenReason(t *testing.T) {
	out := Normalize([]model.DecisionRecord{
		{SuggestionID: "s1", Decision: model.DecisionValueAccepted, Timestamp: i64(100), Source: src(model.SourceUser), Reason: "b"},
		{SuggestionID: "s1", Decision: model.DecisionValueAccepted, Timestamp: i64(100), Source: src(model.SourceSystem), Reason: "a"},
	})
	if out[0].Source == nil || *out[0].Source != model.SourceSystem {
		t.Fatalf("expected system source to outrank user source on remaining ties, got %+v", out)
	}

	out2 := Normalize([]model.DecisionRecord{
		{SuggestionID: "s1", Decision: model.DecisionValueAccepted, Timestamp: i64(100), Reason: ""},
		{SuggestionID: "s1", Decision: model.DecisionValueAccepted, Timestamp: i64(100), Reason: "has a reason"},
	})
	if out2[0].Reason != "has a reason" {
		t.Fatalf("expected non-empty reason to outrank empty reason, got %+v", out2)
	}
}

func TestNormalize_SortsBySuggestionID(t *testing.T) {
	out := Normalize([]model.DecisionRecord{
		{SuggestionID: "s9", Decision: model.DecisionValueAccepted, Timestamp: i64(1)},
		{SuggestionID: "s1", Decision: model.DecisionValueAccepted, Timestamp: i64(1)},
	})
	if out[0].SuggestionID != "s1" || out[1].SuggestionID != "s9" {
		t.Fatalf("expected ascending suggestionId order, got %+v", out)
	}
}

func TestNormalize_IsIdempotent(t *testing.T) {
	records := []model.DecisionRecord{
		{SuggestionID: "s1", Decision: model.DecisionValueAccepted, Timestamp: i64(100)},
		{SuggestionID: "s1", Decision: model.DecisionValueRejected, Timestamp: i64(50)},
		{SuggestionID: "s2", Decision: model.DecisionValueRejected, Timestamp: i64(1)},
	}
	once := Normalize(records)
	twice := Normalize(once)
	if len(once) != len(twice) {
		t.Fatalf("lengths differ: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("normalize is not idempotent at index %d: %+v vs %+v", i, once[i], twice[i])
		}
	}
}
