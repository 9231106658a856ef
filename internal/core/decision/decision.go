// Package decision deduplicates a session's DecisionRecords per
// suggestionId
package decision

import (
	"sort"

	"shiftsage/internal/core/model"
)

func timestampOf(r model.DecisionRecord) int64 {
	if r.Timestamp == nil {
		return -1
	}
	return *r.Timestamp
}

func decisionRank(d model.Decision) int {
	if d == model.DecisionValueAccepted {
		return 2
	}
	if d == model.DecisionValueRejected {
		return 1
	}
	return 0
}

func sourceRank(s *model.DecisionSource) int {
	if s == nil {
		return 0
	}
	if *s == model.SourceSystem {
		return 2
	}
	if *s == model.SourceUser {
		return 1
	}
	return 0
}

// better reports whether candidate should replace current under a 4-level
// tie-break: timestamp, then decision rank, then source rank, then
// lexicographic reason (empty < non-empty)
func better(candidate, current model.DecisionRecord) bool {
	ct, pt := timestampOf(candidate), timestampOf(current)
	if ct != pt {
		return ct > pt
	}
	cr, pr := decisionRank(candidate.Decision), decisionRank(current.Decision)
	if cr != pr {
		return cr > pr
	}
	cs, ps := sourceRank(candidate.Source), sourceRank(current.Source)
	if cs != ps {
		return cs > ps
	}
	return candidate.Reason > current.Reason
}

// Normalize keeps at most one record per suggestionId, sorted by
// suggestionId ascending. It is idempotent: Normalize(Normalize(x)) ==
// Normalize(x)
func Normalize(records []model.DecisionRecord) []model.DecisionRecord {
	best := make(map[string]model.DecisionRecord, len(records))
	for _, r := range records {
		cur, ok := best[r.SuggestionID]
		if !ok || better(r, cur) {
			best[r.SuggestionID] = r
		}
	}

	out := make([]model.DecisionRecord, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SuggestionID < out[j].SuggestionID })
	return out
}
