// Package signature computes stable, content-derived suggestion IDs. The
// canonical V2 form ignores human-facing text (explanation/expectedImpact)
// so identical actions always produce the same ID; the legacy V1 form
// folds that text in, kept only to translate decisions recorded against
// older sessions
package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"shiftsage/internal/core/model"
)

const (
	signatureVersion = "sig:v2"
	v2Prefix         = "assistant-suggestion:v2:"
	v1Prefix         = "assistant-suggestion:v1:"
)

// Options controls hash generation. ForceDegradedHash simulates the
// last-resort fnv1a path; it is never set in normal operation since
// crypto/sha256 is always available, but a test exercises it directly to
// prove the contract holds
type Options struct {
	ForceDegradedHash bool
}

// ActionKey renders a single action's canonical key. degraded
// is true when the action was missing required fields or had an unknown
// kind, in which case key takes the documented "unknown|<type>|sha256:<hash>"
// shape. Also used by internal/core/apply to report appliedActionKeys and
// rejectedActionKeys in the same canonical form
func ActionKey(a model.SuggestionAction) (key string, degraded bool, reason string) {
	switch a.Kind {
	case model.ActionCreateShift:
		if a.Create == nil {
			return degradedKey(a), true, "createShift action missing payload"
		}
		c := a.Create
		if c.UserID == "" || c.DateKey == "" || c.StartTime == "" || c.EndTime == "" {
			return degradedKey(a), true, "createShift action missing a required field"
		}
		return strings.Join([]string{"createShift", c.UserID, c.DateKey, c.StartTime, c.EndTime, c.PositionID}, "|"), false, ""

	case model.ActionMoveShift:
		if a.Move == nil {
			return degradedKey(a), true, "moveShift action missing payload"
		}
		m := a.Move
		if m.ShiftID == "" || m.UserID == "" || m.DateKey == "" || m.NewStartTime == "" || m.NewEndTime == "" {
			return degradedKey(a), true, "moveShift action missing a required field"
		}
		return strings.Join([]string{"moveShift", m.ShiftID, m.UserID, m.DateKey, m.NewStartTime, m.NewEndTime, m.PositionID}, "|"), false, ""

	default:
		return degradedKey(a), true, fmt.Sprintf("unknown action kind %q", a.Kind)
	}
}

// degradedKey builds the "unknown|<type>|sha256:<hash>" form over whatever
// fields are actually present, so two distinct malformed actions still
// usually produce distinct degraded keys without ever emitting "undefined"
func degradedKey(a model.SuggestionAction) string {
	var sb strings.Builder
	sb.WriteString("kind=")
	sb.WriteString(string(a.Kind))
	if a.Create != nil {
		fmt.Fprintf(&sb, ";create.userId=%s;create.dateKey=%s;create.startTime=%s;create.endTime=%s;create.positionId=%s",
			a.Create.UserID, a.Create.DateKey, a.Create.StartTime, a.Create.EndTime, a.Create.PositionID)
	}
	if a.Move != nil {
		fmt.Fprintf(&sb, ";move.shiftId=%s;move.userId=%s;move.dateKey=%s;move.newStartTime=%s;move.newEndTime=%s;move.positionId=%s",
			a.Move.ShiftID, a.Move.UserID, a.Move.DateKey, a.Move.NewStartTime, a.Move.NewEndTime, a.Move.PositionID)
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return "unknown|" + string(a.Kind) + "|sha256:" + hex.EncodeToString(sum[:])
}

// CanonicalV2 builds the text-independent canonical string for a suggestion
// and reports whether any action degraded
func CanonicalV2(s model.Suggestion) (canonical string, degraded bool, reason string) {
	parts := make([]string, 0, 1+len(s.Actions))
	parts = append(parts, "v2", string(s.Type))
	var reasons []string
	for _, a := range s.Actions {
		key, deg, r := ActionKey(a)
		parts = append(parts, key)
		if deg {
			degraded = true
			reasons = append(reasons, r)
		}
	}
	if degraded {
		reason = strings.Join(reasons, "; ")
	}
	return strings.Join(parts, "|"), degraded, reason
}

// CanonicalV1 builds the legacy text-dependent canonical string, kept only
// to translate decisions recorded against pre-V2 sessions
func CanonicalV1(s model.Suggestion) string {
	keys := make([]string, 0, len(s.Actions))
	for _, a := range s.Actions {
		key, _, _ := ActionKey(a)
		keys = append(keys, key)
	}
	return v1Prefix + string(s.Type) + ":" + strings.Join(keys, ";") + ":" + s.ExpectedImpact + ":" + s.Explanation
}

// Preview returns a short, stable prefix of a hash suitable for logs/UI
func Preview(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:12]
}

// Build computes the full identity for a suggestion: its V2 ID/hash, its V1
// legacy ID (for decision backfill matching), and degradation metadata
func Build(s model.Suggestion, opts Options) (id string, meta model.SuggestionMeta) {
	canonical, degraded, reason := CanonicalV2(s)

	var hash string
	var format model.HashFormat
	if opts.ForceDegradedHash {
		h := fnv.New64a()
		_, _ = h.Write([]byte(canonical))
		hash = hex.EncodeToString(h.Sum(nil))
		format = model.HashFormatFNV1aHex
		degraded = true
		if reason == "" {
			reason = "hash degraded to fnv1a"
		} else {
			reason = reason + "; hash degraded to fnv1a"
		}
	} else {
		sum := sha256.Sum256([]byte(canonical))
		hash = hex.EncodeToString(sum[:])
		format = model.HashFormatSHA256Hex
	}

	id = v2Prefix + hash
	meta = model.SuggestionMeta{
		V1SuggestionID:      CanonicalV1ID(s),
		SignatureVersion:    signatureVersion,
		SignatureHash:       hash,
		SignatureHashFormat: format,
		SignaturePreview:    Preview(hash),
	}
	if degraded {
		meta.SignatureDegraded = true
		meta.SignatureDegradeReason = reason
	}
	return id, meta
}

// CanonicalV1ID is the full V1 identifier string (CanonicalV1 IS the ID for
// V1; there is no separate hashing step)
func CanonicalV1ID(s model.Suggestion) string { return CanonicalV1(s) }

// DetectCollisions reports suggestion indices that share a V2 hash despite
// having distinct canonical strings — i.e. genuine hash collisions, not
// duplicate suggestions. This function only detects; what to do on a
// detection is left to the caller. internal/core/assistant does not call it
func DetectCollisions(ids []string, canonicals []string) []int {
	seen := make(map[string]string, len(ids))
	var collided []int
	for i, id := range ids {
		if prevCanonical, ok := seen[id]; ok {
			if prevCanonical != canonicals[i] {
				collided = append(collided, i)
			}
			continue
		}
		seen[id] = canonicals[i]
	}
	sort.Ints(collided)
	return collided
}
