// Package model defines the shared value types passed between the
// scheduling engine's pure core components. Every type here is
// immutable by convention: components return new values rather than
// mutating the ones they receive
package model

// Position is a staffable role, e.g. "cashier" or "barista"
type Position struct {
	ID   string
	Name string
}

// User is a schedulable employee
type User struct {
	ID          string
	DisplayName string
	IsActive    bool
}

// Shift is the engine-form representation of a scheduled block of time.
// EndTime is nil when the shift runs until the day's closing time
type Shift struct {
	ID         string
	UserID     string
	UnitID     string
	DateKey    string
	StartTime  string // HH:MM
	EndTime    *string
	PositionID *string
}

// TimeWindow is a half-open [Start,End) wall-clock window, HH:MM strings
type TimeWindow struct {
	StartHHmm string
	EndHHmm   string
}

// AvailabilityException overrides the weekly rule for a single date
type AvailabilityException struct {
	DateKey   string
	Available bool
	Windows   []TimeWindow // only meaningful when Available is true
}

// EmployeeProfile carries one user's availability rules
type EmployeeProfile struct {
	UserID     string
	UnitID     string
	Weekly     [7][]TimeWindow // index 0=Sunday..6=Saturday; empty slice => unavailable
	Exceptions []AvailabilityException
}

// MinCoverageRule requires at least MinCount staff of PositionID on duty
// during [StartTime,EndTime) on each of DateKeys
type MinCoverageRule struct {
	PositionID string
	DateKeys   []string
	StartTime  string
	EndTime    string
	MinCount   int
}

// Ruleset bundles the constraints evaluated against a computed capacity map
type Ruleset struct {
	BucketMinutes        int
	MinCoverageByPosition []MinCoverageRule
}

// InheritMode controls how a scenario's coverage rules compose with the
// base ruleset
type InheritMode string

const (
	InheritAdd            InheritMode = "ADD"
	InheritOverride        InheritMode = "OVERRIDE"
	InheritIfEmpty         InheritMode = "INHERIT_IF_EMPTY"
)

// ScenarioKind tags the Scenario payload variant
type ScenarioKind string

const (
	ScenarioSickness    ScenarioKind = "SICKNESS"
	ScenarioEvent       ScenarioKind = "EVENT"
	ScenarioPeak        ScenarioKind = "PEAK"
	ScenarioLastMinute  ScenarioKind = "LAST_MINUTE"
)

// MinCoverageOverride requests a specific minCount for a position within a
// scenario's time range
type MinCoverageOverride struct {
	PositionID string
	MinCount   int
}

// SicknessPayload is the payload for a SICKNESS scenario
type SicknessPayload struct {
	UserID   string
	DateKeys []string
	Reason   string
	Severity string
}

// CoveragePayload is the shared payload shape for EVENT and PEAK scenarios
type CoveragePayload struct {
	DateKeys               []string
	TimeRange              TimeWindow
	MinCoverageOverrides   []MinCoverageOverride
	ExpectedLoadMultiplier float64 // EVENT only; zero means "not set"
}

// LastMinutePayload is the payload for a LAST_MINUTE scenario. Patches have
// no engine-side effect in this core; they are preserved for the caller only
type LastMinutePayload struct {
	Timestamp   int64
	Description string
	Patches     []byte
}

// Scenario is a tagged union rewriting engine input before evaluation.
// Exactly one of the payload fields is meaningful, selected by Kind
type Scenario struct {
	ID            string
	UnitID        string
	WeekStartDate string
	DateKeys      []string
	InheritMode   InheritMode
	Kind          ScenarioKind

	Sickness   *SicknessPayload
	Coverage   *CoveragePayload
	LastMinute *LastMinutePayload
}

// Severity levels for violations
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Affected identifies the entities an explanation or violation concerns
type Affected struct {
	UserIDs    []string
	PositionID string
	DateKeys   []string
	Slots      []string
	ShiftIDs   []string
}

// Violation is a single rule breach with a stable, content-derived ID
type Violation struct {
	ID           string
	ConstraintID string
	Severity     Severity
	Affected     Affected
	Details      string
}

// Constraint IDs used across the engine
const (
	ConstraintMinCoverageByPosition = "min-coverage-by-position"
	ConstraintEmployeeAvailability  = "employee-availability"
)

// ActionKind tags a SuggestionAction variant
type ActionKind string

const (
	ActionCreateShift ActionKind = "createShift"
	ActionMoveShift   ActionKind = "moveShift"
)

// CreateShiftAction proposes a brand-new shift
type CreateShiftAction struct {
	UserID     string
	DateKey    string
	StartTime  string
	EndTime    string
	PositionID string // empty means unassigned
}

// MoveShiftAction proposes relocating an existing shift
type MoveShiftAction struct {
	ShiftID      string
	UserID       string
	DateKey      string
	NewStartTime string
	NewEndTime   string
	PositionID   string // empty means unassigned
}

// SuggestionAction is a tagged union of the two action kinds. Exactly one
// of Create/Move is set, selected by Kind. Unknown/malformed actions may
// also appear with Kind set to an unrecognized value and both pointers nil,
// which signature.ActionKey degrades to a stable placeholder key instead of
// panicking
type SuggestionAction struct {
	Kind   ActionKind
	Create *CreateShiftAction
	Move   *MoveShiftAction
}

// SuggestionType tags an AssistantSuggestion/Suggestion
type SuggestionType string

const (
	SuggestionAddShift  SuggestionType = "ADD_SHIFT_SUGGESTION"
	SuggestionShiftMove SuggestionType = "SHIFT_MOVE_SUGGESTION"
)

// Suggestion is the pre-identity suggestion shape produced by synthesis
type Suggestion struct {
	Type           SuggestionType
	Explanation    string
	ExpectedImpact string
	Actions        []SuggestionAction
}

// HashFormat names the hash algorithm used for a suggestion's signature
type HashFormat string

const (
	HashFormatSHA256Hex HashFormat = "sha256:hex"
	HashFormatFNV1aHex  HashFormat = "fnv1a:hex"
	HashFormatUnknown   HashFormat = "unknown"
)

// SuggestionMeta carries identity and signature provenance for an
// AssistantSuggestion
type SuggestionMeta struct {
	V1SuggestionID        string
	SignatureVersion      string
	SignatureHash         string
	SignatureHashFormat   HashFormat
	SignaturePreview      string
	SignatureDegraded     bool
	SignatureDegradeReason string
}

// DecisionState is the lifecycle state attached to a suggestion in a
// response, present only when a session was supplied
type DecisionState string

const (
	DecisionAccepted DecisionState = "accepted"
	DecisionRejected DecisionState = "rejected"
	DecisionPending  DecisionState = "pending"
)

// AssistantSuggestion is a Suggestion plus its stable identity and, when a
// session is present, its decision overlay
type AssistantSuggestion struct {
	ID             string
	Meta           SuggestionMeta
	Type           SuggestionType
	Explanation    string
	ExpectedImpact string
	Actions        []SuggestionAction
	DecisionState  *DecisionState
}

// Decision is the accepted/rejected verdict a DecisionRecord carries
type Decision string

const (
	DecisionValueAccepted Decision = "accepted"
	DecisionValueRejected Decision = "rejected"
)

// DecisionSource names who made a decision
type DecisionSource string

const (
	SourceUser   DecisionSource = "user"
	SourceSystem DecisionSource = "system"
)

// SuggestionVersion tags which ID generation a DecisionRecord was keyed by
type SuggestionVersion string

const (
	SuggestionVersionV2 SuggestionVersion = "v2"
	SuggestionVersionV1 SuggestionVersion = "v1"
	SuggestionVersionV0 SuggestionVersion = "v0"
)

// DecisionRecord is one accept/reject decision against a suggestion ID
type DecisionRecord struct {
	SuggestionID      string
	Decision          Decision
	Timestamp         *int64 // unix millis; nil treated as -1 for sort/compare purposes
	SessionID         string
	SuggestionVersion SuggestionVersion
	Reason            string // sanitized, <=280 chars
	Source            *DecisionSource
}

// AssistantSession is the session-scoped decision ledger overlay
type AssistantSession struct {
	SessionID     string
	Decisions     []DecisionRecord
	SchemaVersion int
	ContextKey    string
	CreatedAt     int64
	UpdatedAt     int64
	ExpiresAt     *int64
}

// ExplanationKind tags an Explanation's category
type ExplanationKind string

const (
	ExplanationViolation  ExplanationKind = "violation"
	ExplanationSuggestion ExplanationKind = "suggestion"
	ExplanationInfo       ExplanationKind = "info"
)

// Explanation is a human-facing annotation joined to a suggestion or
// violation
type Explanation struct {
	ID                  string
	Kind                ExplanationKind
	Severity            Severity
	Title               string
	Details             string
	Why                 string
	WhyNow              string
	WhatIfAccepted      string
	Affected            Affected
	RelatedSuggestionID string
	RelatedConstraintID string
	Meta                map[string]any
}

// AppliedLedgerRecord is the at-most-once application record for a
// suggestion within a unit
type AppliedLedgerRecord struct {
	SuggestionID    string
	UnitID          string
	SignatureHash   string
	AppliedAt       int64
	AppliedShiftIDs []string
}

// ApplyFailureRecord captures why an accept-suggestion transaction threw,
// for audit purposes. Logging one never blocks or reverses the rollback
// that already happened: decisions and shifts stay untouched
type ApplyFailureRecord struct {
	UnitID       string
	SuggestionID string
	SessionID    string
	Reason       string // sanitized, <=280 chars
	OccurredAt   int64  // unix millis
}
