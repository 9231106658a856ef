// Package scheduleset normalizes a unit's weekly opening-hours configuration:
// it fills in defaults for all 7 days, resolves the closing-time-inherit
// flag, and clamps the closing offset
package scheduleset

// DefaultOpeningTime and DefaultClosingTime are the fallback wall-clock
// values used whenever a daily setting omits them
const (
	DefaultOpeningTime = "08:00"
	DefaultClosingTime = "22:00"

	// MinClosingOffsetMinutes and MaxClosingOffsetMinutes bound
	// closingOffsetMinutes
	MinClosingOffsetMinutes = 0
	MaxClosingOffsetMinutes = 240
)

// RawDailySetting is the caller-supplied, possibly-partial daily setting.
// Pointer fields distinguish "not provided" from an explicit zero value
type RawDailySetting struct {
	IsOpen               *bool
	OpeningTime          *string
	ClosingTime          *string // nil => inherit
	ClosingTimeInherit   *bool
	ClosingOffsetMinutes *int
	Quotas               map[string]int
}

// RawScheduleSettings is the caller-supplied weekly configuration. Daily[i]
// may be nil, meaning "use engine defaults for this day"
type RawScheduleSettings struct {
	Daily                       [7]*RawDailySetting
	DefaultClosingTime          *string
	DefaultClosingOffsetMinutes *int
	MergeDailySettings          bool
}

// DailySetting is a fully-resolved per-day-of-week configuration
type DailySetting struct {
	IsOpen               bool
	OpeningTime          string
	ClosingTime          string
	ClosingTimeInherit   bool
	ClosingOffsetMinutes int
	Quotas               map[string]int
}

// ScheduleSettings is the fully-normalized weekly configuration
type ScheduleSettings struct {
	Daily                       [7]DailySetting
	DefaultClosingTime          string
	DefaultClosingOffsetMinutes int
	MergeDailySettings          bool
}

// clampOffset floors the value then clamps it into
// [MinClosingOffsetMinutes, MaxClosingOffsetMinutes]
func clampOffset(m int) int {
	if m < MinClosingOffsetMinutes {
		return MinClosingOffsetMinutes
	}
	if m > MaxClosingOffsetMinutes {
		return MaxClosingOffsetMinutes
	}
	return m
}

// Normalize fills in the 7 daily settings and resolves inherit flags. It
// never errors: missing (nil or empty) inputs fall back to engine defaults;
// non-empty opening/closing times are kept as given, without HH:MM
// validation
func Normalize(raw RawScheduleSettings) ScheduleSettings {
	out := ScheduleSettings{
		MergeDailySettings: raw.MergeDailySettings,
	}

	if raw.DefaultClosingTime != nil && *raw.DefaultClosingTime != "" {
		out.DefaultClosingTime = *raw.DefaultClosingTime
	} else {
		out.DefaultClosingTime = DefaultClosingTime
	}

	if raw.DefaultClosingOffsetMinutes != nil {
		out.DefaultClosingOffsetMinutes = clampOffset(*raw.DefaultClosingOffsetMinutes)
	}

	for i := 0; i < 7; i++ {
		out.Daily[i] = normalizeDay(raw.Daily[i])
	}

	return out
}

func normalizeDay(raw *RawDailySetting) DailySetting {
	d := DailySetting{
		IsOpen:      true,
		OpeningTime: DefaultOpeningTime,
	}

	if raw == nil {
		d.ClosingTime = DefaultClosingTime
		d.ClosingTimeInherit = true
		return d
	}

	if raw.IsOpen != nil {
		d.IsOpen = *raw.IsOpen
	}
	if raw.OpeningTime != nil && *raw.OpeningTime != "" {
		d.OpeningTime = *raw.OpeningTime
	}

	if raw.ClosingTime == nil || *raw.ClosingTime == "" {
		d.ClosingTime = DefaultClosingTime
		d.ClosingTimeInherit = true
	} else {
		d.ClosingTime = *raw.ClosingTime
		if raw.ClosingTimeInherit != nil {
			d.ClosingTimeInherit = *raw.ClosingTimeInherit
		} else {
			d.ClosingTimeInherit = false
		}
	}

	if raw.ClosingOffsetMinutes != nil {
		d.ClosingOffsetMinutes = clampOffset(*raw.ClosingOffsetMinutes)
	}

	if len(raw.Quotas) > 0 {
		d.Quotas = make(map[string]int, len(raw.Quotas))
		for k, v := range raw.Quotas {
			d.Quotas[k] = v
		}
	}

	return d
}

// EffectiveClosing returns the closing time (HH:MM) and offset minutes that
// should be used when resolving a shift's open-ended end on dayIndex: when
// closingTimeInherit is true and mergeDailySettings is false, the engine
// substitutes the week-level defaults instead of the per-day value
func EffectiveClosing(s ScheduleSettings, dayIndex int) (closingTime string, offsetMinutes int) {
	d := s.Daily[dayIndex]
	if d.ClosingTimeInherit && !s.MergeDailySettings {
		return s.DefaultClosingTime, s.DefaultClosingOffsetMinutes
	}
	return d.ClosingTime, d.ClosingOffsetMinutes
}
