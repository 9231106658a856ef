package testkit

// FixedClock is a clock.Clock that always returns the same instant, so
// tests get deterministic appliedAt/timestamp values
type FixedClock struct{ Millis int64 }

// NowUnixMilli implements clock.Clock
func (f FixedClock) NowUnixMilli() int64 { return f.Millis }
