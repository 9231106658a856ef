package module

import (
	"time"

	"shiftsage/internal/platform/config"
)

// Options holds configuration settings for the session module
type Options struct {
	SessionTable      string
	DefaultTTLSeconds int64
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	df := cfg.Prefix("SERVICE_SESSION_")
	return Options{
		SessionTable:      df.MayString("TABLE", "assistant_sessions"),
		DefaultTTLSeconds: int64(df.MayDuration("TTL", 7*24*time.Hour).Seconds()),
	}
}
