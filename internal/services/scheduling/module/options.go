package module

import "shiftsage/internal/platform/config"

// Options holds configuration settings for the scheduling module
type Options struct {
	Strict bool
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	df := cfg.Prefix("SERVICE_SCHEDULING_")
	return Options{
		Strict: df.MayBool("STRICT", false),
	}
}
