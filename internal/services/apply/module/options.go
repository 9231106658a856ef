package module

import "shiftsage/internal/platform/config"

// Options holds configuration settings for the apply module
type Options struct {
	LedgerTable string
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	df := cfg.Prefix("SERVICE_APPLY_")
	return Options{
		LedgerTable: df.MayString("LEDGER_TABLE", "shift_applied_ledger"),
	}
}
