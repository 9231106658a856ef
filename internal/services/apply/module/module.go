// Package module implements the apply module
package module

import (
	"net/http"

	"shiftsage/internal/modkit"
	"shiftsage/internal/modkit/httpkit"
	"shiftsage/internal/platform/clock"
	"shiftsage/internal/services/apply/repo"
	"shiftsage/internal/services/apply/service"
)

// Module implements modkit.Module
type Module struct {
	deps modkit.Deps
	svc  *service.Service
}

// New constructs a new apply module. deps.PG is required: this module's
// entire job is the transactional accept/reject write path
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	_ = modkit.Build(append([]modkit.Option{
		modkit.WithName("apply"),
	}, opts...)...)

	if deps.PG == nil {
		panic("apply module: requires modkit.Deps.PG (a repokit.TxRunner)")
	}

	cfg := FromConfig(deps.Cfg)
	if overrides.LedgerTable != "" {
		cfg.LedgerTable = overrides.LedgerTable
	}

	bind := repo.NewPG(cfg.LedgerTable)
	svc := service.New(deps.PG, bind, clock.System{}, deps.Log)

	return &Module{deps: deps, svc: svc}
}

// Service exposes the underlying service for direct in-process callers, the
// way other modules in this codebase expose their service through Ports()
func (m *Module) Service() *service.Service { return m.svc }

// Name satisfies modkit.Module
func (m *Module) Name() string { return "apply" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.svc }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares satisfies modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes satisfies modkit.Module. The apply module has no HTTP surface:
// acceptSuggestion/rejectSuggestion are called in-process by cmd/shiftsage-apply
func (m *Module) MountRoutes(_ httpkit.Router) {}
