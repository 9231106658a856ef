// Package module implements the scheduling module
package module

import (
	"net/http"

	"shiftsage/internal/modkit"
	"shiftsage/internal/modkit/httpkit"
	"shiftsage/internal/modkit/repokit"
	"shiftsage/internal/platform/clock"
	"shiftsage/internal/services/scheduling/domain"
	"shiftsage/internal/services/scheduling/repo"
	"shiftsage/internal/services/scheduling/service"
	sessionmodule "shiftsage/internal/services/session/module"
)

// Module implements modkit.Module
type Module struct {
	deps modkit.Deps
	svc  *service.Service
}

// New constructs a new scheduling module. deps.PG is required for reading
// unit-week data; deps.CH is optional (coverage-snapshot export only);
// session is the session module this service delegates resolution to
func New(deps modkit.Deps, session *sessionmodule.Module, overrides Options, opts ...modkit.Option) *Module {
	_ = modkit.Build(append([]modkit.Option{
		modkit.WithName("scheduling"),
	}, opts...)...)

	if deps.PG == nil {
		panic("scheduling module: requires modkit.Deps.PG (a repokit.TxRunner)")
	}
	if session == nil {
		panic("scheduling module: requires a session module to resolve session overlays")
	}

	cfg := FromConfig(deps.Cfg)
	if overrides.Strict {
		cfg.Strict = overrides.Strict
	}

	storageRepo := repokit.MustBind(repo.NewPG(), deps.PG)

	var coverage domain.CoverageSink
	if deps.CH != nil {
		coverage = repo.NewCH(deps.CH)
	}

	svc := service.New(storageRepo, session.Service(), coverage, clock.System{}, deps.Log, service.Config{Strict: cfg.Strict})

	return &Module{deps: deps, svc: svc}
}

// Service exposes the underlying service for direct in-process callers
func (m *Module) Service() *service.Service { return m.svc }

// Name satisfies modkit.Module
func (m *Module) Name() string { return "scheduling" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.svc }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares satisfies modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes satisfies modkit.Module. This module has no HTTP surface of
// its own: it is called in-process by cmd/shiftsage-api
func (m *Module) MountRoutes(_ httpkit.Router) {}
