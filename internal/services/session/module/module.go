// Package module implements the session module
package module

import (
	"net/http"

	"shiftsage/internal/modkit"
	"shiftsage/internal/modkit/httpkit"
	"shiftsage/internal/platform/clock"
	"shiftsage/internal/services/session/repo"
	"shiftsage/internal/services/session/service"
)

// Module implements modkit.Module
type Module struct {
	deps modkit.Deps
	svc  *service.Service
}

// New constructs a new session module. deps.PG is required: session state
// lives in the same transactional store as shifts and the applied ledger
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	_ = modkit.Build(append([]modkit.Option{
		modkit.WithName("session"),
	}, opts...)...)

	if deps.PG == nil {
		panic("session module: requires modkit.Deps.PG (a repokit.TxRunner)")
	}

	cfg := FromConfig(deps.Cfg)
	if overrides.SessionTable != "" {
		cfg.SessionTable = overrides.SessionTable
	}
	if overrides.DefaultTTLSeconds != 0 {
		cfg.DefaultTTLSeconds = overrides.DefaultTTLSeconds
	}

	bind := repo.NewPG(cfg.SessionTable)
	svc := service.New(deps.PG, bind, clock.System{}, service.Config{DefaultTTLSeconds: cfg.DefaultTTLSeconds})

	return &Module{deps: deps, svc: svc}
}

// Service exposes the underlying service for direct in-process callers
func (m *Module) Service() *service.Service { return m.svc }

// Name satisfies modkit.Module
func (m *Module) Name() string { return "session" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.svc }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares satisfies modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes satisfies modkit.Module. The session module has no HTTP
// surface of its own: it is called in-process by services/scheduling
func (m *Module) MountRoutes(_ httpkit.Router) {}
