// Command shiftsage-api is the thin composition root for the scheduling
// assistant: it wires the store, the session and scheduling modules, and a
// minimal read surface over GetWeek. Routing/documentation scaffolding
// (go-chi, swaggo) is out of scope here; the handful of endpoints below are
// mounted directly on the standard library mux
package main

import (
	"context"
	"encoding/json"
	"net/http"

	"shiftsage/internal/core/version"
	"shiftsage/internal/modkit"
	"shiftsage/internal/platform/config"
	perr "shiftsage/internal/platform/errors"
	"shiftsage/internal/platform/logger"
	"shiftsage/internal/platform/store"

	"shiftsage/internal/services/scheduling/domain"
	schedulingmod "shiftsage/internal/services/scheduling/module"
	sessionmod "shiftsage/internal/services/session/module"
)

func main() {
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	dbCfg := root.Prefix("SERVICE_PGSQL_")

	l := logger.Get()

	dsn := dbCfg.MayString("DBURL", "")
	if dsn == "" {
		l.Panic().Msg("missing SERVICE_PGSQL_DBURL")
	}

	st, err := store.Open(
		context.Background(),
		store.Config{
			PG: store.PGConfig{
				Enabled:     true,
				URL:         dsn,
				MaxConns:    int32(dbCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: dbCfg.MayInt("SLOW_MS", 500),
				LogSQL:      dbCfg.MayBool("LOG_SQL", true),
			},
			CH: store.CHConfig{
				Enabled: root.Prefix("SERVICE_CLICKHOUSE_").MayBool("ENABLED", false),
				URL:     root.Prefix("SERVICE_CLICKHOUSE_").MayString("DBURL", ""),
			},
		},
		store.WithLogger(*l),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.Deps{Log: *l, Cfg: root, PG: st.PG, CH: st.CH}

	session := sessionmod.New(deps, sessionmod.Options{})
	scheduling := schedulingmod.New(deps, session, schedulingmod.Options{})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(version.Info())
	})
	mux.HandleFunc("GET /v1/units/{unitId}/weeks/{weekStart}", getWeekHandler(scheduling))

	addr := apiCfg.MayString("ADDR", ":8080")
	l.Info().Str("addr", addr).Msg("shiftsage-api listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}

// getWeekHandler exposes scheduling.Service.GetWeek as a single read endpoint
func getWeekHandler(m *schedulingmod.Module) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := domain.WeekRequest{
			UnitID:    r.PathValue("unitId"),
			WeekStart: r.PathValue("weekStart"),
			SessionID: r.URL.Query().Get("sessionId"),
		}

		resp, err := m.Service().GetWeek(r.Context(), req)
		if err != nil {
			status, wire := perr.HTTP(err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(wire)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
