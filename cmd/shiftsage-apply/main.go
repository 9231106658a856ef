// Command shiftsage-apply is a CLI to accept or reject a single suggestion
// against the store, using the same acceptSuggestion/rejectSuggestion path
// the API surface would call in-process
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"shiftsage/internal/core/engine"
	"shiftsage/internal/core/model"
	"shiftsage/internal/modkit"
	"shiftsage/internal/platform/config"
	"shiftsage/internal/platform/logger"
	"shiftsage/internal/platform/store"

	applydomain "shiftsage/internal/services/apply/domain"
	applymod "shiftsage/internal/services/apply/module"
	schedulingdomain "shiftsage/internal/services/scheduling/domain"
	schedulingmod "shiftsage/internal/services/scheduling/module"
	sessionmod "shiftsage/internal/services/session/module"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired modules a subcommand needs
type app struct {
	scheduling *schedulingmod.Module
	apply      *applymod.Module
	close      func()
}

func newApp(ctx context.Context) (*app, error) {
	format := "console"
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		format = "json"
	}
	logger.Init(logger.Options{Format: format, Level: "info", Service: "shiftsage-apply"})
	l := logger.Get()

	root := config.New()
	dbCfg := root.Prefix("SERVICE_PGSQL_")
	dsn := dbCfg.MayString("DBURL", "")
	if dsn == "" {
		return nil, fmt.Errorf("missing SERVICE_PGSQL_DBURL")
	}

	st, err := store.Open(ctx, store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         dsn,
			MaxConns:    int32(dbCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: dbCfg.MayInt("SLOW_MS", 500),
			LogSQL:      dbCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		return nil, fmt.Errorf("store.Open: %w", err)
	}

	deps := modkit.Deps{Log: *l, Cfg: root, PG: st.PG, CH: st.CH}
	session := sessionmod.New(deps, sessionmod.Options{})
	scheduling := schedulingmod.New(deps, session, schedulingmod.Options{})
	apply := applymod.New(deps, applymod.Options{})

	return &app{
		scheduling: scheduling,
		apply:      apply,
		close:      func() { _ = st.Close(context.Background()) },
	}, nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shiftsage-apply",
		Short: "Accept or reject a single scheduling suggestion",
	}
	cmd.AddCommand(newAcceptCmd(), newRejectCmd())
	return cmd
}

func newAcceptCmd() *cobra.Command {
	var unit, week, suggestionID, sessionID, reason string

	cmd := &cobra.Command{
		Use:   "accept",
		Short: "Accept a suggestion and apply its actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			in, err := a.scheduling.Service().EngineInputForWeek(ctx, schedulingdomain.WeekRequest{
				UnitID: unit, WeekStart: week, SessionID: sessionID,
			})
			if err != nil {
				return fmt.Errorf("load week: %w", err)
			}

			result, err := engine.Run(in)
			if err != nil {
				return fmt.Errorf("run engine: %w", err)
			}

			suggestion, ok := findSuggestion(result.Assistant.Suggestions, suggestionID)
			if !ok {
				return fmt.Errorf("suggestion %s not found for unit %s week %s", suggestionID, unit, week)
			}

			res, err := a.apply.Service().AcceptSuggestion(ctx, applydomain.AcceptInput{
				UnitID:         unit,
				SuggestionID:   suggestionID,
				SignatureHash:  suggestion.Meta.SignatureHash,
				Suggestion:     toCoreSuggestion(suggestion),
				SessionID:      sessionID,
				Engine:         in,
				DecisionSource: model.SourceUser,
				Reason:         reason,
			})
			if err != nil {
				return fmt.Errorf("accept suggestion: %w", err)
			}

			fmt.Printf("status=%s appliedShifts=%d\n", res.Status, len(res.AppliedShiftIDs))
			return nil
		},
	}

	cmd.Flags().StringVar(&unit, "unit", "", "unit id")
	cmd.Flags().StringVar(&week, "week", "", "week start dateKey (YYYY-MM-DD)")
	cmd.Flags().StringVar(&suggestionID, "suggestion", "", "suggestion id to accept")
	cmd.Flags().StringVar(&sessionID, "session", "", "assistant session id (optional)")
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded on the decision (optional)")
	_ = cmd.MarkFlagRequired("unit")
	_ = cmd.MarkFlagRequired("week")
	_ = cmd.MarkFlagRequired("suggestion")

	return cmd
}

func newRejectCmd() *cobra.Command {
	var unit, suggestionID, sessionID, reason string

	cmd := &cobra.Command{
		Use:   "reject",
		Short: "Reject a suggestion (writes a decision record only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.apply.Service().RejectSuggestion(ctx, applydomain.RejectInput{
				UnitID:         unit,
				SuggestionID:   suggestionID,
				SessionID:      sessionID,
				DecisionSource: model.SourceUser,
				Reason:         reason,
			}); err != nil {
				return fmt.Errorf("reject suggestion: %w", err)
			}

			fmt.Println("status=rejected")
			return nil
		},
	}

	cmd.Flags().StringVar(&unit, "unit", "", "unit id")
	cmd.Flags().StringVar(&suggestionID, "suggestion", "", "suggestion id to reject")
	cmd.Flags().StringVar(&sessionID, "session", "", "assistant session id (optional)")
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded on the decision (optional)")
	_ = cmd.MarkFlagRequired("unit")
	_ = cmd.MarkFlagRequired("suggestion")

	return cmd
}

func findSuggestion(suggestions []model.AssistantSuggestion, id string) (model.AssistantSuggestion, bool) {
	for _, s := range suggestions {
		if s.ID == id {
			return s, true
		}
	}
	return model.AssistantSuggestion{}, false
}

func toCoreSuggestion(s model.AssistantSuggestion) model.Suggestion {
	return model.Suggestion{
		Type:           s.Type,
		Explanation:    s.Explanation,
		ExpectedImpact: s.ExpectedImpact,
		Actions:        s.Actions,
	}
}
