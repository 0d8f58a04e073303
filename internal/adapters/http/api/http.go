// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	service "github.com/okian/rangeboard/internal/app"
	"github.com/okian/rangeboard/internal/domain/filter"
	"github.com/okian/rangeboard/internal/domain/model"
	"github.com/okian/rangeboard/internal/domain/projector"
	"github.com/okian/rangeboard/internal/domain/reorder"
	"github.com/okian/rangeboard/internal/domain/stage"
	"github.com/okian/rangeboard/internal/domain/statistics"
	"github.com/okian/rangeboard/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ScorelistView(ctx context.Context, id, round int, ordering bool) (projector.ScorelistView, error)
	AddRound(ctx context.Context, id int) (int, error)
	Swap(ctx context.Context, ev reorder.DragEnd) (bool, error)
	Join(id, round int, ordering bool) (*service.LiveSession, error)

	Stages(ctx context.Context) ([]model.StageSummary, error)
	Stage(ctx context.Context, id int) (model.Stage, error)
	DeleteStage(ctx context.Context, id int, confirmed bool) (int, error)
	CreateStage(ctx context.Context, f stage.Form) (int, error)

	Statistics(ctx context.Context, sel filter.Selection) (statistics.View, error)
	Shooters(ctx context.Context) ([]model.Shooter, error)
}

// Server wires HTTP routes for the JSON API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	scorelistHandler  *ScorelistHandler
	liveHandler       *LiveHandler
	stageHandler      *StageHandler
	statisticsHandler *StatisticsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{log: logger.Nop(), outbox: defaultLiveOutbox}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		scorelistHandler:  NewScorelistHandler(deps, o.log),
		liveHandler:       newLiveHandler(deps, o),
		stageHandler:      NewStageHandler(deps, o.log),
		statisticsHandler: NewStatisticsHandler(deps, o.log),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/scorelists/{id}", func(r chi.Router) {
			r.Get("/", MetricsMiddleware(s.scorelistHandler.HandleGet, "scorelist"))
			r.Post("/rounds", MetricsMiddleware(s.scorelistHandler.HandleAddRound, "scorelist_rounds"))
			r.Post("/swap", MetricsMiddleware(s.scorelistHandler.HandleSwap, "scorelist_swap"))
			r.Get("/live", MetricsMiddleware(s.liveHandler.HandleLive, "scorelist_live"))
		})
		r.Get("/stages", MetricsMiddleware(s.stageHandler.HandleList, "stages"))
		r.Post("/stages", MetricsMiddleware(s.stageHandler.HandleCreate, "stages"))
		r.Get("/stages/{id}", MetricsMiddleware(s.stageHandler.HandleGet, "stage"))
		r.Delete("/stages/{id}", MetricsMiddleware(s.stageHandler.HandleDelete, "stage"))
		r.Get("/statistics", MetricsMiddleware(s.statisticsHandler.HandleStatistics, "statistics"))
		r.Get("/shooters", MetricsMiddleware(s.statisticsHandler.HandleShooters, "shooters"))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err as {code, message}. The status and code are derived
// from the error kind.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeJSON(w, status, newErrorResponse(code, err))
}

// pathID reads the positive {id} route parameter of an entity.
func pathID(r *http.Request, entity string) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s id %q", ErrBadRequest, entity, raw)
	}
	return id, nil
}
