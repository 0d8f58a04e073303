// Package site renders the dashboard pages.
package site

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/okian/rangeboard/internal/adapters/graphql"
	"github.com/okian/rangeboard/internal/domain/filter"
	"github.com/okian/rangeboard/internal/domain/model"
	"github.com/okian/rangeboard/internal/domain/projector"
	"github.com/okian/rangeboard/internal/domain/stage"
	"github.com/okian/rangeboard/internal/domain/statistics"
	"github.com/okian/rangeboard/pkg/logger"
	g "maragu.dev/gomponents"
)

// Dependencies required by the page handlers.
type Dependencies interface {
	Scorelist(ctx context.Context, id int) (model.Scorelist, error)
	ScorelistView(ctx context.Context, id, round int, ordering bool) (projector.ScorelistView, error)
	Stages(ctx context.Context) ([]model.StageSummary, error)
	Stage(ctx context.Context, id int) (model.Stage, error)
	DeleteStage(ctx context.Context, id int, confirmed bool) (int, error)
	ValidateStage(f stage.Form) error
	CreateStage(ctx context.Context, f stage.Form) (int, error)
	Statistics(ctx context.Context, sel filter.Selection) (statistics.View, error)
	Shooters(ctx context.Context) ([]model.Shooter, error)
}

// Handler serves the dashboard pages.
type Handler struct {
	deps        Dependencies
	apiEndpoint string
	log         logger.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the page logger.
func WithLogger(l logger.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// New creates the page handler. apiEndpoint is the remote service base URL
// that /api/* is redirected to.
func New(deps Dependencies, apiEndpoint string, opts ...HandlerOption) *Handler {
	h := &Handler{deps: deps, apiEndpoint: strings.TrimRight(apiEndpoint, "/"), log: logger.Nop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register attaches the page routes to r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/statistics", http.StatusFound)
	})
	r.Get("/statistics", h.handleStatistics)
	r.Post("/statistics/filter", h.handleStatisticsFilter)
	r.Get("/scoring/{scorelistId}", h.handleScorelist)
	r.Get("/scoring/{scorelistId}/{scoreId}", h.handleScore)
	r.Get("/stages", h.handleStages)
	r.Get("/stages/new", h.handleNewStage)
	r.Post("/stages/new", h.handleCreateStage)
	r.Get("/stages/{stageId}", h.handleStage)
	r.Post("/stages/{stageId}/delete", h.handleDeleteStage)
	r.Get("/shooters", h.handleShooters)
	r.Handle("/api/*", http.HandlerFunc(h.handleAPIRedirect))
}

// handleAPIRedirect permanently forwards /api/* to the remote service.
func (h *Handler) handleAPIRedirect(w http.ResponseWriter, r *http.Request) {
	target := h.apiEndpoint + "/" + chi.URLParam(r, "*")
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusMovedPermanently)
}

func render(w http.ResponseWriter, status int, node g.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

func isFragment(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true" || r.URL.Query().Get("fragment") == "1"
}

func routeID(r *http.Request, param string, kind error) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil || id <= 0 {
		return 0, kind
	}
	return id, nil
}

// errorText is the inline error message. Remote failures are shown
// serialized.
func errorText(err error) string {
	var ge *graphql.Error
	if errors.As(err, &ge) {
		if b, mErr := json.Marshal(ge); mErr == nil {
			return string(b)
		}
	}
	return err.Error()
}

// errorStatus maps a page error to its HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidScorelistID), errors.Is(err, ErrInvalidScoreID), errors.Is(err, ErrInvalidStageID):
		return http.StatusBadRequest
	case errors.Is(err, ErrScoreNotFound), errors.Is(err, graphql.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, stage.ErrInvalidForm):
		return http.StatusUnprocessableEntity
	}
	var ge *graphql.Error
	if errors.As(err, &ge) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
