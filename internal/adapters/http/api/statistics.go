package api

import (
	"net/http"

	"github.com/okian/rangeboard/internal/domain/filter"
	"github.com/okian/rangeboard/pkg/logger"
)

// StatisticsHandler serves the aggregate statistics and the shooter list.
type StatisticsHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewStatisticsHandler creates a new statistics handler.
func NewStatisticsHandler(deps Dependencies, log logger.Logger) *StatisticsHandler {
	return &StatisticsHandler{deps: deps, log: log}
}

// HandleStatistics handles GET /v1/statistics?scoreboard=[..]&scorelist=[..]&stage=[..].
// Malformed filter parameters are ignored.
func (h *StatisticsHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	m := filter.NewManager(r.Context(), r.URL, filter.WithLogger(h.log))
	view, err := h.deps.Statistics(r.Context(), m.Selection())
	if err != nil {
		h.log.Warn(r.Context(), "statistics read failed", logger.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleShooters handles GET /v1/shooters.
func (h *StatisticsHandler) HandleShooters(w http.ResponseWriter, r *http.Request) {
	shooters, err := h.deps.Shooters(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shooters)
}
