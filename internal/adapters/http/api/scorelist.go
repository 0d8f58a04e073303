package api

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/okian/rangeboard/internal/domain/reorder"
	"github.com/okian/rangeboard/pkg/logger"
)

// ScorelistHandler serves scorelist reads and mutations.
type ScorelistHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewScorelistHandler creates a new scorelist handler.
func NewScorelistHandler(deps Dependencies, log logger.Logger) *ScorelistHandler {
	return &ScorelistHandler{deps: deps, log: log}
}

type addRoundResponse struct {
	Rounds int `json:"rounds"`
}

type swapResponse struct {
	Issued bool `json:"issued"`
}

// viewerState reads ?round=&ordering=. Unparseable values fall back to the
// overall tab with ordering off.
func viewerState(r *http.Request) (int, bool) {
	q := r.URL.Query()
	round, err := strconv.Atoi(q.Get("round"))
	if err != nil || round < 0 {
		round = 0
	}
	ordering, _ := strconv.ParseBool(q.Get("ordering"))
	return round, ordering
}

// HandleGet handles GET /v1/scorelists/{id}?round=&ordering=.
func (h *ScorelistHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "scorelist")
	if err != nil {
		writeError(w, err)
		return
	}
	round, ordering := viewerState(r)
	view, err := h.deps.ScorelistView(r.Context(), id, round, ordering)
	if err != nil {
		h.log.Warn(r.Context(), "scorelist read failed", logger.Int("scorelist_id", id), logger.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleAddRound handles POST /v1/scorelists/{id}/rounds.
func (h *ScorelistHandler) HandleAddRound(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "scorelist")
	if err != nil {
		writeError(w, err)
		return
	}
	rounds, err := h.deps.AddRound(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addRoundResponse{Rounds: rounds})
}

// HandleSwap handles POST /v1/scorelists/{id}/swap with a reorder.DragEnd
// body.
func (h *ScorelistHandler) HandleSwap(w http.ResponseWriter, r *http.Request) {
	if _, err := pathID(r, "scorelist"); err != nil {
		writeError(w, err)
		return
	}
	var ev reorder.DragEnd
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, wrapBody(err))
		return
	}
	issued, err := h.deps.Swap(r.Context(), ev)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, swapResponse{Issued: issued})
}
