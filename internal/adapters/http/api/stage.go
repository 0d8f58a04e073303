package api

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/okian/rangeboard/internal/domain/stage"
	"github.com/okian/rangeboard/pkg/logger"
)

// StageHandler serves stage reads and mutations.
type StageHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewStageHandler creates a new stage handler.
func NewStageHandler(deps Dependencies, log logger.Logger) *StageHandler {
	return &StageHandler{deps: deps, log: log}
}

type stageResponse struct {
	ID int `json:"id"`
}

// HandleList handles GET /v1/stages.
func (h *StageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	stages, err := h.deps.Stages(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stages)
}

// HandleGet handles GET /v1/stages/{id}.
func (h *StageHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "stage")
	if err != nil {
		writeError(w, err)
		return
	}
	st, err := h.deps.Stage(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleDelete handles DELETE /v1/stages/{id}?confirm=true. Without the
// confirmation nothing is deleted.
func (h *StageHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "stage")
	if err != nil {
		writeError(w, err)
		return
	}
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	deleted, err := h.deps.DeleteStage(r.Context(), id, confirmed)
	if err != nil {
		writeError(w, err)
		return
	}
	h.log.Info(r.Context(), "stage deleted", logger.Int("stage_id", deleted))
	writeJSON(w, http.StatusOK, stageResponse{ID: deleted})
}

// HandleCreate handles POST /v1/stages with a stage.Form body.
func (h *StageHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var f stage.Form
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, wrapBody(err))
		return
	}
	id, err := h.deps.CreateStage(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	h.log.Info(r.Context(), "stage created", logger.Int("stage_id", id))
	writeJSON(w, http.StatusCreated, stageResponse{ID: id})
}
