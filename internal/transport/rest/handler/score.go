package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"liveroom/internal/service"
)

// ScoreHandler serves read-only standings.
type ScoreHandler struct {
	scoreSvc *service.ScoreService
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(scoreSvc *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{scoreSvc: scoreSvc}
}

// Standings handles GET /v1/rooms/{id}/standings.
func (h *ScoreHandler) Standings(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	standings, err := h.scoreSvc.Standings(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"roomId":    id,
		"standings": standings,
	})
}
