package handlers

import (
	"net/http"

	"github.com/diewo77/go-collect/internal/services"
)

type StatsHandler struct {
	svc *services.StatsService
	ag  Authorizer
}

func NewStatsHandler(svc *services.StatsService, ag Authorizer) *StatsHandler {
	return &StatsHandler{svc: svc, ag: ag}
}

// Summary is the dashboard: counts and per-state totals in the caller's scope.
func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Summary(r.Context(), scopeOf(r.Context(), h.ag))
	respond(w, r, http.StatusOK, stats, err)
}
