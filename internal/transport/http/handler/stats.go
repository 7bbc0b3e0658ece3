package handler

import (
	"net/http"

	"github.com/regportal-api/internal/application/stats"
)

// StatsHandler serves the live registration counters.
type StatsHandler struct {
	svc stats.Service
}

func NewStatsHandler(svc stats.Service) *StatsHandler { return &StatsHandler{svc: svc} }

func (h *StatsHandler) Current(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Current(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Refresh recomputes the counters synchronously. Admin only.
func (h *StatsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Refresh(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
