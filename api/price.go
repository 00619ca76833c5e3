package api

import (
	"net/http"
	"time"

	"github.com/fleetai/fleetcharge/core/model"
	"github.com/fleetai/fleetcharge/core/pricing"
	"github.com/fleetai/fleetcharge/infra/logger"
)

// PriceHandler serves the read-only price endpoints.
type PriceHandler struct {
	Prices pricing.Provider
	Log    logger.Logger
}

// todayResponse is the payload of GET /api/prices/today.
type todayResponse struct {
	OK     bool                `json:"ok"`
	Points []model.PricePoint  `json:"points,omitempty"`
	Stats  *pricing.CurveStats `json:"stats,omitempty"`
	Source string              `json:"source,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// Current returns the price closest to now from the fallback chain.
func (h *PriceHandler) Current(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := h.Prices.CurrentPrice(r.Context(), time.Now().UTC())
	writeJSON(w, http.StatusOK, snap)
}

// Today returns the resolved day curve with summary statistics.
func (h *PriceHandler) Today(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	points, err := h.Prices.TodayCurve(r.Context(), time.Now().UTC())
	if err != nil {
		writeJSON(w, http.StatusOK, todayResponse{OK: false, Error: err.Error()})
		return
	}
	resp := todayResponse{OK: true, Points: points, Source: "OMIE"}
	if stats, ok := pricing.Summarize(points); ok {
		resp.Stats = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}
