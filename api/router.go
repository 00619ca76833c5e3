package api

import (
	"net/http"
)

// Routes mounts all handlers on a fresh ServeMux.
func Routes(plan *PlanHandler, price *PriceHandler, hub *AlertHub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/plan", plan)
	mux.HandleFunc("/api/price/current", price.Current)
	mux.HandleFunc("/api/prices/today", price.Today)
	mux.Handle("/ws", hub)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}
