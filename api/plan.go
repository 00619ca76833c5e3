// Package api exposes the HTTP front door of the planner: the plan
// endpoint, the price endpoints and the WebSocket alert feed.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	coremetrics "github.com/fleetai/fleetcharge/core/metrics"
	"github.com/fleetai/fleetcharge/core/model"
	"github.com/fleetai/fleetcharge/core/planner"
	"github.com/fleetai/fleetcharge/core/pricing"
	"github.com/fleetai/fleetcharge/infra/logger"
	"github.com/fleetai/fleetcharge/infra/mqtt"
	"github.com/fleetai/fleetcharge/internal/eventbus"
)

// PlanRequest is the snapshot payload accepted by POST /api/plan.
type PlanRequest struct {
	Now       time.Time          `json:"now"`
	SiteMaxKW float64            `json:"site_max_kw"`
	Vehicles  []model.Vehicle    `json:"vehicles"`
	Chargers  []model.Charger    `json:"chargers"`
	Routes    []model.RoutePlan  `json:"routes"`
	Prices    []model.PricePoint `json:"prices,omitempty"`
}

// PlanResponse wraps the plan with a correlation id.
type PlanResponse struct {
	PlanID       string                         `json:"plan_id"`
	Timestamp    time.Time                      `json:"timestamp"`
	TotalKW      float64                        `json:"total_kw"`
	Commands     []planner.ChargingCommand      `json:"commands"`
	Alerts       []string                       `json:"alerts"`
	Explanations map[string]planner.Explanation `json:"explanations"`
	PriceSource  string                         `json:"price_source"`
}

// PlanHandler serves POST /api/plan.
type PlanHandler struct {
	Planner      planner.Planner
	Prices       pricing.Provider
	Bus          *eventbus.Bus
	Publisher    mqtt.SetpointPublisher
	Sink         coremetrics.Sink
	Log          logger.Logger
	DefaultPrice float64
}

// ServeHTTP decodes the snapshot, resolves a price curve, runs one
// planning pass and returns the plan. Alerts are pushed on the event bus
// and, when a publisher is configured, setpoints go out over MQTT.
func (h *PlanHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	prices, source := h.resolvePrices(r.Context(), now, req.Prices)

	res := h.Planner.Plan(now, req.Vehicles, req.Chargers, req.Routes, prices, model.SiteConstraints{SiteMaxKW: req.SiteMaxKW})

	if h.Sink != nil {
		if err := h.Sink.RecordPlan(coremetrics.PlanEvent{
			TS:          res.TS,
			SiteMaxKW:   req.SiteMaxKW,
			TotalKW:     res.TotalKW,
			Vehicles:    len(req.Vehicles),
			Commands:    len(res.Commands),
			Alerts:      len(res.Alerts),
			PriceSource: source,
		}); err != nil {
			h.Log.Warnf("record plan metrics: %v", err)
		}
	}

	if len(res.Alerts) > 0 && h.Bus != nil {
		h.Bus.Publish(eventbus.AlertEvent{TS: res.TS, Items: res.Alerts})
	}

	if h.Publisher != nil {
		for _, cmd := range res.Commands {
			if _, err := h.Publisher.PublishSetpoint(cmd, res.TS); err != nil {
				h.Log.Errorf("setpoint for charger %s: %v", cmd.ChargerID, err)
			}
		}
	}

	resp := PlanResponse{
		PlanID:       uuid.NewString(),
		Timestamp:    res.TS,
		TotalKW:      res.TotalKW,
		Commands:     res.Commands,
		Alerts:       res.Alerts,
		Explanations: res.Explanations,
		PriceSource:  source,
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolvePrices applies the caller-side fallback policy: explicit prices
// from the request, then the day curve, then the current price, then the
// configured default. The planner itself never fetches anything.
func (h *PlanHandler) resolvePrices(ctx context.Context, now time.Time, explicit []model.PricePoint) ([]model.PricePoint, string) {
	if len(explicit) > 0 {
		return explicit, "request"
	}
	if h.Prices == nil {
		return []model.PricePoint{{TS: now, EURPerKWh: h.DefaultPrice}}, "default"
	}

	start := time.Now()
	curve, err := h.Prices.TodayCurve(ctx, now)
	h.recordFetch("day-curve", err == nil && len(curve) > 0, time.Since(start))
	if err != nil {
		h.Log.Warnf("day curve unavailable: %v", err)
	}
	if len(curve) > 0 {
		return curve, "day-curve"
	}

	start = time.Now()
	snap := h.Prices.CurrentPrice(ctx, now)
	h.recordFetch(snap.Source, snap.OK, time.Since(start))
	if snap.OK && snap.EURPerKWh != nil {
		return []model.PricePoint{{TS: now, EURPerKWh: *snap.EURPerKWh}}, "current-price"
	}
	if snap.Err != "" {
		h.Log.Warnf("current price unavailable: %s (%s)", snap.Err, snap.ErrCode)
	}

	return []model.PricePoint{{TS: now, EURPerKWh: h.DefaultPrice}}, "default"
}

func (h *PlanHandler) recordFetch(source string, ok bool, d time.Duration) {
	if h.Sink == nil {
		return
	}
	if err := h.Sink.RecordPriceFetch(coremetrics.PriceFetchEvent{Source: source, OK: ok, Duration: d}); err != nil {
		h.Log.Warnf("record price fetch: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
