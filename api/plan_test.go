package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetai/fleetcharge/core/model"
	"github.com/fleetai/fleetcharge/core/planner"
	"github.com/fleetai/fleetcharge/core/pricing"
	"github.com/fleetai/fleetcharge/infra/logger"
	"github.com/fleetai/fleetcharge/infra/mqtt"
	"github.com/fleetai/fleetcharge/internal/eventbus"
)

var apiNow = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

// stubProvider returns canned curves and snapshots.
type stubProvider struct {
	curve    []model.PricePoint
	curveErr error
	snap     pricing.Snapshot
}

func (s *stubProvider) CurrentPrice(context.Context, time.Time) pricing.Snapshot {
	return s.snap
}

func (s *stubProvider) TodayCurve(context.Context, time.Time) ([]model.PricePoint, error) {
	return s.curve, s.curveErr
}

func planRequest() PlanRequest {
	return PlanRequest{
		Now:       apiNow,
		SiteMaxKW: 100,
		Vehicles: []model.Vehicle{
			{ID: "v1", BatteryKWh: 100, SoC: 0.3, SoH: 0.98, TempC: 20, State: model.StateAvailable, ChargerID: "c1"},
		},
		Chargers: []model.Charger{{ID: "c1", MaxKW: 50, Enabled: true}},
		Routes: []model.RoutePlan{
			{ID: "r1", VehicleID: "v1", StartTime: apiNow.Add(120 * time.Minute), EndTime: apiNow.Add(240 * time.Minute), RequiredSoCMin: 0.8},
		},
	}
}

func newPlanHandler(provider pricing.Provider, pub mqtt.SetpointPublisher, bus *eventbus.Bus) *PlanHandler {
	return &PlanHandler{
		Planner:      planner.New(planner.DefaultDelayPolicy()),
		Prices:       provider,
		Bus:          bus,
		Publisher:    pub,
		Log:          logger.NopLogger{},
		DefaultPrice: 0.20,
	}
}

func postPlan(t *testing.T, h *PlanHandler, req PlanRequest) PlanResponse {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plan", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp PlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestPlanEndpoint(t *testing.T) {
	h := newPlanHandler(&stubProvider{}, nil, nil)
	resp := postPlan(t, h, planRequest())

	require.Len(t, resp.Commands, 1)
	assert.Equal(t, 25.0, resp.Commands[0].SetKW)
	assert.Equal(t, 25.0, resp.TotalKW)
	assert.NotEmpty(t, resp.PlanID)
	require.Contains(t, resp.Explanations, "v1")
	assert.Equal(t, planner.StatusPlanned, resp.Explanations["v1"].Status)
}

func TestPlanEndpointExplicitPricesWin(t *testing.T) {
	provider := &stubProvider{curve: []model.PricePoint{{TS: apiNow, EURPerKWh: 0.99}}}
	h := newPlanHandler(provider, nil, nil)

	req := planRequest()
	req.Prices = []model.PricePoint{{TS: apiNow, EURPerKWh: 0.10}}
	resp := postPlan(t, h, req)

	assert.Equal(t, "request", resp.PriceSource)
}

func TestPlanEndpointFallsBackToDayCurve(t *testing.T) {
	provider := &stubProvider{curve: []model.PricePoint{{TS: apiNow, EURPerKWh: 0.15}}}
	h := newPlanHandler(provider, nil, nil)

	resp := postPlan(t, h, planRequest())
	assert.Equal(t, "day-curve", resp.PriceSource)
}

func TestPlanEndpointFallsBackToCurrentPrice(t *testing.T) {
	price := 0.18
	provider := &stubProvider{
		curveErr: errors.New("omie down"),
		snap:     pricing.Snapshot{OK: true, TS: apiNow, EURPerKWh: &price, Source: "REN:GetMarketPrice"},
	}
	h := newPlanHandler(provider, nil, nil)

	resp := postPlan(t, h, planRequest())
	assert.Equal(t, "current-price", resp.PriceSource)
}

func TestPlanEndpointFallsBackToDefault(t *testing.T) {
	provider := &stubProvider{
		curveErr: errors.New("omie down"),
		snap:     pricing.Snapshot{OK: false, ErrCode: pricing.CodeGeneral, Err: "all sources down"},
	}
	h := newPlanHandler(provider, nil, nil)

	resp := postPlan(t, h, planRequest())
	assert.Equal(t, "default", resp.PriceSource)
	// The default price still yields a plan.
	require.Len(t, resp.Commands, 1)
}

func TestPlanEndpointPublishesAlertsAndSetpoints(t *testing.T) {
	bus := eventbus.New()
	sub := bus.Subscribe()
	pub := mqtt.NewMockPublisher()
	h := newPlanHandler(&stubProvider{}, pub, bus)

	req := planRequest()
	// Route in 30 minutes triggers the critical alert.
	req.Routes[0].StartTime = apiNow.Add(30 * time.Minute)
	resp := postPlan(t, h, req)

	require.Len(t, resp.Alerts, 1)
	select {
	case ev := <-sub:
		assert.Equal(t, resp.Alerts, ev.Items)
	case <-time.After(time.Second):
		t.Fatal("alert not published on the bus")
	}
	assert.Equal(t, resp.Commands[0].SetKW, pub.Setpoints["c1"])
}

func TestPlanEndpointRejectsBadInput(t *testing.T) {
	h := newPlanHandler(&stubProvider{}, nil, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plan", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plan", bytes.NewReader([]byte("{not json"))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
