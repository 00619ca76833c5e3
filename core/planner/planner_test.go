package planner

import (
	"reflect"
	"testing"
	"time"

	"github.com/fleetai/fleetcharge/core/model"
)

var testNow = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func snapshot() ([]model.Vehicle, []model.Charger, []model.RoutePlan) {
	vehicles := []model.Vehicle{
		{ID: "v1", BatteryKWh: 100, SoC: 0.3, SoH: 0.98, TempC: 20, State: model.StateAvailable, ChargerID: "c1"},
	}
	chargers := []model.Charger{
		{ID: "c1", MaxKW: 50, Enabled: true, Efficiency: 0.92},
	}
	routes := []model.RoutePlan{
		{ID: "r1", VehicleID: "v1", StartTime: testNow.Add(120 * time.Minute), EndTime: testNow.Add(240 * time.Minute), RequiredSoCMin: 0.8},
	}
	return vehicles, chargers, routes
}

func TestPlanSingleVehicleDeadlineSizing(t *testing.T) {
	vehicles, chargers, routes := snapshot()
	p := New(DefaultDelayPolicy())

	res := p.Plan(testNow, vehicles, chargers, routes, nil, model.SiteConstraints{SiteMaxKW: 100})

	if len(res.Commands) != 1 {
		t.Fatalf("expected one command, got %d", len(res.Commands))
	}
	cmd := res.Commands[0]
	if cmd.VehicleID != "v1" || cmd.ChargerID != "c1" {
		t.Fatalf("unexpected command target %+v", cmd)
	}
	// deficit 0.5 * 100 kWh over 2h => 25 kW average, no curtailment.
	if cmd.SetKW != 25 {
		t.Fatalf("expected 25 kW, got %v", cmd.SetKW)
	}
	if res.TotalKW != 25 {
		t.Fatalf("expected total 25 kW, got %v", res.TotalKW)
	}
	expl := res.Explanations["v1"]
	if expl.Status != StatusPlanned {
		t.Fatalf("expected planned status, got %s", expl.Status)
	}
	if expl.Sizing == nil || expl.Sizing.NeedKWh != 50 || expl.Sizing.AvgKWNeeded != 25 {
		t.Fatalf("unexpected sizing detail %+v", expl.Sizing)
	}
}

func TestPlanHighSoCCurtailment(t *testing.T) {
	vehicles, chargers, routes := snapshot()
	vehicles[0].SoC = 0.95
	routes[0].RequiredSoCMin = 0.99
	p := New(DefaultDelayPolicy())

	res := p.Plan(testNow, vehicles, chargers, routes, nil, model.SiteConstraints{SiteMaxKW: 100})

	if len(res.Commands) != 1 {
		t.Fatalf("expected one command, got %d", len(res.Commands))
	}
	// deficit 0.04 * 100 kWh over 2h => 2 kW requested, scaled by 0.5*0.3.
	want := 2.0 * 0.15
	if diff := res.Commands[0].SetKW - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected %.2f kW after curtailment, got %v", want, res.Commands[0].SetKW)
	}
}

func TestPlanOverdueRoute(t *testing.T) {
	vehicles, chargers, routes := snapshot()
	routes[0].StartTime = testNow.Add(-10 * time.Minute)
	p := New(DefaultDelayPolicy())

	res := p.Plan(testNow, vehicles, chargers, routes, nil, model.SiteConstraints{SiteMaxKW: 100})

	if len(res.Commands) != 0 {
		t.Fatalf("expected no command, got %d", len(res.Commands))
	}
	if res.Explanations["v1"].Status != StatusError {
		t.Fatalf("expected error status, got %s", res.Explanations["v1"].Status)
	}
	if len(res.Alerts) != 1 || res.Alerts[0] != "Vehicle v1: route should already have started." {
		t.Fatalf("unexpected alerts %v", res.Alerts)
	}
}

func TestPlanEligibilityReasons(t *testing.T) {
	chargers := []model.Charger{
		{ID: "c1", MaxKW: 50, Enabled: true},
		{ID: "c2", MaxKW: 50, Enabled: false},
	}
	routes := []model.RoutePlan{
		{ID: "r1", VehicleID: "on-route", StartTime: testNow.Add(time.Hour), RequiredSoCMin: 0.8},
	}
	vehicles := []model.Vehicle{
		{ID: "on-route", BatteryKWh: 60, SoC: 0.5, State: model.StateOnRoute, ChargerID: "c1"},
		{ID: "unplugged", BatteryKWh: 60, SoC: 0.5, State: model.StateAvailable},
		{ID: "ghost-charger", BatteryKWh: 60, SoC: 0.5, State: model.StateAvailable, ChargerID: "c9"},
		{ID: "disabled-charger", BatteryKWh: 60, SoC: 0.5, State: model.StateAvailable, ChargerID: "c2"},
		{ID: "no-route", BatteryKWh: 60, SoC: 0.5, State: model.StateAvailable, ChargerID: "c1"},
	}
	p := New(DefaultDelayPolicy())

	res := p.Plan(testNow, vehicles, chargers, routes, nil, model.SiteConstraints{SiteMaxKW: 100})

	wantReasons := map[string]string{
		"on-route":         "state=ON_ROUTE",
		"unplugged":        "not plugged into a charger",
		"ghost-charger":    "charger c9 does not exist",
		"disabled-charger": "charger c2 disabled",
		"no-route":         "no route assigned",
	}
	if len(res.Explanations) != len(vehicles) {
		t.Fatalf("expected an explanation per vehicle, got %d", len(res.Explanations))
	}
	for id, want := range wantReasons {
		got := res.Explanations[id]
		if got.Status != StatusIgnored {
			t.Fatalf("%s: expected ignored, got %s", id, got.Status)
		}
		if got.Reason != want {
			t.Fatalf("%s: reason %q, want %q", id, got.Reason, want)
		}
	}
	if len(res.Commands) != 0 {
		t.Fatalf("expected no commands, got %d", len(res.Commands))
	}
}

func TestPlanSiteBudgetPriority(t *testing.T) {
	chargers := []model.Charger{
		{ID: "c1", MaxKW: 80, Enabled: true},
		{ID: "c2", MaxKW: 80, Enabled: true},
	}
	// v1 carries the bigger deficit and must be served first; v2 is then
	// capped by the leftover site budget.
	vehicles := []model.Vehicle{
		{ID: "v2", BatteryKWh: 100, SoC: 0.3, State: model.StateAvailable, ChargerID: "c2"},
		{ID: "v1", BatteryKWh: 100, SoC: 0.1, State: model.StateAvailable, ChargerID: "c1"},
	}
	routes := []model.RoutePlan{
		{ID: "r2", VehicleID: "v2", StartTime: testNow.Add(60 * time.Minute), RequiredSoCMin: 0.85},
		{ID: "r1", VehicleID: "v1", StartTime: testNow.Add(60 * time.Minute), RequiredSoCMin: 0.7},
	}
	p := New(DefaultDelayPolicy())

	res := p.Plan(testNow, vehicles, chargers, routes, nil, model.SiteConstraints{SiteMaxKW: 100})

	if len(res.Commands) != 2 {
		t.Fatalf("expected two commands, got %d", len(res.Commands))
	}
	if res.Commands[0].VehicleID != "v1" {
		t.Fatalf("expected the larger deficit first, got %s", res.Commands[0].VehicleID)
	}
	if res.Commands[0].SetKW != 60 {
		t.Fatalf("expected 60 kW for v1, got %v", res.Commands[0].SetKW)
	}
	if res.Commands[1].SetKW != 40 {
		t.Fatalf("expected v2 capped at the 40 kW leftover, got %v", res.Commands[1].SetKW)
	}
	if res.TotalKW != 100 {
		t.Fatalf("expected the full site budget committed, got %v", res.TotalKW)
	}
}

func TestPlanBudgetExhaustedRecordsRest(t *testing.T) {
	chargers := []model.Charger{
		{ID: "c1", MaxKW: 100, Enabled: true},
		{ID: "c2", MaxKW: 100, Enabled: true},
	}
	vehicles := []model.Vehicle{
		{ID: "v1", BatteryKWh: 100, SoC: 0.1, State: model.StateAvailable, ChargerID: "c1"},
		{ID: "v2", BatteryKWh: 100, SoC: 0.3, State: model.StateAvailable, ChargerID: "c2"},
	}
	routes := []model.RoutePlan{
		{ID: "r1", VehicleID: "v1", StartTime: testNow.Add(30 * time.Minute), RequiredSoCMin: 0.9},
		{ID: "r2", VehicleID: "v2", StartTime: testNow.Add(60 * time.Minute), RequiredSoCMin: 0.8},
	}
	p := New(DefaultDelayPolicy())

	// v1 needs 80 kWh in 30 minutes => 160 kW average, clamped to the
	// 50 kW site cap, exhausting the budget before v2 is visited.
	res := p.Plan(testNow, vehicles, chargers, routes, nil, model.SiteConstraints{SiteMaxKW: 50})

	if len(res.Commands) != 1 || res.Commands[0].VehicleID != "v1" {
		t.Fatalf("expected only v1 to be served, got %+v", res.Commands)
	}
	expl, ok := res.Explanations["v2"]
	if !ok {
		t.Fatal("expected an explanation for the unvisited vehicle")
	}
	if expl.Status != StatusNotPlanned || expl.Reason != "site budget exhausted before evaluation" {
		t.Fatalf("unexpected explanation %+v", expl)
	}
}

func TestPlanPriceDeferral(t *testing.T) {
	vehicles, chargers, routes := snapshot()
	// Expensive now, much cheaper in an hour.
	prices := []model.PricePoint{
		{TS: testNow, EURPerKWh: 0.40},
		{TS: testNow.Add(time.Hour), EURPerKWh: 0.10},
	}
	p := New(DefaultDelayPolicy())

	res := p.Plan(testNow, vehicles, chargers, routes, prices, model.SiteConstraints{SiteMaxKW: 100})

	if len(res.Commands) != 0 {
		t.Fatalf("expected deferral to suppress the command, got %+v", res.Commands)
	}
	expl := res.Explanations["v1"]
	if expl.Status != StatusNotPlanned || !expl.Deferred {
		t.Fatalf("expected deferred not_planned explanation, got %+v", expl)
	}
	if expl.Sizing == nil || expl.Sizing.FinalKW != 0 {
		t.Fatalf("expected zero final power, got %+v", expl.Sizing)
	}
}

func TestPlanCriticalAlert(t *testing.T) {
	vehicles, chargers, routes := snapshot()
	routes[0].StartTime = testNow.Add(30 * time.Minute)
	p := New(DefaultDelayPolicy())

	res := p.Plan(testNow, vehicles, chargers, routes, nil, model.SiteConstraints{SiteMaxKW: 100})

	if len(res.Commands) != 1 {
		t.Fatalf("expected one command, got %d", len(res.Commands))
	}
	if len(res.Alerts) != 1 {
		t.Fatalf("expected a critical alert, got %v", res.Alerts)
	}
	want := "Vehicle v1 critical: route in <60min, charging at 50.0 kW."
	if res.Alerts[0] != want {
		t.Fatalf("alert %q, want %q", res.Alerts[0], want)
	}
}

func TestPlanInvariants(t *testing.T) {
	chargers := []model.Charger{
		{ID: "c1", MaxKW: 22, Enabled: true},
		{ID: "c2", MaxKW: 50, Enabled: true},
		{ID: "c3", MaxKW: 11, Enabled: true},
	}
	vehicles := []model.Vehicle{
		{ID: "v1", BatteryKWh: 80, SoC: 0.2, State: model.StateAvailable, ChargerID: "c1"},
		{ID: "v2", BatteryKWh: 100, SoC: 0.15, State: model.StateAvailable, ChargerID: "c2"},
		{ID: "v3", BatteryKWh: 40, SoC: 0.6, State: model.StateAvailable, ChargerID: "c3"},
		{ID: "v4", BatteryKWh: 60, SoC: 0.9, State: model.StateMaintenance, ChargerID: "c1"},
	}
	routes := []model.RoutePlan{
		{ID: "r1", VehicleID: "v1", StartTime: testNow.Add(45 * time.Minute), RequiredSoCMin: 0.9},
		{ID: "r2", VehicleID: "v2", StartTime: testNow.Add(90 * time.Minute), RequiredSoCMin: 0.8},
		{ID: "r3", VehicleID: "v3", StartTime: testNow.Add(240 * time.Minute), RequiredSoCMin: 0.7},
	}
	site := model.SiteConstraints{SiteMaxKW: 40}
	p := New(DefaultDelayPolicy())

	res := p.Plan(testNow, vehicles, chargers, routes, nil, site)

	var sum float64
	maxByCharger := map[string]float64{"c1": 22, "c2": 50, "c3": 11}
	for _, cmd := range res.Commands {
		sum += cmd.SetKW
		if cmd.SetKW > maxByCharger[cmd.ChargerID] {
			t.Fatalf("command %+v exceeds charger limit", cmd)
		}
	}
	if sum > site.SiteMaxKW+0.01 {
		t.Fatalf("committed %v kW, above the %v kW site cap", sum, site.SiteMaxKW)
	}
	for _, v := range vehicles {
		if _, ok := res.Explanations[v.ID]; !ok {
			t.Fatalf("vehicle %s is missing from the explanation map", v.ID)
		}
	}
}

func TestPlanIdempotent(t *testing.T) {
	chargers := []model.Charger{
		{ID: "c1", MaxKW: 22, Enabled: true},
		{ID: "c2", MaxKW: 22, Enabled: true},
	}
	// Identical urgencies: the stable sort must preserve input order.
	vehicles := []model.Vehicle{
		{ID: "a", BatteryKWh: 60, SoC: 0.4, State: model.StateAvailable, ChargerID: "c1"},
		{ID: "b", BatteryKWh: 60, SoC: 0.4, State: model.StateAvailable, ChargerID: "c2"},
	}
	routes := []model.RoutePlan{
		{ID: "ra", VehicleID: "a", StartTime: testNow.Add(90 * time.Minute), RequiredSoCMin: 0.8},
		{ID: "rb", VehicleID: "b", StartTime: testNow.Add(90 * time.Minute), RequiredSoCMin: 0.8},
	}
	prices := pts(testNow, 0.20, 0.18, 0.22)
	site := model.SiteConstraints{SiteMaxKW: 30}
	p := New(DefaultDelayPolicy())

	first := p.Plan(testNow, vehicles, chargers, routes, prices, site)
	second := p.Plan(testNow, vehicles, chargers, routes, prices, site)

	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical inputs produced different plans")
	}
	if first.Commands[0].VehicleID != "a" {
		t.Fatalf("tie should keep input order, got %s first", first.Commands[0].VehicleID)
	}
}

func TestPlanOKWithoutDeficit(t *testing.T) {
	vehicles, chargers, routes := snapshot()
	vehicles[0].SoC = 0.85
	p := New(DefaultDelayPolicy())

	res := p.Plan(testNow, vehicles, chargers, routes, nil, model.SiteConstraints{SiteMaxKW: 100})

	if len(res.Commands) != 0 {
		t.Fatalf("expected no commands, got %d", len(res.Commands))
	}
	expl := res.Explanations["v1"]
	if expl.Status != StatusOK {
		t.Fatalf("expected ok status, got %s", expl.Status)
	}
	if res.TotalKW != 0 {
		t.Fatalf("expected zero committed power, got %v", res.TotalKW)
	}
}

func TestPlanEmptyPricesNeverDefer(t *testing.T) {
	vehicles, chargers, routes := snapshot()
	p := New(DefaultDelayPolicy())

	res := p.Plan(testNow, vehicles, chargers, routes, []model.PricePoint{}, model.SiteConstraints{SiteMaxKW: 100})

	expl := res.Explanations["v1"]
	if expl.Deferred {
		t.Fatal("deferred with no price data")
	}
	if expl.PriceNow != nil || expl.BestPriceUntilRoute != nil {
		t.Fatalf("expected absent prices, got %+v", expl)
	}
	if len(res.Commands) != 1 {
		t.Fatalf("expected the plan to proceed without prices, got %d commands", len(res.Commands))
	}
}
