package planner

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/fleetai/fleetcharge/core/model"
)

// powerEpsilon is the tolerance below which an allocation is treated as
// zero, both for individual commands and for the remaining site budget.
const powerEpsilon = 0.01

// ChargingCommand instructs one charger to deliver a power setpoint to
// the vehicle plugged into it.
type ChargingCommand struct {
	VehicleID string  `json:"vehicle_id"`
	ChargerID string  `json:"charger_id"`
	SetKW     float64 `json:"set_kw"`
	Reason    string  `json:"reason"`
}

// PlanResult is the complete outcome of one planning pass.
type PlanResult struct {
	TS           time.Time              `json:"timestamp"`
	TotalKW      float64                `json:"total_kw"`
	Commands     []ChargingCommand      `json:"commands"`
	Alerts       []string               `json:"alerts"`
	Explanations map[string]Explanation `json:"explanations"`
}

// Planner holds the tunable policy of the allocation engine. The zero
// value is not usable; construct one with New.
type Planner struct {
	delay DelayPolicy
}

// New returns a Planner with the given deferral policy. Zero policy
// fields fall back to the defaults.
func New(pol DelayPolicy) Planner {
	def := DefaultDelayPolicy()
	if pol.MarginRatio == 0 {
		pol.MarginRatio = def.MarginRatio
	}
	if pol.UrgencyMinutes == 0 {
		pol.UrgencyMinutes = def.UrgencyMinutes
	}
	return Planner{delay: pol}
}

const commandReason = "route urgency within site and charger limits, battery protection, energy cost"

const sizedReason = "power sized to reach the minimum SoC before departure at the lowest cost, " +
	"respecting site, charger and battery limits"

type candidate struct {
	vehicle model.Vehicle
	charger model.Charger
	route   model.RoutePlan
	urgency float64
}

// Plan runs one allocation pass over the snapshot. It never fails on
// malformed business input: every vehicle either receives a command or an
// explanation stating why not.
func (p Planner) Plan(now time.Time, vehicles []model.Vehicle, chargers []model.Charger, routes []model.RoutePlan, prices []model.PricePoint, site model.SiteConstraints) PlanResult {
	chargerByID := make(map[string]model.Charger, len(chargers))
	for _, c := range chargers {
		chargerByID[c.ID] = c
	}
	routeByVehicle := make(map[string]model.RoutePlan, len(routes))
	for _, r := range routes {
		routeByVehicle[r.VehicleID] = r
	}

	res := PlanResult{
		TS:           now,
		Commands:     []ChargingCommand{},
		Alerts:       []string{},
		Explanations: make(map[string]Explanation, len(vehicles)),
	}

	// Eligibility filter. Checks are mutually exclusive and ordered;
	// the first failing one names the reason.
	var eligible []candidate
	for _, v := range vehicles {
		if v.State != model.StateAvailable {
			res.Explanations[v.ID] = ignored(v, fmt.Sprintf("state=%s", v.State))
			continue
		}
		if v.ChargerID == "" {
			res.Explanations[v.ID] = ignored(v, "not plugged into a charger")
			continue
		}
		ch, ok := chargerByID[v.ChargerID]
		if !ok {
			res.Explanations[v.ID] = ignored(v, fmt.Sprintf("charger %s does not exist", v.ChargerID))
			continue
		}
		if !ch.Enabled {
			res.Explanations[v.ID] = ignored(v, fmt.Sprintf("charger %s disabled", ch.ID))
			continue
		}
		rt, ok := routeByVehicle[v.ID]
		if !ok {
			res.Explanations[v.ID] = ignored(v, "no route assigned")
			continue
		}
		eligible = append(eligible, candidate{vehicle: v, charger: ch, route: rt, urgency: Urgency(v, rt, now)})
	}

	// Stable sort keeps input order on urgency ties so identical inputs
	// always produce identical plans.
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].urgency > eligible[j].urgency
	})

	remainingKW := site.SiteMaxKW

	for i, c := range eligible {
		v, ch, rt := c.vehicle, c.charger, c.route
		deficit := max(0, rt.RequiredSoCMin-v.SoC)
		minutesToStart := rt.StartTime.Sub(now).Minutes()

		priceNow, priceNowOK := PriceAt(prices, now)
		bestPrice, bestPriceOK := MinPriceUntil(prices, now, rt.StartTime)
		deferred := ShouldDelay(priceNow, priceNowOK, bestPrice, bestPriceOK, minutesToStart, deficit, p.delay)

		expl := Explanation{
			VehicleID:       v.ID,
			ChargerID:       ch.ID,
			SoC:             v.SoC,
			RequiredSoCMin:  rt.RequiredSoCMin,
			DeficitSoC:      deficit,
			BatteryKWh:      v.BatteryKWh,
			MinutesToStart:  round1(minutesToStart),
			SiteMaxKW:       site.SiteMaxKW,
			RemainingSiteKW: round2(remainingKW),
			ChargerMaxKW:    ch.MaxKW,
			RouteStart:      rt.StartTime,
			RouteEnd:        rt.EndTime,
			Deferred:        deferred,
		}
		if priceNowOK {
			expl.PriceNow = ptr(priceNow)
		}
		if bestPriceOK {
			expl.BestPriceUntilRoute = ptr(bestPrice)
		}

		if deficit <= 0 {
			expl.Status = StatusOK
			expl.Reason = "already has enough SoC for the route"
			res.Explanations[v.ID] = expl
			continue
		}

		if minutesToStart <= 0 {
			expl.Status = StatusError
			expl.Reason = "route should already have started"
			res.Alerts = append(res.Alerts, fmt.Sprintf("Vehicle %s: route should already have started.", v.ID))
			res.Explanations[v.ID] = expl
			continue
		}

		needKWh := deficit * v.BatteryKWh
		hours := minutesToStart / 60.0
		avgKWNeeded := needKWh / math.Max(hours, 1e-6)

		// Power required to make the deadline, bounded by the charger and
		// whatever remains of the site budget.
		requestedKW := clamp(min(avgKWNeeded, ch.MaxKW, remainingKW), 0, ch.MaxKW)

		// Cost-driven deferral overrides deadline sizing; ShouldDelay has
		// already excluded unsafe cases.
		if deferred {
			requestedKW = 0
		}

		finalKW := BatteryFriendlyKW(v, ch, requestedKW)

		expl.Sizing = &SizingDetail{
			NeedKWh:     round2(needKWh),
			AvgKWNeeded: round2(avgKWNeeded),
			RequestedKW: round2(requestedKW),
			FinalKW:     round2(finalKW),
		}
		expl.Reason = sizedReason

		if finalKW <= powerEpsilon {
			expl.Status = StatusNotPlanned
			res.Explanations[v.ID] = expl
			continue
		}

		expl.Status = StatusPlanned
		res.Explanations[v.ID] = expl
		remainingKW -= finalKW

		res.Commands = append(res.Commands, ChargingCommand{
			VehicleID: v.ID,
			ChargerID: ch.ID,
			SetKW:     finalKW,
			Reason:    commandReason,
		})

		if v.SoC < rt.RequiredSoCMin && minutesToStart < 60 {
			res.Alerts = append(res.Alerts, fmt.Sprintf("Vehicle %s critical: route in <60min, charging at %.1f kW.", v.ID, finalKW))
		}

		if remainingKW <= powerEpsilon {
			// Budget exhausted. The rest of the priority list is never
			// sized; record why so every vehicle keeps an explanation.
			for _, rest := range eligible[i+1:] {
				res.Explanations[rest.vehicle.ID] = budgetExhausted(rest, site, remainingKW, now)
			}
			break
		}
	}

	res.TotalKW = site.SiteMaxKW - remainingKW
	return res
}

func ignored(v model.Vehicle, reason string) Explanation {
	return Explanation{
		VehicleID: v.ID,
		SoC:       v.SoC,
		Status:    StatusIgnored,
		Reason:    reason,
	}
}

func budgetExhausted(c candidate, site model.SiteConstraints, remainingKW float64, now time.Time) Explanation {
	return Explanation{
		VehicleID:       c.vehicle.ID,
		ChargerID:       c.charger.ID,
		SoC:             c.vehicle.SoC,
		RequiredSoCMin:  c.route.RequiredSoCMin,
		DeficitSoC:      max(0, c.route.RequiredSoCMin-c.vehicle.SoC),
		BatteryKWh:      c.vehicle.BatteryKWh,
		MinutesToStart:  round1(c.route.StartTime.Sub(now).Minutes()),
		SiteMaxKW:       site.SiteMaxKW,
		RemainingSiteKW: round2(remainingKW),
		ChargerMaxKW:    c.charger.MaxKW,
		RouteStart:      c.route.StartTime,
		RouteEnd:        c.route.EndTime,
		Status:          StatusNotPlanned,
		Reason:          "site budget exhausted before evaluation",
	}
}

func ptr(f float64) *float64 { return &f }

func round1(x float64) float64 { return math.Round(x*10) / 10 }

func round2(x float64) float64 { return math.Round(x*100) / 100 }
