// Package metrics defines the observability contract of the service.
// Concrete sinks (Prometheus, InfluxDB) live in infra/metrics.
package metrics

import "time"

// PlanEvent summarises one planning pass.
type PlanEvent struct {
	TS        time.Time
	SiteMaxKW float64
	TotalKW   float64
	Vehicles  int
	Commands  int
	Alerts    int
	// PriceSource names where the price curve came from: "request",
	// "day-curve", "current-price" or "default".
	PriceSource string
}

// PriceFetchEvent records one upstream price resolution attempt.
type PriceFetchEvent struct {
	Source   string
	OK       bool
	Duration time.Duration
}

// Sink receives planning and pricing events.
type Sink interface {
	RecordPlan(PlanEvent) error
	RecordPriceFetch(PriceFetchEvent) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordPlan(PlanEvent) error             { return nil }
func (NopSink) RecordPriceFetch(PriceFetchEvent) error { return nil }
