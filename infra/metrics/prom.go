package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/fleetai/fleetcharge/core/metrics"
)

// PromSink records planning activity in Prometheus metrics.
type PromSink struct {
	plans      *prometheus.CounterVec
	alerts     prometheus.Counter
	commands   prometheus.Histogram
	totalKW    prometheus.Gauge
	priceFetch *prometheus.CounterVec
}

// NewPromSink registers the planner metrics on the default registerer.
func NewPromSink() (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	plans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "charging_plans_total",
		Help: "Total number of planning passes",
	}, []string{"price_source"})
	alerts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "charging_plan_alerts_total",
		Help: "Total number of alerts emitted by plans",
	})
	commands := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "charging_plan_commands",
		Help:    "Number of charging commands per plan",
		Buckets: prometheus.LinearBuckets(0, 5, 10),
	})
	totalKW := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "charging_plan_total_kw",
		Help: "Power committed by the most recent plan in kW",
	})
	priceFetch := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_fetch_total",
		Help: "Upstream price resolution attempts",
	}, []string{"source", "ok"})

	if err := reg.Register(plans); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			plans = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(alerts); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			alerts = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(commands); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			commands = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(totalKW); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			totalKW = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(priceFetch); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			priceFetch = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{plans: plans, alerts: alerts, commands: commands, totalKW: totalKW, priceFetch: priceFetch}, nil
}

// RecordPlan updates the plan counters and gauges.
func (s *PromSink) RecordPlan(ev coremetrics.PlanEvent) error {
	s.plans.WithLabelValues(ev.PriceSource).Inc()
	s.alerts.Add(float64(ev.Alerts))
	s.commands.Observe(float64(ev.Commands))
	s.totalKW.Set(ev.TotalKW)
	return nil
}

// RecordPriceFetch counts an upstream price resolution attempt.
func (s *PromSink) RecordPriceFetch(ev coremetrics.PriceFetchEvent) error {
	s.priceFetch.WithLabelValues(ev.Source, strconv.FormatBool(ev.OK)).Inc()
	return nil
}
