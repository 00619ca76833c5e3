package metrics

import (
	"errors"

	coremetrics "github.com/fleetai/fleetcharge/core/metrics"
)

// MultiSink fans events out to several sinks, collecting all errors.
type MultiSink struct {
	sinks []coremetrics.Sink
}

// NewMultiSink combines the given sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordPlan(ev coremetrics.PlanEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordPlan(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordPriceFetch(ev coremetrics.PriceFetchEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordPriceFetch(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
