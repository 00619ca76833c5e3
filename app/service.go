// Package app wires the configuration into a running service.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fleetai/fleetcharge/api"
	"github.com/fleetai/fleetcharge/config"
	coremetrics "github.com/fleetai/fleetcharge/core/metrics"
	"github.com/fleetai/fleetcharge/core/planner"
	"github.com/fleetai/fleetcharge/infra/logger"
	"github.com/fleetai/fleetcharge/infra/metrics"
	"github.com/fleetai/fleetcharge/infra/mqtt"
	"github.com/fleetai/fleetcharge/infra/pricing"
	"github.com/fleetai/fleetcharge/internal/eventbus"
)

// Service orchestrates the HTTP API, the price chain and the optional
// charger publisher.
type Service struct {
	cfg       *config.Config
	srv       *http.Server
	bus       *eventbus.Bus
	publisher mqtt.SetpointPublisher
	log       logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()

	var publisher mqtt.SetpointPublisher
	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		publisher = pub
	}

	provider := pricing.NewChain(cfg.Pricing)
	eng := planner.New(planner.DelayPolicy{
		MarginRatio:    cfg.Planner.DelayMarginRatio,
		UrgencyMinutes: cfg.Planner.UrgencyMinutes,
	})

	planHandler := &api.PlanHandler{
		Planner:      eng,
		Prices:       provider,
		Bus:          bus,
		Publisher:    publisher,
		Sink:         sink,
		Log:          logger.New("plan-handler"),
		DefaultPrice: cfg.Planner.DefaultPriceEURKWh,
	}
	priceHandler := &api.PriceHandler{Prices: provider, Log: logger.New("price-handler")}
	hub := api.NewAlertHub(bus, logger.New("alert-hub"))

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Routes(planHandler, priceHandler, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Service{cfg: cfg, srv: srv, bus: bus, publisher: publisher, log: logg}, nil
}

// Run serves the API until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.HTTP.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.publisher != nil {
		s.publisher.Close()
	}
	return nil
}
