// Package infra groups the adapters behind the core interfaces: the
// zerolog logger, the Prometheus and InfluxDB metrics sinks, the MQTT
// setpoint publisher and the REN/OMIE price chain.
package infra
