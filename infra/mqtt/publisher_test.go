package mqtt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetai/fleetcharge/core/planner"
)

func TestSetpointTopic(t *testing.T) {
	assert.Equal(t, "fleet/chargers/c1/setpoint", setpointTopic("fleet", "c1"))
	assert.Equal(t, "site-a/chargers/fast-2/setpoint", setpointTopic("site-a", "fast-2"))
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	assert.Equal(t, "fleetcharge", cfg.ClientID)
	assert.Equal(t, "fleet", cfg.TopicPrefix)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Enabled: true}
	assert.Error(t, cfg.Validate())

	cfg.Broker = "tcp://localhost:1883"
	assert.NoError(t, cfg.Validate())

	cfg.UseTLS = true
	assert.Error(t, cfg.Validate())

	// Disabled publisher needs no broker.
	assert.NoError(t, Config{}.Validate())
}

func TestMockPublisher(t *testing.T) {
	m := NewMockPublisher()
	cmd := planner.ChargingCommand{VehicleID: "v1", ChargerID: "c1", SetKW: 22}

	id, err := m.PublishSetpoint(cmd, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "cmd-c1", id)
	assert.Equal(t, 22.0, m.Setpoints["c1"])

	m.FailIDs["c1"] = true
	_, err = m.PublishSetpoint(cmd, time.Now())
	assert.Error(t, err)
}
