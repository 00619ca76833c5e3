package mqtt

import (
	"fmt"
	"sync"
	"time"

	"github.com/fleetai/fleetcharge/core/planner"
)

// MockPublisher records setpoints in memory for tests.
type MockPublisher struct {
	mu        sync.Mutex
	Setpoints map[string]float64 // charger id -> last set kW
	FailIDs   map[string]bool
}

// NewMockPublisher creates an empty MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Setpoints: make(map[string]float64),
		FailIDs:   make(map[string]bool),
	}
}

// PublishSetpoint records the command or fails when configured to.
func (m *MockPublisher) PublishSetpoint(cmd planner.ChargingCommand, ts time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[cmd.ChargerID] {
		return "", fmt.Errorf("publish failed")
	}
	m.Setpoints[cmd.ChargerID] = cmd.SetKW
	return fmt.Sprintf("cmd-%s", cmd.ChargerID), nil
}

// Close is a no-op.
func (m *MockPublisher) Close() {}
