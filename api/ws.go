package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fleetai/fleetcharge/infra/logger"
	"github.com/fleetai/fleetcharge/internal/eventbus"
)

// alertPayload is the message broadcast to WebSocket subscribers when a
// plan produced alerts.
type alertPayload struct {
	Type      string    `json:"type"`
	Items     []string  `json:"items"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertHub upgrades connections and forwards alert events from the bus.
// The planner produces the same alerts whether or not anyone is
// listening.
type AlertHub struct {
	Bus      *eventbus.Bus
	Log      logger.Logger
	upgrader websocket.Upgrader
}

// NewAlertHub creates a hub on the given bus.
func NewAlertHub(bus *eventbus.Bus, log logger.Logger) *AlertHub {
	return &AlertHub{
		Bus: bus,
		Log: log,
		upgrader: websocket.Upgrader{
			// The dashboard is served from another origin in dev.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and streams alert events until the
// client goes away.
func (h *AlertHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warnf("websocket upgrade: %v", err)
		return
	}
	sub := h.Bus.Subscribe()
	defer func() {
		h.Bus.Unsubscribe(sub)
		_ = conn.Close()
	}()

	done := make(chan struct{})
	go func() {
		// Drain client frames to detect disconnects.
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			payload := alertPayload{Type: "alerts", Items: ev.Items, Timestamp: ev.TS}
			if err := conn.WriteJSON(payload); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
