package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/fleetai/fleetcharge/core/planner"
	"github.com/fleetai/fleetcharge/infra/logger"
)

// SetpointPublisher pushes charging commands to the chargers.
type SetpointPublisher interface {
	// PublishSetpoint sends one command and returns its command id.
	PublishSetpoint(cmd planner.ChargingCommand, ts time.Time) (string, error)
	Close()
}

// setpointMessage is the JSON payload delivered to a charger.
type setpointMessage struct {
	CommandID string    `json:"command_id"`
	VehicleID string    `json:"vehicle_id"`
	ChargerID string    `json:"charger_id"`
	SetKW     float64   `json:"set_kw"`
	Reason    string    `json:"reason"`
	TS        time.Time `json:"ts"`
}

// PahoPublisher implements SetpointPublisher over Eclipse Paho.
type PahoPublisher struct {
	cli    paho.Client
	prefix string
	qos    byte
	log    logger.Logger
}

// NewPahoPublisher connects to the broker and returns a publisher.
func NewPahoPublisher(cfg Config) (*PahoPublisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := newTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	cli := paho.NewClient(opts)
	tok := cli.Connect()
	if !tok.WaitTimeout(10*time.Second) || tok.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %v", tok.Error())
	}
	return &PahoPublisher{
		cli:    cli,
		prefix: cfg.TopicPrefix,
		qos:    cfg.QoS,
		log:    logger.New("mqtt-publisher"),
	}, nil
}

func newTLSConfig(cfg Config) (*tls.Config, error) {
	pool := x509.NewCertPool()
	ca, err := os.ReadFile(cfg.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca bundle: %w", err)
	}
	if !pool.AppendCertsFromPEM(ca) {
		return nil, fmt.Errorf("invalid ca bundle %s", cfg.CABundle)
	}
	out := &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		out.Certificates = []tls.Certificate{cert}
	}
	return out, nil
}

// setpointTopic returns the per-charger topic for a command.
func setpointTopic(prefix, chargerID string) string {
	return fmt.Sprintf("%s/chargers/%s/setpoint", prefix, chargerID)
}

// PublishSetpoint sends one charging command to its charger topic.
func (p *PahoPublisher) PublishSetpoint(cmd planner.ChargingCommand, ts time.Time) (string, error) {
	msg := setpointMessage{
		CommandID: uuid.NewString(),
		VehicleID: cmd.VehicleID,
		ChargerID: cmd.ChargerID,
		SetKW:     cmd.SetKW,
		Reason:    cmd.Reason,
		TS:        ts,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	tok := p.cli.Publish(setpointTopic(p.prefix, cmd.ChargerID), p.qos, false, payload)
	if !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		return "", fmt.Errorf("publish setpoint for %s: %v", cmd.ChargerID, tok.Error())
	}
	p.log.Debugf("setpoint %s: %s -> %.2f kW", msg.CommandID, cmd.ChargerID, cmd.SetKW)
	return msg.CommandID, nil
}

// Close disconnects from the broker.
func (p *PahoPublisher) Close() {
	p.cli.Disconnect(250)
}
