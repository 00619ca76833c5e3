package mqtt

import "fmt"

// Config defines the connection parameters of the charger setpoint
// publisher. The publisher is optional: when Enabled is false the plan
// endpoint only returns commands without pushing them to the chargers.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	UseTLS      bool   `json:"use_tls"`
	CABundle    string `json:"ca_bundle"`
	ClientCert  string `json:"client_cert"`
	ClientKey   string `json:"client_key"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "fleetcharge"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "fleet"
	}
	if c.QoS > 2 {
		c.QoS = 1
	}
}

// Validate checks mandatory fields when the publisher is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	if c.UseTLS && c.CABundle == "" {
		return fmt.Errorf("mqtt ca_bundle is required with tls")
	}
	return nil
}
