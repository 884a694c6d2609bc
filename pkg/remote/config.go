package remote

import (
	"encoding/json"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// Environment variables overriding flag defaults.
const (
	EnvBrokerURL = "ROVER_MQTT_URL"
	EnvRoverID   = "ROVER_ID"
)

// Config defines the remote access configurations.
type Config struct {
	// BrokerURL is the MQTT broker, e.g. mqtt://localhost:1883/rovers/.
	// The path is used as topic prefix. Empty disables MQTT.
	BrokerURL string
	// RoverID defaults to the machine ID.
	RoverID string
	// Listen is the HTTP address serving the websocket endpoint.
	// Empty disables it.
	Listen         string
	InputTTL       time.Duration
	TelemetryEvery uint64
}

var defaultConfig = Config{
	InputTTL:       DefaultInputTTL,
	TelemetryEvery: DefaultTelemetryEvery,
}

// SetupFlags sets command line flags. Defaults are taken from the
// environment first.
func SetupFlags() {
	defaultConfig.ApplyEnv(os.LookupEnv)
	flag.StringVar(&defaultConfig.BrokerURL, "mqtt-url", defaultConfig.BrokerURL, "MQTT broker URL, path is the topic prefix (env "+EnvBrokerURL+").")
	flag.StringVar(&defaultConfig.RoverID, "rover-id", defaultConfig.RoverID, "Rover ID, machine ID if empty (env "+EnvRoverID+").")
	flag.StringVar(&defaultConfig.Listen, "remote-listen", defaultConfig.Listen, "HTTP address serving the websocket endpoint, e.g. :8080.")
	flag.DurationVar(&defaultConfig.InputTTL, "remote-input-ttl", defaultConfig.InputTTL, "Remote input is released when not refreshed within this duration.")
	flag.Uint64Var(&defaultConfig.TelemetryEvery, "telemetry-every", defaultConfig.TelemetryEvery, "Publish telemetry every N frames.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvBrokerURL); ok {
		c.BrokerURL = v
	}
	if v, ok := lookup(EnvRoverID); ok {
		c.RoverID = v
	}
}

// ID returns RoverID, or the machine ID when empty.
func (c *Config) ID() string {
	if c.RoverID != "" {
		return c.RoverID
	}
	return MachineID()
}

// Meta creates the metadata announced for the rover.
func (c *Config) Meta(bodies []string) RoverMeta {
	return RoverMeta{
		ID:               c.ID(),
		Bodies:           bodies,
		InputTTLMillis:   c.InputTTL.Milliseconds(),
		TelemetryEvery:   c.TelemetryEvery,
		StartedAtSeconds: time.Now().Unix(),
	}
}

// RoverMeta describes a rover. It is published as JSON.
type RoverMeta struct {
	ID               string   `json:"id"`
	Bodies           []string `json:"bodies,omitempty"`
	InputTTLMillis   int64    `json:"input_ttl_ms,omitempty"`
	TelemetryEvery   uint64   `json:"telemetry_every,omitempty"`
	StartedAtSeconds int64    `json:"started_at,omitempty"`
}

// Encode encodes the meta as JSON.
func (m RoverMeta) Encode() []byte {
	data, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return data
}

// DecodeRoverMeta decodes JSON meta.
func DecodeRoverMeta(data []byte) (meta RoverMeta, err error) {
	err = json.Unmarshal(data, &meta)
	return
}

// InputTTL is the input TTL announced by the rover.
func (m RoverMeta) InputTTL() time.Duration {
	if m.InputTTLMillis <= 0 {
		return DefaultInputTTL
	}
	return time.Duration(m.InputTTLMillis) * time.Millisecond
}

// MachineID retrieves the unique ID identifying the machine. It is
// shortened to be usable in MQTT topics.
func MachineID() string {
	id, err := machineid.ID()
	if err != nil {
		glog.Fatalf("machine ID: %v", err)
	}
	id = strings.ToLower(strings.TrimSpace(id))
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
