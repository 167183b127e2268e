// Package config holds the dashboard's own configuration.  This is
// the file that describes where everything else lives; the station
// config the coordinator manages is a separate file owned by
// pkg/stationcfg.
package config

// Config is the top level structure that the dashboard loads on
// startup.
type Config struct {
	// Bind is the address the webserver listens on.
	Bind string `json:"bind"`

	// AnnounceMDNS advertises the dashboard on the local network.
	AnnounceMDNS bool `json:"announce_mdns"`

	// StationConfigPath points at the correction service's config
	// file, and LocationsPath at the named-location catalog.
	StationConfigPath string `json:"station_config_path"`
	LocationsPath     string `json:"locations_path"`

	Service   ServiceConfig   `json:"service"`
	Receiver  ReceiverConfig  `json:"receiver"`
	Telemetry TelemetryConfig `json:"telemetry"`
	MQTT      MQTTConfig      `json:"mqtt"`
}

// ServiceConfig names the systemd unit that broadcasts corrections.
type ServiceConfig struct {
	Unit                  string `json:"unit"`
	UserMode              bool   `json:"user_mode"`
	RestartTimeoutSeconds int    `json:"restart_timeout_seconds"`
}

// ReceiverConfig selects where telemetry comes from.  Kind is one of
// "monitor" (the correction service's status socket), "nmea-tcp", or
// "nmea-serial".
type ReceiverConfig struct {
	Kind       string `json:"kind"`
	Address    string `json:"address,omitempty"`
	SerialPort string `json:"serial_port,omitempty"`
	BaudRate   int    `json:"baud_rate,omitempty"`
}

// TelemetryConfig tunes the aggregator.
type TelemetryConfig struct {
	IntervalSeconds int `json:"interval_seconds"`
	FailureLimit    int `json:"failure_limit"`
}

// MQTTConfig enables mirroring telemetry and mode state into a
// broker on the farm network.  With EmbeddedBroker set the dashboard
// runs its own broker on BrokerBind instead of pointing at an
// external one.
type MQTTConfig struct {
	Enabled             bool   `json:"enabled"`
	Broker              string `json:"broker,omitempty"`
	EmbeddedBroker      bool   `json:"embedded_broker,omitempty"`
	BrokerBind          string `json:"broker_bind,omitempty"`
	PushIntervalSeconds int    `json:"push_interval_seconds,omitempty"`
}

// Receiver kinds.
const (
	ReceiverMonitor    = "monitor"
	ReceiverNMEATCP    = "nmea-tcp"
	ReceiverNMEASerial = "nmea-serial"
)
