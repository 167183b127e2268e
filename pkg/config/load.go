package config

import (
	"encoding/json"
	"os"

	"github.com/rtkfield/basestation/pkg/fsutil"
)

const defaultPath = "/etc/basestation/dashboard.json"

// DefaultPath returns the config path, honoring the
// BASESTATION_DASHBOARD_CONFIG override.
func DefaultPath() string {
	if p := os.Getenv("BASESTATION_DASHBOARD_CONFIG"); p != "" {
		return p
	}
	return defaultPath
}

// Default returns a config matching the stock field deployment: the
// correction service runs as a user unit and exposes its status
// socket on localhost.
func Default() *Config {
	return &Config{
		Bind:              ":8080",
		StationConfigPath: "/mnt/service_config/basestation.json",
		LocationsPath:     "/mnt/service_config/known-locations.json",
		Service: ServiceConfig{
			Unit:                  "farmng-gps.service",
			UserMode:              true,
			RestartTimeoutSeconds: 10,
		},
		Receiver: ReceiverConfig{
			Kind:    ReceiverMonitor,
			Address: "localhost:50010",
		},
		Telemetry: TelemetryConfig{
			IntervalSeconds: 1,
			FailureLimit:    10,
		},
	}
}

// Load reads in a config from the path on disk.  Unset fields are
// backfilled from the defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to the path on disk.
func (c *Config) Save(path string) error {
	bytes, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, bytes, 0o644)
}
