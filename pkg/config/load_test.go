package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPathEnvOverride(t *testing.T) {
	t.Setenv("BASESTATION_DASHBOARD_CONFIG", "/tmp/other.json")
	if got := DefaultPath(); got != "/tmp/other.json" {
		t.Fatalf("DefaultPath() = %q, want the override", got)
	}

	t.Setenv("BASESTATION_DASHBOARD_CONFIG", "")
	if got := DefaultPath(); got != defaultPath {
		t.Fatalf("DefaultPath() = %q, want %q", got, defaultPath)
	}
}

func TestDefaultMatchesStockDeployment(t *testing.T) {
	cfg := Default()

	if cfg.Bind != ":8080" {
		t.Fatalf("Bind = %q", cfg.Bind)
	}
	if cfg.StationConfigPath != "/mnt/service_config/basestation.json" {
		t.Fatalf("StationConfigPath = %q", cfg.StationConfigPath)
	}
	if cfg.LocationsPath != "/mnt/service_config/known-locations.json" {
		t.Fatalf("LocationsPath = %q", cfg.LocationsPath)
	}
	if cfg.Service.Unit != "farmng-gps.service" || !cfg.Service.UserMode {
		t.Fatalf("Service = %+v", cfg.Service)
	}
	if cfg.Receiver.Kind != ReceiverMonitor || cfg.Receiver.Address != "localhost:50010" {
		t.Fatalf("Receiver = %+v", cfg.Receiver)
	}
	if cfg.Telemetry.IntervalSeconds != 1 {
		t.Fatalf("Telemetry = %+v", cfg.Telemetry)
	}
}

func TestLoadBackfillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.json")
	partial := `{"bind": ":9090", "service": {"unit": "gps.service"}}`
	if err := os.WriteFile(path, []byte(partial), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Bind != ":9090" {
		t.Fatalf("Bind = %q, want the file's value", cfg.Bind)
	}
	if cfg.Service.Unit != "gps.service" {
		t.Fatalf("Service.Unit = %q, want the file's value", cfg.Service.Unit)
	}
	if cfg.StationConfigPath != "/mnt/service_config/basestation.json" {
		t.Fatalf("StationConfigPath = %q, want the default", cfg.StationConfigPath)
	}
	if cfg.Telemetry.FailureLimit != 10 {
		t.Fatalf("Telemetry.FailureLimit = %d, want the default", cfg.Telemetry.FailureLimit)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("Load() succeeded on a missing file")
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.json")

	want := Default()
	want.Bind = ":8081"
	want.AnnounceMDNS = true
	want.Receiver.Kind = ReceiverNMEASerial
	want.Receiver.SerialPort = "/dev/ttyACM0"
	want.Receiver.BaudRate = 115200
	want.MQTT.Enabled = true
	want.MQTT.Broker = "tcp://localhost:1883"

	if err := want.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if *got != *want {
		t.Fatalf("Load() = %+v, want %+v", got, want)
	}
}
