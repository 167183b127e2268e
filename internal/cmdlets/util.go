package cmdlets

import (
	"time"

	"github.com/rtkfield/basestation/pkg/config"
	"github.com/rtkfield/basestation/pkg/locations"
	"github.com/rtkfield/basestation/pkg/stationcfg"
	"github.com/rtkfield/basestation/pkg/sysconf"
)

// loadConfig pulls in the dashboard config, falling back to the stock
// deployment defaults when none has been written yet.
func loadConfig() *config.Config {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		appLogger.Warn("Could not load dashboard config, using defaults", "path", config.DefaultPath(), "error", err)
		return config.Default()
	}
	return cfg
}

func stationStore(cfg *config.Config) *stationcfg.Store {
	return stationcfg.NewStore(
		stationcfg.WithLogger(appLogger),
		stationcfg.WithPath(cfg.StationConfigPath),
	)
}

func locationStore(cfg *config.Config) *locations.Store {
	return locations.NewStore(
		locations.WithLogger(appLogger),
		locations.WithPath(cfg.LocationsPath),
	)
}

func serviceSupervisor(cfg *config.Config) *sysconf.Systemd {
	return sysconf.New(
		sysconf.WithLogger(appLogger),
		sysconf.WithUnit(cfg.Service.Unit),
		sysconf.WithUserMode(cfg.Service.UserMode),
		sysconf.WithRestartTimeout(time.Duration(cfg.Service.RestartTimeoutSeconds)*time.Second),
	)
}
