package cmdlets

import (
	"github.com/spf13/cobra"

	"github.com/rtkfield/basestation/pkg/config"
	"github.com/rtkfield/basestation/pkg/coordinator"
)

var (
	modeCmd = &cobra.Command{
		Use:   "mode",
		Short: "Inspect and switch the station's operating mode",
	}
)

func init() {
	rootCmd.AddCommand(modeCmd)
}

// modeCoordinator wires up a coordinator for one-shot CLI
// transitions.  No telemetry or event stream is attached.
func modeCoordinator(cfg *config.Config) (*coordinator.Coordinator, error) {
	coord, err := coordinator.New(
		coordinator.WithLogger(appLogger),
		coordinator.WithConfigStore(stationStore(cfg)),
		coordinator.WithLocationStore(locationStore(cfg)),
		coordinator.WithSupervisor(serviceSupervisor(cfg)),
	)
	if err != nil {
		return nil, err
	}
	if err := coord.Reload(); err != nil {
		appLogger.Warn("Could not read station config", "error", err)
	}
	return coord, nil
}
