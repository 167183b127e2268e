package cmdlets

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	modeShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the configured operating mode",
		Run:   modeShowCmdRun,
	}
)

func init() {
	modeCmd.AddCommand(modeShowCmd)
}

func modeShowCmdRun(c *cobra.Command, args []string) {
	initLogger("mode")

	cfg, err := stationStore(loadConfig()).Read()
	if err != nil {
		appLogger.Error("Could not read station config", "error", err)
		return
	}

	fmt.Printf("Mode: %s\n", cfg.Mode())
	if cfg.UseFixedMode {
		fmt.Printf("Coordinates: %s\n", cfg.Coordinates)
	}
}
