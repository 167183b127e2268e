package cmdlets

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the station's configured mode and service state",
		Run:   statusCmdRun,
	}
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusCmdRun(c *cobra.Command, args []string) {
	initLogger("status")

	cfg := loadConfig()
	sup := serviceSupervisor(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	fmt.Printf("Service: %s (%s)\n", cfg.Service.Unit, sup.Status(ctx))

	station, err := stationStore(cfg).Read()
	if err != nil {
		fmt.Printf("Station config: unreadable (%s)\n", err)
		return
	}
	fmt.Printf("Mode: %s\n", station.Mode())
	if station.UseFixedMode {
		fmt.Printf("Coordinates: %s\n", station.Coordinates)
	}
}
