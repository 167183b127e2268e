package cmdlets

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rtkfield/basestation/pkg/locations"
)

var (
	locationSaveCmd = &cobra.Command{
		Use:   "save <name> <lat> <lon> <alt>",
		Short: "Save or update a named location",
		Args:  cobra.ExactArgs(4),
		Run:   locationSaveCmdRun,
	}
)

func init() {
	locationCmd.AddCommand(locationSaveCmd)
}

func locationSaveCmdRun(c *cobra.Command, args []string) {
	initLogger("location")

	loc := locations.Location{Name: args[0]}
	var err error
	if loc.Latitude, err = strconv.ParseFloat(args[1], 64); err != nil {
		appLogger.Error("Latitude must be a number", "value", args[1])
		os.Exit(1)
	}
	if loc.Longitude, err = strconv.ParseFloat(args[2], 64); err != nil {
		appLogger.Error("Longitude must be a number", "value", args[2])
		os.Exit(1)
	}
	if loc.Altitude, err = strconv.ParseFloat(args[3], 64); err != nil {
		appLogger.Error("Altitude must be a number", "value", args[3])
		os.Exit(1)
	}

	if err := loc.Validate(); err != nil {
		appLogger.Error("Invalid location", "error", err)
		os.Exit(1)
	}

	if err := locationStore(loadConfig()).Save(loc); err != nil {
		appLogger.Error("Could not save location", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Saved location", "name", loc.Name, "position", loc.Coordinates())
}
