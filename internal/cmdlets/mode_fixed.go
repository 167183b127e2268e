package cmdlets

import (
	"context"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rtkfield/basestation/pkg/coords"
)

var (
	modeFixedCmd = &cobra.Command{
		Use:   "fixed <location | lat lon alt>",
		Short: "Switch to fixed mode at a saved location or literal coordinates",
		Long:  modeFixedCmdLongDocs,
		Args:  cobra.RangeArgs(1, 3),
		Run:   modeFixedCmdRun,
	}

	modeFixedCmdLongDocs = `fixed switches the correction service to broadcast from a known position.  Give either the name of a saved location, or a literal latitude, longitude, and altitude.  The service is restarted to pick up the change.`
)

func init() {
	modeCmd.AddCommand(modeFixedCmd)
}

func modeFixedCmdRun(c *cobra.Command, args []string) {
	initLogger("mode")

	coord, err := modeCoordinator(loadConfig())
	if err != nil {
		appLogger.Error("Error during coordinator initialization", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	switch len(args) {
	case 1:
		err = coord.SwitchToFixedLocation(ctx, args[0])
	case 3:
		pos := coords.Coordinates{}
		if pos.Latitude, err = strconv.ParseFloat(args[0], 64); err != nil {
			appLogger.Error("Latitude must be a number", "value", args[0])
			os.Exit(1)
		}
		if pos.Longitude, err = strconv.ParseFloat(args[1], 64); err != nil {
			appLogger.Error("Longitude must be a number", "value", args[1])
			os.Exit(1)
		}
		if pos.Altitude, err = strconv.ParseFloat(args[2], 64); err != nil {
			appLogger.Error("Altitude must be a number", "value", args[2])
			os.Exit(1)
		}
		err = coord.SwitchToFixedCoordinates(ctx, pos)
	default:
		appLogger.Error("Give a location name or three coordinates")
		os.Exit(1)
	}

	if err != nil {
		appLogger.Error("Could not switch to fixed mode", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Station is in fixed mode", "coordinates", coord.State().Coordinates)
}
