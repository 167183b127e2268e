package cmdlets

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var (
	modeSurveyCmd = &cobra.Command{
		Use:   "survey",
		Short: "Switch to survey-in mode",
		Long:  modeSurveyCmdLongDocs,
		Run:   modeSurveyCmdRun,
	}

	modeSurveyCmdLongDocs = `survey switches the correction service back to determining its own position.  The service is restarted and will begin a new survey-in.`
)

func init() {
	modeCmd.AddCommand(modeSurveyCmd)
}

func modeSurveyCmdRun(c *cobra.Command, args []string) {
	initLogger("mode")

	coord, err := modeCoordinator(loadConfig())
	if err != nil {
		appLogger.Error("Error during coordinator initialization", "error", err)
		os.Exit(1)
	}

	if err := coord.SwitchToSurveyIn(context.Background()); err != nil {
		appLogger.Error("Could not switch to survey-in mode", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Station is in survey-in mode")
}
