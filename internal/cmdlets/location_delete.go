package cmdlets

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	locationDeleteCmd = &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a named location",
		Args:  cobra.ExactArgs(1),
		Run:   locationDeleteCmdRun,
	}
)

func init() {
	locationCmd.AddCommand(locationDeleteCmd)
}

func locationDeleteCmdRun(c *cobra.Command, args []string) {
	initLogger("location")

	if err := locationStore(loadConfig()).Delete(args[0]); err != nil {
		appLogger.Error("Could not delete location", "name", args[0], "error", err)
		os.Exit(1)
	}
	appLogger.Info("Deleted location", "name", args[0])
}
