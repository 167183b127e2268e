package cmdlets

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	locationListCmd = &cobra.Command{
		Use:   "list",
		Short: "List saved locations",
		Run:   locationListCmdRun,
	}
)

func init() {
	locationCmd.AddCommand(locationListCmd)
}

func locationListCmdRun(c *cobra.Command, args []string) {
	initLogger("location")

	locs, err := locationStore(loadConfig()).List()
	if err != nil {
		appLogger.Error("Could not list locations", "error", err)
		os.Exit(1)
	}

	if len(locs) == 0 {
		fmt.Println("No saved locations")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLATITUDE\tLONGITUDE\tALTITUDE")
	for _, loc := range locs {
		fmt.Fprintf(w, "%s\t%.10f\t%.10f\t%.2f\n", loc.Name, loc.Latitude, loc.Longitude, loc.Altitude)
	}
	w.Flush()
}
