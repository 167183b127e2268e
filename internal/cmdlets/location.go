package cmdlets

import (
	"github.com/spf13/cobra"
)

var (
	locationCmd = &cobra.Command{
		Use:     "location",
		Aliases: []string{"loc"},
		Short:   "Manage the catalog of named locations",
	}
)

func init() {
	rootCmd.AddCommand(locationCmd)
}
