// Package cmdlets contains the main entrypoints of the various
// functions that the basestation tool can perform.
package cmdlets

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "basestation",
		Short: "Entrypoint for all base station commands",
		Long:  rootCmdLongDocs,
	}
	rootCmdLongDocs = `The basestation tool manages a GNSS RTK base station: it serves the local dashboard, switches the correction service between fixed and survey-in modes, and maintains the catalog of named locations.`

	appLogger = hclog.NewNullLogger()
)

// Entrypoint is the entrypoint into all cmdlets, it will dispatch to
// the right one.
func Entrypoint() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func initLogger(name string) {
	ll := os.Getenv("LOG_LEVEL")
	if ll == "" {
		ll = "INFO"
	}
	appLogger = hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: hclog.LevelFromString(ll),
	})
	appLogger.Info("Log level", "level", appLogger.GetLevel())
}
