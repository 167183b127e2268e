package cmdlets

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rtkfield/basestation/pkg/config"
)

var (
	configureCmd = &cobra.Command{
		Use:   "configure",
		Short: "Interactively configure the dashboard",
		Long:  configureCmdLongDocs,
		Run:   configureCmdRun,
	}

	configureCmdLongDocs = `configure walks through the settings the dashboard needs on a new station: where to serve, which service to manage, and where telemetry comes from.  Existing values are offered as defaults.`
)

func init() {
	rootCmd.AddCommand(configureCmd)
}

func configureCmdRun(c *cobra.Command, args []string) {
	initLogger("configure")

	path := config.DefaultPath()
	cfg, err := config.Load(path)
	if err != nil {
		cfg = config.Default()
	}

	if err := cfg.WizardSurvey(); err != nil {
		appLogger.Error("Error running configuration wizard", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		appLogger.Error("Could not create config directory", "error", err)
		os.Exit(1)
	}
	if err := cfg.Save(path); err != nil {
		appLogger.Error("Could not write config", "path", path, "error", err)
		os.Exit(1)
	}
	fmt.Printf("Configuration written to %s\n", path)
}
