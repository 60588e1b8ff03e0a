// Package root contains the root command for the application
package root

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grijalva10/insurance-policy-migration/internal/amsclient"
	"github.com/grijalva10/insurance-policy-migration/internal/config"
	"github.com/grijalva10/insurance-policy-migration/internal/csvsource"
	"github.com/grijalva10/insurance-policy-migration/internal/githubsync"
	"github.com/grijalva10/insurance-policy-migration/internal/normalize"
	"github.com/grijalva10/insurance-policy-migration/internal/processor"
	"github.com/grijalva10/insurance-policy-migration/internal/refdata"
	"github.com/grijalva10/insurance-policy-migration/internal/report"
)

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cfg is the loaded application configuration, available to subcommands
	// after PersistentPreRunE has run.
	Cfg *config.Config

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "policy-migration",
		Short: "Reconcile and migrate insurance policy CSV exports into the AMS.",
		Long: `policy-migration ingests heterogeneous CSV exports of insurance
transaction records, reconciles them against carrier, broker and policy-type
reference data, classifies the results and uploads new policies to the AMS.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv()

			cfg, err := config.InitializeConfig()
			if err != nil {
				return err
			}
			Cfg = cfg
			Log = config.ConfigureLoggingFromConfig(cfg)

			if logLevel != "" {
				level, err := logrus.ParseLevel(logLevel)
				if err != nil {
					return err
				}
				Log.SetLevel(level)
			}

			// Propagate the configured logger to every internal package.
			normalize.SetLogger(Log)
			refdata.SetLogger(Log)
			csvsource.SetLogger(Log)
			processor.SetLogger(Log)
			amsclient.SetLogger(Log)
			report.SetLogger(Log)
			githubsync.SetLogger(Log)

			return nil
		},
	}
)

var logLevel string

// Init initializes the root command flags
func Init() {
	Cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
}
