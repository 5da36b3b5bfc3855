package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/typings-labs/typepub/internal/branding"
	"github.com/typings-labs/typepub/internal/config"
	"github.com/typings-labs/typepub/internal/logging"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	flagConfig   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` maintains the registry package listing every package published
under a scoped namespace. It snapshots live dist-tags, decides whether a new
registry version must be published, validates installed artifacts against
locally generated output, and generates per-package publishable bundles from
the typings data model.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file (default ~/"+branding.HomeDir()+"/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// loadSettings reads Settings from the --config path or the default location.
func loadSettings() (config.Settings, error) {
	if flagConfig != "" {
		return config.LoadFile(flagConfig)
	}
	return config.Load()
}

// newLogger builds the run logger from the --log-level flag.
func newLogger() (*logging.Logger, error) {
	logger, err := logging.New(logging.Config{Level: flagLogLevel})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}
