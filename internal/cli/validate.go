package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/typings-labs/typepub/internal/publish"
	"github.com/typings-labs/typepub/internal/registry"
	"github.com/typings-labs/typepub/internal/snapshot"
	"github.com/typings-labs/typepub/internal/typings"
	"github.com/typings-labs/typepub/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the published registry package against freshly generated output",
	Long: `Build a fresh registry snapshot, regenerate the registry bundle at the
currently published version, install whatever is tagged latest, and compare
the two trees. Publishes and tags nothing; use it to catch drift introduced
out-of-band.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	source, err := typings.Load(settings.DataDir)
	if err != nil {
		return fmt.Errorf("loading typings data: %w", err)
	}

	fetcher := registry.NewHTTPFetcher(settings.RegistryURL, logger)
	client, err := registry.NewNPMClient(settings.RegistryURL, logger)
	if err != nil {
		return err
	}

	engine := publish.NewEngine(settings, publish.Deps{
		Fetcher: fetcher,
		Client:  client,
		Builder: snapshot.NewBuilder(fetcher, settings.FanOut, logger),
		Checker: validate.NewChecker(settings, client, logger),
		Source:  source,
		Logger:  logger,
	}, false)

	result, err := engine.Verify(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Validation passed (hash %s).\n", result.Hash)
	return nil
}
