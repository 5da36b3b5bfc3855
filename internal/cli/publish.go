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

var publishDryRun bool

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Snapshot the registry and publish the registry package if it changed",
	Long: `Fetch every known package's dist-tags, compare the resulting snapshot's
content hash against the last published registry package, and take exactly one
action: promote a previously uploaded but unpromoted version, publish a new
patch version, or run a consistency check. Every publish is validated by
installing the artifact back and comparing it against the generated bundle
before it is tagged latest.`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().BoolVar(&publishDryRun, "dry-run", false, "Evaluate and generate, but upload and tag nothing")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
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
	}, publishDryRun)

	result, err := engine.Run(cmd.Context())
	if err != nil {
		return err
	}

	switch result.Action {
	case publish.ActionSkip:
		fmt.Fprintln(cmd.OutOrStdout(), "Registry package was published recently; nothing to do.")
	case publish.ActionPromote:
		fmt.Fprintf(cmd.OutOrStdout(), "Promoted existing version %s to latest.\n", result.Version)
	case publish.ActionPublish:
		fmt.Fprintf(cmd.OutOrStdout(), "Published version %s (hash %s).\n", result.Version, result.Hash)
	case publish.ActionNone:
		fmt.Fprintln(cmd.OutOrStdout(), "Content unchanged; consistency check passed.")
	}
	return nil
}
