package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/typings-labs/typepub/internal/bundle"
	"github.com/typings-labs/typepub/internal/typings"
)

var generateCmd = &cobra.Command{
	Use:   "generate [package...]",
	Short: "Generate publishable per-package bundles from the typings data model",
	Long: `Generate each typings package's publishable bundle (package.json, README.md,
metadata file, and declaration files) into the output directory. With no
arguments, every package in the data model is generated. Nothing is uploaded.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	source, err := typings.Load(settings.DataDir)
	if err != nil {
		return fmt.Errorf("loading typings data: %w", err)
	}

	var packages []typings.Package
	if len(args) == 0 {
		packages = source.All()
	} else {
		for _, name := range args {
			pkg, ok := source.Get(name)
			if !ok {
				return fmt.Errorf("unknown package %q", name)
			}
			packages = append(packages, pkg)
		}
	}

	for _, pkg := range packages {
		dir, err := bundle.WritePackageBundle(settings, pkg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  ✓ %s → %s\n", settings.ScopedName(pkg.Name), dir)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated %d bundle(s).\n", len(packages))
	return nil
}
