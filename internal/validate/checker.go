// Package validate proves that what is (or will be) publicly installable
// matches what was locally generated, before promotion to "latest". It
// installs the registry package into a scratch directory through the real
// registry client and compares the result against the generated bundle.
// Installer-reported errors are fatal, not advisory: a failed install aborts
// the run rather than masking a broken artifact.
package validate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"

	"github.com/typings-labs/typepub/internal/bundle"
	"github.com/typings-labs/typepub/internal/config"
	"github.com/typings-labs/typepub/internal/fsutil"
	"github.com/typings-labs/typepub/internal/logging"
	"github.com/typings-labs/typepub/internal/registry"
	"github.com/typings-labs/typepub/internal/snapshot"
)

// reportLimit caps the rendered diff report per differing file.
const reportLimit = 4096

// installerManifest is the minimal package.json written into the scratch
// directory so the registry client can install the package under test.
type installerManifest struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Private      bool              `json:"private"`
	Dependencies map[string]string `json:"dependencies"`
}

// Checker runs the validation protocol.
type Checker struct {
	settings config.Settings
	client   registry.Client
	logger   *logging.Logger

	// ScratchDir is the directory installs happen in. It is emptied before
	// every check.
	ScratchDir string
}

// NewChecker creates a Checker installing into a scratch directory under the
// configured output directory.
func NewChecker(s config.Settings, client registry.Client, logger *logging.Logger) *Checker {
	return &Checker{
		settings:   s,
		client:     client,
		logger:     logger,
		ScratchDir: filepath.Join(s.OutputDir, ".validate"),
	}
}

// Full installs the registry package at the given dist-tag and asserts its
// file tree equals the generated bundle exactly, modulo the manifest file
// (whose content embeds the hash and varies in ways irrelevant to the tree
// check). Returns a *MismatchError on divergence.
func (c *Checker) Full(ctx context.Context, generatedDir, tag string) error {
	installed, err := c.install(ctx, tag)
	if err != nil {
		return err
	}

	ignore := func(rel string) bool { return rel == bundle.ManifestFile }
	diffs, err := fsutil.CompareDirs(generatedDir, installed, ignore)
	if err != nil {
		return fmt.Errorf("comparing trees: %w", err)
	}
	if len(diffs) > 0 {
		return &MismatchError{
			Package: c.settings.ScopedRegistryPackage(),
			Diffs:   diffs,
			Report:  c.renderReport(generatedDir, installed, diffs),
		}
	}

	c.logger.Info("validation passed",
		zap.String("tag", tag), zap.String("generated", generatedDir))
	return nil
}

// Subset installs the registry package at the given dist-tag and checks it
// is a subset of the generated bundle: the file trees must match modulo the
// manifest and index files, and every key in the installed index must appear
// in the generated index unless notNeeded reports the key's package as
// retired. Used only when promoting a previously uploaded but unpromoted
// artifact. Returns *SubsetError or *MismatchError on failure.
func (c *Checker) Subset(ctx context.Context, generatedDir, tag string, notNeeded func(string) bool) error {
	installed, err := c.install(ctx, tag)
	if err != nil {
		return err
	}

	ignore := func(rel string) bool {
		return rel == bundle.ManifestFile || rel == bundle.IndexFile
	}
	diffs, err := fsutil.CompareDirs(generatedDir, installed, ignore)
	if err != nil {
		return fmt.Errorf("comparing trees: %w", err)
	}
	if len(diffs) > 0 {
		return &MismatchError{
			Package: c.settings.ScopedRegistryPackage(),
			Diffs:   diffs,
			Report:  c.renderReport(generatedDir, installed, diffs),
		}
	}

	published, err := readIndex(filepath.Join(installed, bundle.IndexFile))
	if err != nil {
		return err
	}
	generated, err := readIndex(filepath.Join(generatedDir, bundle.IndexFile))
	if err != nil {
		return err
	}

	if offending := unaccountedKeys(published, generated, notNeeded); len(offending) > 0 {
		return &SubsetError{Keys: offending}
	}

	c.logger.Info("subset validation passed", zap.String("tag", tag))
	return nil
}

// install clears the scratch directory, writes the installer manifest, and
// installs the registry package at tag. Returns the installed package root.
func (c *Checker) install(ctx context.Context, tag string) (string, error) {
	pkg := c.settings.ScopedRegistryPackage()

	if err := fsutil.EnsureEmptyDir(c.ScratchDir); err != nil {
		return "", err
	}
	manifest := installerManifest{
		Name:         "validation-install",
		Version:      "0.0.0",
		Private:      true,
		Dependencies: map[string]string{pkg: tag},
	}
	if err := fsutil.WriteJSON(filepath.Join(c.ScratchDir, bundle.ManifestFile), manifest); err != nil {
		return "", err
	}

	if err := c.client.Install(ctx, pkg, tag, c.ScratchDir); err != nil {
		return "", fmt.Errorf("installing %s@%s: %w", pkg, tag, err)
	}

	installed := filepath.Join(c.ScratchDir, "node_modules", filepath.FromSlash(pkg))
	if _, err := os.Stat(installed); err != nil {
		return "", fmt.Errorf("install produced no package at %s: %w", installed, err)
	}
	return installed, nil
}

// unaccountedKeys returns every key present in published but absent from
// generated, excluding keys whose package has become not-needed.
func unaccountedKeys(published, generated *snapshot.Snapshot, notNeeded func(string) bool) []string {
	var keys []string
	for name := range published.Entries {
		if _, ok := generated.Entries[name]; ok {
			continue
		}
		if notNeeded != nil && notNeeded(name) {
			continue
		}
		keys = append(keys, name)
	}
	return keys
}

func readIndex(path string) (*snapshot.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index %s: %w", path, err)
	}
	return snapshot.Parse(data)
}

// renderReport produces a diff-style rendering of content differences for
// the error message. Missing/extra files are already named by the
// Difference list; only content mismatches get a textual diff.
func (c *Checker) renderReport(wantDir, gotDir string, diffs []fsutil.Difference) string {
	dmp := diffmatchpatch.New()
	var b strings.Builder

	for _, d := range diffs {
		if d.Kind != fsutil.DiffContent {
			continue
		}
		want, err1 := os.ReadFile(filepath.Join(wantDir, filepath.FromSlash(d.Path)))
		got, err2 := os.ReadFile(filepath.Join(gotDir, filepath.FromSlash(d.Path)))
		if err1 != nil || err2 != nil {
			continue
		}

		textDiffs := dmp.DiffMain(string(got), string(want), false)
		rendered := dmp.DiffPrettyText(dmp.DiffCleanupSemantic(textDiffs))
		if len(rendered) > reportLimit {
			rendered = rendered[:reportLimit] + "\n[truncated]"
		}
		fmt.Fprintf(&b, "--- %s\n%s\n", d.Path, rendered)
	}
	return strings.TrimRight(b.String(), "\n")
}
