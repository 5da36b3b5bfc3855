package bundle

import (
	"fmt"
	"path/filepath"

	"github.com/typings-labs/typepub/internal/config"
	"github.com/typings-labs/typepub/internal/fsutil"
	"github.com/typings-labs/typepub/internal/typings"
)

// File names inside a written bundle.
const (
	ManifestFile = "package.json"
	ReadmeFile   = "README.md"
	IndexFile    = "index.json"
	MetadataFile = ".metadata.json"
)

// RegistryBundleDir returns the output directory the registry package bundle
// is written to.
func RegistryBundleDir(s config.Settings) string {
	return filepath.Join(s.OutputDir, s.RegistryPackage)
}

// WriteRegistryBundle clears the registry bundle directory and writes the
// manifest, readme, and serialized snapshot index. index holds the exact
// serialized snapshot bytes whose hash the manifest embeds; writing them
// verbatim keeps the published index byte-identical to what was hashed.
func WriteRegistryBundle(s config.Settings, manifest RegistryManifest, index []byte) (string, error) {
	dir := RegistryBundleDir(s)
	if err := fsutil.EnsureEmptyDir(dir); err != nil {
		return "", err
	}
	if err := fsutil.WriteJSON(filepath.Join(dir, ManifestFile), manifest); err != nil {
		return "", err
	}
	if err := fsutil.WriteFile(filepath.Join(dir, ReadmeFile), []byte(RegistryReadme(s))); err != nil {
		return "", err
	}
	if err := fsutil.WriteFile(filepath.Join(dir, IndexFile), index); err != nil {
		return "", err
	}
	return dir, nil
}

// WritePackageBundle writes one typings package's publishable bundle:
// manifest, readme, metadata file, and the declaration files named by the
// data model (copied out of the data directory's types tree).
func WritePackageBundle(s config.Settings, pkg typings.Package) (string, error) {
	dir := filepath.Join(s.OutputDir, pkg.Name)
	if err := fsutil.EnsureEmptyDir(dir); err != nil {
		return "", err
	}

	if err := fsutil.WriteJSON(filepath.Join(dir, ManifestFile), NewPackageManifest(s, pkg)); err != nil {
		return "", err
	}
	if err := fsutil.WriteFile(filepath.Join(dir, ReadmeFile), []byte(PackageReadme(s, pkg))); err != nil {
		return "", err
	}
	if err := fsutil.WriteJSON(filepath.Join(dir, MetadataFile), pkg); err != nil {
		return "", err
	}

	srcRoot := filepath.Join(s.DataDir, "types", pkg.Name)
	for _, file := range pkg.Files {
		src := filepath.Join(srcRoot, filepath.FromSlash(file))
		dst := filepath.Join(dir, filepath.FromSlash(file))
		if err := fsutil.CopyFile(src, dst); err != nil {
			return "", fmt.Errorf("copying %s for %s: %w", file, pkg.Name, err)
		}
	}

	return dir, nil
}
