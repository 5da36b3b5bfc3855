package bundle

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/typings-labs/typepub/internal/config"
	"github.com/typings-labs/typepub/internal/typings"
)

// RegistryManifest is the generated package.json for the registry package
// itself. Created fresh per run; never persisted except as part of the
// output bundle.
type RegistryManifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	License     string   `json:"license"`

	// ContentHash is the snapshot content hash, stored under a manifest
	// extension field so the next run can read it back from the registry.
	ContentHash string `json:"typepubContentHash"`
}

// NewRegistryManifest builds the registry package manifest for a version and
// snapshot content hash.
func NewRegistryManifest(s config.Settings, version *semver.Version, contentHash string) RegistryManifest {
	return RegistryManifest{
		Name:        s.ScopedRegistryPackage(),
		Version:     version.String(),
		Description: fmt.Sprintf("A registry of all %s packages", s.Scope),
		Keywords:    []string{"types", "typings", "registry"},
		License:     "MIT",
		ContentHash: contentHash,
	}
}

// PackageManifest is the generated package.json for one typings package.
type PackageManifest struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Description  string            `json:"description"`
	License      string            `json:"license"`
	Main         string            `json:"main"`
	Types        string            `json:"types"`
	Dependencies map[string]string `json:"dependencies,omitempty"`

	// ContentHash mirrors the data model's content hash for the package, so
	// the pipeline can detect unchanged packages without diffing files.
	ContentHash string `json:"typepubContentHash"`
}

// NewPackageManifest builds the manifest for one typings package, mapping
// its dependencies into the configured scope.
func NewPackageManifest(s config.Settings, pkg typings.Package) PackageManifest {
	var deps map[string]string
	if len(pkg.Dependencies) > 0 {
		deps = make(map[string]string, len(pkg.Dependencies))
		for _, d := range pkg.Dependencies {
			deps[s.ScopedName(d.Name)] = d.Version
		}
	}

	return PackageManifest{
		Name:         s.ScopedName(pkg.Name),
		Version:      pkg.Version(),
		Description:  fmt.Sprintf("TypeScript definitions for %s", pkg.LibraryName),
		License:      "MIT",
		Main:         "",
		Types:        "index.d.ts",
		Dependencies: deps,
		ContentHash:  pkg.ContentHash,
	}
}
