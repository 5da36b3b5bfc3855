package typings

import "fmt"

// Dependency names another typings package a package depends on, with the
// version range its consumers should receive.
type Dependency struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`
}

// Package is one typings package record from the data model.
type Package struct {
	// Name is the unscoped package name (e.g., "node").
	Name string `yaml:"name" json:"name"`

	// LibraryName is the human-readable name of the library the typings
	// describe (e.g., "Node.js").
	LibraryName string `yaml:"libraryName" json:"libraryName"`

	// Major and Minor are the typings version components. Patch numbers are
	// assigned at publish time, not recorded in the data model.
	Major int `yaml:"major" json:"major"`
	Minor int `yaml:"minor" json:"minor"`

	// Dependencies lists other typings packages this one depends on.
	Dependencies []Dependency `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`

	// Files lists the declaration files shipped in the package, relative to
	// the package's data directory.
	Files []string `yaml:"files" json:"files"`

	// ContentHash is the deterministic digest of the package's content,
	// recorded by the data pipeline that produced the model.
	ContentHash string `yaml:"contentHash" json:"contentHash"`

	// ProjectURL links to the upstream project.
	ProjectURL string `yaml:"projectUrl,omitempty" json:"projectUrl,omitempty"`
}

// Version returns the package's version string with a zero patch component.
func (p Package) Version() string {
	return fmt.Sprintf("%d.%d.0", p.Major, p.Minor)
}

// NotNeededPackage records a package whose typings were retired because the
// upstream project now ships its own. Its name may still appear in
// previously published registry indexes; subset validation tolerates it.
type NotNeededPackage struct {
	Name        string `yaml:"name" json:"name"`
	LibraryName string `yaml:"libraryName" json:"libraryName"`

	// AsOfVersion is the first upstream version that shipped its own typings.
	AsOfVersion string `yaml:"asOfVersion" json:"asOfVersion"`
}
