package bundle

import (
	"fmt"
	"strings"

	"github.com/typings-labs/typepub/internal/config"
	"github.com/typings-labs/typepub/internal/typings"
)

// RegistryReadme returns the static README for the registry package.
func RegistryReadme(s config.Settings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.ScopedRegistryPackage())
	fmt.Fprintf(&b, "This package contains a listing of all packages published under the %s scope,\n", s.Scope)
	b.WriteString("along with the non-redundant distribution tags each package carries.\n\n")
	b.WriteString("It is generated and published automatically; do not edit or depend on its\n")
	b.WriteString("contents remaining stable between versions. The listing lives in `index.json`.\n")
	return b.String()
}

// PackageReadme returns the README for one typings package.
func PackageReadme(s config.Settings, pkg typings.Package) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Installation\n")
	fmt.Fprintf(&b, "> `npm install --save-dev %s`\n\n", s.ScopedName(pkg.Name))
	fmt.Fprintf(&b, "# Summary\n")
	fmt.Fprintf(&b, "This package contains type definitions for %s", pkg.LibraryName)
	if pkg.ProjectURL != "" {
		fmt.Fprintf(&b, " (%s)", pkg.ProjectURL)
	}
	b.WriteString(".\n\n# Details\n")
	fmt.Fprintf(&b, "Version: %s\n\n", pkg.Version())

	if len(pkg.Dependencies) == 0 {
		b.WriteString("Dependencies: none\n")
	} else {
		b.WriteString("Dependencies:\n")
		for _, d := range pkg.Dependencies {
			fmt.Fprintf(&b, " * %s: %s\n", s.ScopedName(d.Name), d.Version)
		}
	}
	return b.String()
}
