// Package bundle generates the publishable artifacts: the registry package's
// own bundle (package.json, README.md, index.json) and per-package typings
// bundles (manifest, readme, metadata file, declaration files). Each run
// fully regenerates its output after clearing the output directory; nothing
// is modified in place.
package bundle
