// Package typings reads the typings data model: the ordered set of package
// records the registry lists, and the not-needed list of retired packages.
// The model is read once per run and is read-only thereafter.
package typings

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

const (
	packagesFile  = "packages.yaml"
	notNeededFile = "not-needed.yaml"
)

// Source is the loaded typings data model.
type Source struct {
	packages     []Package
	byName       map[string]int
	notNeeded    []NotNeededPackage
	notNeededSet map[string]bool
}

// Load reads the data model from dir. The packages file is required; a
// missing not-needed file is treated as an empty list.
func Load(dir string) (*Source, error) {
	var packages []Package
	if err := readYAML(filepath.Join(dir, packagesFile), &packages); err != nil {
		return nil, err
	}

	var notNeeded []NotNeededPackage
	nnPath := filepath.Join(dir, notNeededFile)
	if _, err := os.Stat(nnPath); err == nil {
		if err := readYAML(nnPath, &notNeeded); err != nil {
			return nil, err
		}
	}

	src := &Source{
		packages:     packages,
		byName:       make(map[string]int, len(packages)),
		notNeeded:    notNeeded,
		notNeededSet: make(map[string]bool, len(notNeeded)),
	}
	for i, p := range packages {
		if p.Name == "" {
			return nil, fmt.Errorf("package record %d in %s has no name", i, packagesFile)
		}
		if _, dup := src.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate package record %q in %s", p.Name, packagesFile)
		}
		src.byName[p.Name] = i
	}
	for _, nn := range notNeeded {
		src.notNeededSet[nn.Name] = true
	}

	return src, nil
}

// All returns every package record in data-model order.
func (s *Source) All() []Package {
	return s.packages
}

// Names returns every package name in data-model order.
func (s *Source) Names() []string {
	names := make([]string, len(s.packages))
	for i, p := range s.packages {
		names[i] = p.Name
	}
	return names
}

// Get looks up a package record by unscoped name.
func (s *Source) Get(name string) (Package, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Package{}, false
	}
	return s.packages[i], true
}

// NotNeeded returns the retired-package list.
func (s *Source) NotNeeded() []NotNeededPackage {
	return s.notNeeded
}

// IsNotNeeded reports whether name is on the retired-package list.
func (s *Source) IsNotNeeded(name string) bool {
	return s.notNeededSet[name]
}

func readYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
