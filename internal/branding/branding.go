// Package branding provides compile-time identity values for the CLI.
//
// Forkers running a registry for a different scope edit branding.yaml in this
// package, then rebuild. Go's //go:embed bakes it into the binary.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName         string `yaml:"cli_name"`
	DisplayName     string `yaml:"display_name"`
	Description     string `yaml:"description"`
	HomeDir         string `yaml:"home_dir"`
	EnvPrefix       string `yaml:"env_prefix"`
	GoModule        string `yaml:"go_module"`
	Scope           string `yaml:"scope"`
	RegistryPackage string `yaml:"registry_package"`
	RegistryURL     string `yaml:"registry_url"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:         "typepub",
			DisplayName:     "TypePub",
			Description:     "Publisher for the scoped typings registry package",
			HomeDir:         ".typepub",
			EnvPrefix:       "TYPEPUB",
			GoModule:        "github.com/typings-labs/typepub",
			Scope:           "@typings",
			RegistryPackage: "typings-registry",
			RegistryURL:     "https://registry.npmjs.org",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "typepub").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "TypePub").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".typepub").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "TYPEPUB").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Used by scripts — not consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// Scope returns the npm scope whose packages are listed (e.g., "@typings").
func Scope() string { load(); return defaults.Scope }

// RegistryPackage returns the unscoped name of the registry package itself
// (e.g., "typings-registry").
func RegistryPackage() string { load(); return defaults.RegistryPackage }

// RegistryURL returns the default npm registry base URL.
func RegistryURL() string { load(); return defaults.RegistryURL }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "TYPEPUB_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
