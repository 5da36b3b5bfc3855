// Package config loads tool configuration from the config file and
// environment into an explicit Settings value. Settings are passed into the
// snapshot builder, bundle generator, and decision engine rather than read
// from ambient global state, so one process can drive multiple registry
// configurations without cross-contamination.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"github.com/typings-labs/typepub/internal/branding"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Settings holds one registry configuration. All consumers receive it by
// value; nothing mutates it after Load.
type Settings struct {
	// RegistryURL is the npm-compatible registry base URL.
	RegistryURL string

	// Scope is the package scope whose members are listed (e.g., "@typings").
	Scope string

	// RegistryPackage is the unscoped name of the registry package itself.
	RegistryPackage string

	// PrereleaseTag is the dist-tag new uploads are published under before
	// validation promotes them to "latest".
	PrereleaseTag string

	// ExpectedMinor pins the registry package's minor version. Major is
	// always 0; both are preconditions checked against the published state.
	ExpectedMinor uint64

	// FanOut bounds concurrent dist-tag fetches against the registry.
	FanOut int

	// SettlingDelay is how long to wait after an upload before installing it
	// back for validation, letting the registry's read replicas catch up.
	SettlingDelay time.Duration

	// StalenessThreshold rate-limits publishing: if the published registry
	// package was modified more recently than this, the run exits early.
	StalenessThreshold time.Duration

	// DataDir holds the typings data model files.
	DataDir string

	// OutputDir receives generated bundles.
	OutputDir string
}

// Dir returns the path to the config directory (~/.typepub/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.typepub/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load reads the config file and environment and returns the resulting
// Settings. A missing config file is not an error; defaults apply.
func Load() (Settings, error) {
	v := viper.New()
	v.SetConfigFile(FilePath())
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.AutomaticEnv()

	setDefaults(v)

	// Ignore error if config file doesn't exist yet.
	_ = v.ReadInConfig()

	return settingsFrom(v)
}

// LoadFile reads Settings from an explicit config file path. Used by runs
// that validate multiple registry configurations.
func LoadFile(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(fileType)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Settings{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	return settingsFrom(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("registry_url", branding.RegistryURL())
	v.SetDefault("scope", branding.Scope())
	v.SetDefault("registry_package", branding.RegistryPackage())
	v.SetDefault("prerelease_tag", "next")
	v.SetDefault("expected_minor", 1)
	v.SetDefault("fan_out", 10)
	v.SetDefault("settling_delay", "30s")
	v.SetDefault("staleness_threshold", "168h")
	v.SetDefault("data_dir", "data")
	v.SetDefault("output_dir", "output")
}

func settingsFrom(v *viper.Viper) (Settings, error) {
	s := Settings{
		RegistryURL:        v.GetString("registry_url"),
		Scope:              v.GetString("scope"),
		RegistryPackage:    v.GetString("registry_package"),
		PrereleaseTag:      v.GetString("prerelease_tag"),
		ExpectedMinor:      v.GetUint64("expected_minor"),
		FanOut:             v.GetInt("fan_out"),
		SettlingDelay:      v.GetDuration("settling_delay"),
		StalenessThreshold: v.GetDuration("staleness_threshold"),
		DataDir:            v.GetString("data_dir"),
		OutputDir:          v.GetString("output_dir"),
	}

	if s.FanOut < 1 {
		return Settings{}, fmt.Errorf("fan_out must be at least 1, got %d", s.FanOut)
	}
	if s.Scope == "" || s.Scope[0] != '@' {
		return Settings{}, fmt.Errorf("scope must start with '@', got %q", s.Scope)
	}

	return s, nil
}

// ScopedRegistryPackage returns the fully scoped registry package name,
// e.g., "@typings/typings-registry".
func (s Settings) ScopedRegistryPackage() string {
	return s.Scope + "/" + s.RegistryPackage
}

// ScopedName maps an unscoped typings package name into the scope,
// e.g., "node" → "@typings/node".
func (s Settings) ScopedName(name string) string {
	return s.Scope + "/" + name
}
