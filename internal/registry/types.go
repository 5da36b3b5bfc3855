package registry

import (
	"context"
	"time"

	"github.com/Masterminds/semver/v3"
)

// PublishedInfo is the published state of the registry package, read once at
// the start of a run and read-only thereafter.
type PublishedInfo struct {
	// Version is the version the "latest" dist-tag points at.
	Version *semver.Version

	// HighestVersion is the highest version ever published, whether or not
	// it was promoted to "latest".
	HighestVersion *semver.Version

	// ContentHash is the snapshot content hash embedded in the latest
	// version's manifest extension field.
	ContentHash string

	// Modified is the registry's last-modified timestamp for the package.
	Modified time.Time
}

// InfoFetcher returns the published metadata for a package, or an error if
// the package was never published.
type InfoFetcher interface {
	FetchInfo(ctx context.Context, name string) (*PublishedInfo, error)
}

// Client performs write-side and install operations against the registry.
type Client interface {
	// Publish uploads the package rooted at dir under the given dist-tag.
	// With dryRun set, npm performs every step except the upload.
	Publish(ctx context.Context, dir, tag string, dryRun bool) error

	// Tag points the dist-tag at an already-published version.
	Tag(ctx context.Context, pkg, version, tag string) error

	// Install installs pkg at the given dist-tag into dir's node_modules.
	Install(ctx context.Context, pkg, tag, dir string) error
}
