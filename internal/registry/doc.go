// Package registry wraps the npm-compatible registry: an HTTP fetcher for
// published package metadata and dist-tags, and a client that shells out to
// the npm binary for publish, dist-tag, and install operations.
package registry
