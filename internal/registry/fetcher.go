package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/typings-labs/typepub/internal/branding"
	"github.com/typings-labs/typepub/internal/logging"
	"github.com/typings-labs/typepub/internal/snapshot"
)

// packument is the subset of the registry's package document we read. The
// typepubContentHash field is this tool's manifest extension; see
// bundle.RegistryManifest.
type packument struct {
	DistTags map[string]string          `json:"dist-tags"`
	Versions map[string]versionManifest `json:"versions"`
	Time     map[string]string          `json:"time"`
}

type versionManifest struct {
	ContentHash string `json:"typepubContentHash"`
}

// HTTPFetcher fetches package metadata over the registry's HTTP API. Retries
// for transient failures live here, in the transport, not in the core logic.
type HTTPFetcher struct {
	client  *resty.Client
	baseURL string
	logger  *logging.Logger
}

// NewHTTPFetcher creates a fetcher for the given registry base URL.
func NewHTTPFetcher(baseURL string, logger *logging.Logger) *HTTPFetcher {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 15 * time.Second
	retryClient.Logger = nil

	client := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(30*time.Second).
		SetHeader("User-Agent", branding.CLIName()+"-fetcher").
		SetHeader("Accept", "application/json")

	return &HTTPFetcher{client: client, baseURL: baseURL, logger: logger}
}

// FetchTags returns the package's live dist-tag mapping. A 404 means the
// package was never published and returns (nil, nil), not an error.
func (f *HTTPFetcher) FetchTags(ctx context.Context, name string) (snapshot.TagSet, error) {
	doc, status, err := f.fetchPackument(ctx, name)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}

	if len(doc.DistTags) == 0 {
		return nil, nil
	}
	tags := make(snapshot.TagSet, len(doc.DistTags))
	for tag, version := range doc.DistTags {
		tags[tag] = version
	}
	return tags, nil
}

// FetchInfo returns the published state of a package. Unlike FetchTags, a
// package that was never published is an error here: callers ask about the
// registry package itself, which must exist.
func (f *HTTPFetcher) FetchInfo(ctx context.Context, name string) (*PublishedInfo, error) {
	doc, status, err := f.fetchPackument(ctx, name)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("package %s has never been published", name)
	}

	latestStr, ok := doc.DistTags[snapshot.LatestTag]
	if !ok {
		return nil, fmt.Errorf("package %s has no latest tag", name)
	}
	latest, err := semver.NewVersion(latestStr)
	if err != nil {
		return nil, fmt.Errorf("parsing latest version %q of %s: %w", latestStr, name, err)
	}

	highest := latest
	for verStr := range doc.Versions {
		ver, err := semver.NewVersion(verStr)
		if err != nil {
			// Tolerate malformed historical versions; they cannot be tagged.
			f.logger.Warn("skipping unparseable published version",
				zap.String("package", name), zap.String("version", verStr))
			continue
		}
		if ver.GreaterThan(highest) {
			highest = ver
		}
	}

	var modified time.Time
	if modStr, ok := doc.Time["modified"]; ok {
		modified, err = time.Parse(time.RFC3339, modStr)
		if err != nil {
			return nil, fmt.Errorf("parsing modified time %q of %s: %w", modStr, name, err)
		}
	}

	return &PublishedInfo{
		Version:        latest,
		HighestVersion: highest,
		ContentHash:    doc.Versions[latestStr].ContentHash,
		Modified:       modified,
	}, nil
}

// fetchPackument GETs the package document. Scoped names are path-escaped so
// the embedded slash survives ("@typings/node" → "@typings%2Fnode").
func (f *HTTPFetcher) fetchPackument(ctx context.Context, name string) (*packument, int, error) {
	reqURL := f.baseURL + "/" + url.PathEscape(name)

	resp, err := f.client.R().SetContext(ctx).Get(reqURL)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching %s: %w", name, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return &packument{}, http.StatusNotFound, nil
	default:
		return nil, resp.StatusCode(), fmt.Errorf("fetching %s: registry returned status %d", name, resp.StatusCode())
	}

	var doc packument
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, resp.StatusCode(), fmt.Errorf("parsing package document for %s: %w", name, err)
	}
	return &doc, http.StatusOK, nil
}
