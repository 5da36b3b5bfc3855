package snapshot

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/typings-labs/typepub/internal/logging"
)

// TagFetcher fetches a package's live dist-tag mapping from the registry.
// A (nil, nil) return means the package has never been published; that is
// not an error and the package is omitted from the snapshot.
type TagFetcher interface {
	FetchTags(ctx context.Context, name string) (TagSet, error)
}

// Builder assembles a Snapshot by fetching every package's dist-tags with a
// bounded number of in-flight requests. Registries rate-limit; the fan-out
// bound keeps the batch under that limit.
type Builder struct {
	fetcher TagFetcher
	fanOut  int
	logger  *logging.Logger
}

// NewBuilder creates a Builder. fanOut must be at least 1.
func NewBuilder(fetcher TagFetcher, fanOut int, logger *logging.Logger) *Builder {
	if fanOut < 1 {
		fanOut = 1
	}
	return &Builder{fetcher: fetcher, fanOut: fanOut, logger: logger}
}

// Build fetches dist-tags for every name and returns the completed snapshot.
// Fetches are independent and order-insensitive; each goroutine inserts at a
// unique key, guarded by a mutex. The first fetch error aborts the batch and
// is returned; packages that were never published are silently skipped.
func (b *Builder) Build(ctx context.Context, names []string) (*Snapshot, error) {
	snap := New()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, b.fanOut)

	for _, name := range names {
		// Stop launching new fetches once a fetch has failed.
		mu.Lock()
		failed := firstErr != nil
		mu.Unlock()
		if failed {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(name string) {
			defer wg.Done()
			defer func() { <-sem }()

			tags, err := b.fetcher.FetchTags(ctx, name)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("fetching tags for %s: %w", name, err)
				}
				return
			}
			if tags == nil {
				// Never published. Not an error; just no entry.
				b.logger.Debug("package not published, skipping", zap.String("package", name))
				return
			}
			snap.Entries[name] = FilterTags(tags)
		}(name)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	b.logger.Info("registry snapshot built",
		zap.Int("packages", len(names)),
		zap.Int("entries", len(snap.Entries)))
	return snap, nil
}
