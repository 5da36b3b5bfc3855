// Package publish implements the decision engine: given the published state
// of the registry package and a freshly built snapshot, it chooses exactly
// one of three actions — promote an earlier unvalidated upload, publish a
// new version, or run a consistency check — and carries it out.
//
// The choice is modeled as an explicit state machine rather than a chain of
// conditionals so additional recovery states can be added without entangling
// the existing branches.
package publish

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/typings-labs/typepub/internal/bundle"
	"github.com/typings-labs/typepub/internal/config"
	"github.com/typings-labs/typepub/internal/logging"
	"github.com/typings-labs/typepub/internal/registry"
	"github.com/typings-labs/typepub/internal/snapshot"
)

// Action identifies what a run did.
type Action string

const (
	// ActionSkip means the staleness guard fired; nothing was evaluated.
	ActionSkip Action = "skip"
	// ActionPromote means an earlier upload was validated and tagged latest.
	ActionPromote Action = "promote"
	// ActionPublish means a new version was published, validated, and tagged.
	ActionPublish Action = "publish"
	// ActionNone means content was unchanged; only a consistency check ran.
	ActionNone Action = "none"
)

// state is the decision engine's state machine position.
type state int

const (
	stateEvaluate state = iota
	// stateRecoverPromote handles the one known way the published state can
	// be left with an untagged highest version: a timeout after a successful
	// upload but before tagging.
	stateRecoverPromote
	statePublishNew
	stateVerifyOnly
	stateDone
)

// SnapshotBuilder builds the per-run registry snapshot.
type SnapshotBuilder interface {
	Build(ctx context.Context, names []string) (*snapshot.Snapshot, error)
}

// Validator is the validation protocol the engine runs before tagging.
type Validator interface {
	Full(ctx context.Context, generatedDir, tag string) error
	Subset(ctx context.Context, generatedDir, tag string, notNeeded func(string) bool) error
}

// DataSource is the typings data model view the engine needs.
type DataSource interface {
	Names() []string
	IsNotNeeded(name string) bool
}

// Deps are the engine's collaborators.
type Deps struct {
	Fetcher registry.InfoFetcher
	Client  registry.Client
	Builder SnapshotBuilder
	Checker Validator
	Source  DataSource
	Logger  *logging.Logger
}

// Result summarizes a completed run.
type Result struct {
	Action Action

	// Version is the version promoted or published; nil for skip/none.
	Version *semver.Version

	// Hash is the content hash of the snapshot built this run; empty when
	// the staleness guard fired before the snapshot was built.
	Hash string
}

// Engine is the publish decision engine.
type Engine struct {
	settings config.Settings
	deps     Deps
	dryRun   bool

	now   func() time.Time
	sleep func(time.Duration)
}

// NewEngine creates an engine. With dryRun set, the publish step runs npm's
// dry-run mode and no tag is ever written.
func NewEngine(s config.Settings, deps Deps, dryRun bool) *Engine {
	return &Engine{
		settings: s,
		deps:     deps,
		dryRun:   dryRun,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Run executes one full decision-and-validate sequence. Either it completes
// and returns the action taken, or it aborts with the triggering error
// intact. There is no partial-success state.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	pkg := e.settings.ScopedRegistryPackage()
	log := e.deps.Logger

	info, err := e.deps.Fetcher.FetchInfo(ctx, pkg)
	if err != nil {
		return nil, fmt.Errorf("fetching published state of %s: %w", pkg, err)
	}

	// Staleness guard: a recent publish rate-limits registry churn. Skip
	// all branches, build nothing.
	if age := e.now().Sub(info.Modified); age < e.settings.StalenessThreshold {
		log.Info("registry package modified recently, skipping run",
			zap.Duration("age", age),
			zap.Duration("threshold", e.settings.StalenessThreshold))
		return &Result{Action: ActionSkip}, nil
	}

	// Version precondition: major is always 0 and minor is pinned. A
	// violation means someone manually tagged an incompatible version.
	if info.Version.Major() != 0 || info.Version.Minor() != e.settings.ExpectedMinor {
		return nil, &PreconditionError{Published: info.Version, ExpectedMinor: e.settings.ExpectedMinor}
	}

	snap, err := e.deps.Builder.Build(ctx, e.deps.Source.Names())
	if err != nil {
		return nil, err
	}
	serialized, err := snap.Serialize()
	if err != nil {
		return nil, err
	}
	hash := snapshot.ComputeHash(serialized)

	log.Info("snapshot computed",
		zap.String("hash", hash),
		zap.String("published_hash", info.ContentHash),
		zap.String("published_version", info.Version.String()),
		zap.String("highest_version", info.HighestVersion.String()))

	var result *Result
	for st := stateEvaluate; st != stateDone; {
		switch st {
		case stateEvaluate:
			switch {
			case !info.HighestVersion.Equal(info.Version):
				st = stateRecoverPromote
			case info.ContentHash != hash:
				st = statePublishNew
			default:
				st = stateVerifyOnly
			}

		case stateRecoverPromote:
			result, err = e.promote(ctx, info, hash, serialized)
			if err != nil {
				return nil, err
			}
			st = stateDone

		case statePublishNew:
			result, err = e.publishNew(ctx, info, hash, serialized)
			if err != nil {
				return nil, err
			}
			st = stateDone

		case stateVerifyOnly:
			result, err = e.verifyOnly(ctx, info, hash, serialized)
			if err != nil {
				return nil, err
			}
			st = stateDone
		}
	}
	return result, nil
}

// Verify runs only the consistency check: build the snapshot, regenerate the
// bundle at the published version, and compare it against what is currently
// tagged latest. The staleness guard does not apply; an operator asking for
// a check gets one.
func (e *Engine) Verify(ctx context.Context) (*Result, error) {
	pkg := e.settings.ScopedRegistryPackage()

	info, err := e.deps.Fetcher.FetchInfo(ctx, pkg)
	if err != nil {
		return nil, fmt.Errorf("fetching published state of %s: %w", pkg, err)
	}

	snap, err := e.deps.Builder.Build(ctx, e.deps.Source.Names())
	if err != nil {
		return nil, err
	}
	serialized, err := snap.Serialize()
	if err != nil {
		return nil, err
	}
	hash := snapshot.ComputeHash(serialized)

	return e.verifyOnly(ctx, info, hash, serialized)
}

// promote recovers from an upload that was never tagged: verify the
// already-uploaded artifact is a subset of what would be generated now, then
// tag the highest version as latest. No new content is uploaded.
func (e *Engine) promote(ctx context.Context, info *registry.PublishedInfo, hash string, serialized []byte) (*Result, error) {
	pkg := e.settings.ScopedRegistryPackage()
	log := e.deps.Logger

	log.Info("recovering unpromoted upload",
		zap.String("version", info.HighestVersion.String()))

	dir, err := e.writeBundle(info.HighestVersion, hash, serialized)
	if err != nil {
		return nil, err
	}

	if err := e.deps.Checker.Subset(ctx, dir, e.settings.PrereleaseTag, e.deps.Source.IsNotNeeded); err != nil {
		return nil, fmt.Errorf("subset validation of %s@%s: %w", pkg, info.HighestVersion, err)
	}

	if e.dryRun {
		log.Info("dry run: skipping tag", zap.String("version", info.HighestVersion.String()))
	} else if err := e.deps.Client.Tag(ctx, pkg, info.HighestVersion.String(), snapshot.LatestTag); err != nil {
		return nil, err
	}

	return &Result{Action: ActionPromote, Version: info.HighestVersion, Hash: hash}, nil
}

// publishNew publishes the changed snapshot as old-patch-plus-one, waits for
// the registry's read replicas to settle, fully validates the installed
// artifact, and only then tags it latest.
func (e *Engine) publishNew(ctx context.Context, info *registry.PublishedInfo, hash string, serialized []byte) (*Result, error) {
	pkg := e.settings.ScopedRegistryPackage()
	log := e.deps.Logger

	next := info.Version.IncPatch()
	newVersion := &next

	dir, err := e.writeBundle(newVersion, hash, serialized)
	if err != nil {
		return nil, err
	}

	if err := e.deps.Client.Publish(ctx, dir, e.settings.PrereleaseTag, e.dryRun); err != nil {
		return nil, err
	}

	if e.dryRun {
		log.Info("dry run: skipping validation and tag",
			zap.String("version", newVersion.String()))
		return &Result{Action: ActionPublish, Version: newVersion, Hash: hash}, nil
	}

	log.Info("waiting for registry replicas to settle",
		zap.Duration("delay", e.settings.SettlingDelay))
	e.sleep(e.settings.SettlingDelay)

	if err := e.deps.Checker.Full(ctx, dir, e.settings.PrereleaseTag); err != nil {
		// The artifact is live but unpromoted. Fail loudly; an operator has
		// to look at this before anything is tagged latest.
		return nil, fmt.Errorf("validating published %s@%s (artifact is live but not tagged latest): %w",
			pkg, newVersion, err)
	}

	if err := e.deps.Client.Tag(ctx, pkg, newVersion.String(), snapshot.LatestTag); err != nil {
		return nil, err
	}

	log.Info("published and promoted", zap.String("version", newVersion.String()))
	return &Result{Action: ActionPublish, Version: newVersion, Hash: hash}, nil
}

// verifyOnly re-validates whatever is currently tagged latest against the
// freshly generated bundle, catching drift introduced out-of-band. No
// publish, no tag.
func (e *Engine) verifyOnly(ctx context.Context, info *registry.PublishedInfo, hash string, serialized []byte) (*Result, error) {
	dir, err := e.writeBundle(info.Version, hash, serialized)
	if err != nil {
		return nil, err
	}

	if err := e.deps.Checker.Full(ctx, dir, snapshot.LatestTag); err != nil {
		return nil, fmt.Errorf("consistency check of current latest: %w", err)
	}

	e.deps.Logger.Info("content unchanged, consistency check passed")
	return &Result{Action: ActionNone, Hash: hash}, nil
}

// writeBundle validates the manifest against the embedded schema and writes
// the registry bundle for the given version and hash, returning its
// directory.
func (e *Engine) writeBundle(version *semver.Version, hash string, serialized []byte) (string, error) {
	manifest := bundle.NewRegistryManifest(e.settings, version, hash)

	result, err := bundle.ValidateManifest(manifest)
	if err != nil {
		return "", err
	}
	if !result.Valid {
		issues := make([]string, len(result.Issues))
		for i, issue := range result.Issues {
			issues[i] = issue.String()
		}
		return "", fmt.Errorf("generated manifest failed schema validation: %s", strings.Join(issues, "; "))
	}

	return bundle.WriteRegistryBundle(e.settings, manifest, serialized)
}
