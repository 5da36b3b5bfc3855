package publish

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/typings-labs/typepub/internal/bundle"
	"github.com/typings-labs/typepub/internal/config"
	"github.com/typings-labs/typepub/internal/logging"
	"github.com/typings-labs/typepub/internal/registry"
	"github.com/typings-labs/typepub/internal/snapshot"
	"github.com/typings-labs/typepub/internal/validate"
)

type fakeFetcher struct {
	info  *registry.PublishedInfo
	calls int
}

func (f *fakeFetcher) FetchInfo(ctx context.Context, name string) (*registry.PublishedInfo, error) {
	f.calls++
	return f.info, nil
}

type tagCall struct{ pkg, version, tag string }

type fakeClient struct {
	publishCalls int
	publishTag   string
	tagCalls     []tagCall
}

func (c *fakeClient) Publish(ctx context.Context, dir, tag string, dryRun bool) error {
	c.publishCalls++
	c.publishTag = tag
	return nil
}

func (c *fakeClient) Tag(ctx context.Context, pkg, version, tag string) error {
	c.tagCalls = append(c.tagCalls, tagCall{pkg, version, tag})
	return nil
}

func (c *fakeClient) Install(ctx context.Context, pkg, tag, dir string) error {
	return nil
}

type fakeBuilder struct {
	snap  *snapshot.Snapshot
	calls int
}

func (b *fakeBuilder) Build(ctx context.Context, names []string) (*snapshot.Snapshot, error) {
	b.calls++
	return b.snap, nil
}

type fakeChecker struct {
	fullErr    error
	subsetErr  error
	fullTags   []string
	subsetTags []string
}

func (c *fakeChecker) Full(ctx context.Context, generatedDir, tag string) error {
	c.fullTags = append(c.fullTags, tag)
	return c.fullErr
}

func (c *fakeChecker) Subset(ctx context.Context, generatedDir, tag string, notNeeded func(string) bool) error {
	c.subsetTags = append(c.subsetTags, tag)
	return c.subsetErr
}

type fakeSource struct {
	names     []string
	notNeeded map[string]bool
}

func (s *fakeSource) Names() []string           { return s.names }
func (s *fakeSource) IsNotNeeded(n string) bool { return s.notNeeded[n] }

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	return config.Settings{
		RegistryURL:        "https://registry.example.test",
		Scope:              "@typings",
		RegistryPackage:    "typings-registry",
		PrereleaseTag:      "next",
		ExpectedMinor:      1,
		FanOut:             4,
		SettlingDelay:      time.Millisecond,
		StalenessThreshold: 7 * 24 * time.Hour,
		DataDir:            t.TempDir(),
		OutputDir:          t.TempDir(),
	}
}

func testSnapshot() *snapshot.Snapshot {
	snap := snapshot.New()
	snap.Entries["node"] = snapshot.TagSet{"latest": "20.1.0"}
	return snap
}

func mustHash(t *testing.T, snap *snapshot.Snapshot) string {
	t.Helper()
	h, err := snap.Hash()
	if err != nil {
		t.Fatalf("hashing snapshot: %v", err)
	}
	return h
}

func info(t *testing.T, version, highest, hash string, modified time.Time) *registry.PublishedInfo {
	t.Helper()
	v, err := semver.NewVersion(version)
	if err != nil {
		t.Fatalf("parsing %s: %v", version, err)
	}
	h, err := semver.NewVersion(highest)
	if err != nil {
		t.Fatalf("parsing %s: %v", highest, err)
	}
	return &registry.PublishedInfo{Version: v, HighestVersion: h, ContentHash: hash, Modified: modified}
}

func newTestEngine(settings config.Settings, deps Deps) *Engine {
	e := NewEngine(settings, deps, false)
	e.sleep = func(time.Duration) {}
	return e
}

func TestRun_UnchangedContent_ValidatesOnly(t *testing.T) {
	settings := testSettings(t)
	snap := testSnapshot()
	hash := mustHash(t, snap)
	old := time.Now().Add(-30 * 24 * time.Hour)

	client := &fakeClient{}
	checker := &fakeChecker{}
	e := newTestEngine(settings, Deps{
		Fetcher: &fakeFetcher{info: info(t, "0.1.5", "0.1.5", hash, old)},
		Client:  client,
		Builder: &fakeBuilder{snap: snap},
		Checker: checker,
		Source:  &fakeSource{names: []string{"node"}},
		Logger:  logging.NewNop(),
	})

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionNone {
		t.Errorf("expected ActionNone, got %s", result.Action)
	}
	if client.publishCalls != 0 {
		t.Error("validation-only run must not publish")
	}
	if len(client.tagCalls) != 0 {
		t.Error("validation-only run must not tag")
	}
	if len(checker.fullTags) != 1 || checker.fullTags[0] != "latest" {
		t.Errorf("expected one full validation against latest, got %v", checker.fullTags)
	}
}

func TestRun_ChangedContent_PublishesPatchBump(t *testing.T) {
	settings := testSettings(t)
	snap := testSnapshot()
	hash := mustHash(t, snap)
	old := time.Now().Add(-30 * 24 * time.Hour)

	client := &fakeClient{}
	checker := &fakeChecker{}
	e := newTestEngine(settings, Deps{
		Fetcher: &fakeFetcher{info: info(t, "0.1.5", "0.1.5", "0ldhash", old)},
		Client:  client,
		Builder: &fakeBuilder{snap: snap},
		Checker: checker,
		Source:  &fakeSource{names: []string{"node"}},
		Logger:  logging.NewNop(),
	})

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionPublish {
		t.Fatalf("expected ActionPublish, got %s", result.Action)
	}
	if result.Version.String() != "0.1.6" {
		t.Errorf("expected version 0.1.6 (old patch plus one), got %s", result.Version)
	}
	if client.publishCalls != 1 || client.publishTag != "next" {
		t.Errorf("expected one publish under next, got %d calls tag %q", client.publishCalls, client.publishTag)
	}
	if len(checker.fullTags) != 1 || checker.fullTags[0] != "next" {
		t.Errorf("expected full validation against next before tagging, got %v", checker.fullTags)
	}
	if len(client.tagCalls) != 1 {
		t.Fatalf("expected one tag call, got %v", client.tagCalls)
	}
	tagged := client.tagCalls[0]
	if tagged.version != "0.1.6" || tagged.tag != "latest" {
		t.Errorf("expected 0.1.6 tagged latest, got %+v", tagged)
	}

	// The written manifest embeds the new hash and version.
	data, err := os.ReadFile(filepath.Join(bundle.RegistryBundleDir(settings), bundle.ManifestFile))
	if err != nil {
		t.Fatalf("reading generated manifest: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("parsing generated manifest: %v", err)
	}
	if m["version"] != "0.1.6" {
		t.Errorf("manifest version = %v, want 0.1.6", m["version"])
	}
	if m["typepubContentHash"] != hash {
		t.Errorf("manifest hash = %v, want %s", m["typepubContentHash"], hash)
	}
}

func TestRun_UntaggedHighestVersion_PromotesWithoutUpload(t *testing.T) {
	settings := testSettings(t)
	snap := testSnapshot()
	hash := mustHash(t, snap)
	old := time.Now().Add(-30 * 24 * time.Hour)

	client := &fakeClient{}
	checker := &fakeChecker{}
	e := newTestEngine(settings, Deps{
		Fetcher: &fakeFetcher{info: info(t, "0.1.5", "0.1.6", hash, old)},
		Client:  client,
		Builder: &fakeBuilder{snap: snap},
		Checker: checker,
		Source:  &fakeSource{names: []string{"node"}},
		Logger:  logging.NewNop(),
	})

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionPromote {
		t.Fatalf("expected ActionPromote, got %s", result.Action)
	}
	if client.publishCalls != 0 {
		t.Error("promote branch must never upload new content")
	}
	if len(checker.subsetTags) != 1 {
		t.Errorf("expected one subset validation, got %v", checker.subsetTags)
	}
	if len(client.tagCalls) != 1 {
		t.Fatalf("expected one tag call, got %v", client.tagCalls)
	}
	tagged := client.tagCalls[0]
	if tagged.version != "0.1.6" || tagged.tag != "latest" {
		t.Errorf("expected existing 0.1.6 tagged latest, got %+v", tagged)
	}
}

func TestRun_SubsetFailure_AbortsWithoutTag(t *testing.T) {
	settings := testSettings(t)
	snap := testSnapshot()
	old := time.Now().Add(-30 * 24 * time.Hour)

	client := &fakeClient{}
	subsetErr := &validate.SubsetError{Keys: []string{"phantom"}}
	e := newTestEngine(settings, Deps{
		Fetcher: &fakeFetcher{info: info(t, "0.1.5", "0.1.6", "whatever", old)},
		Client:  client,
		Builder: &fakeBuilder{snap: snap},
		Checker: &fakeChecker{subsetErr: subsetErr},
		Source:  &fakeSource{names: []string{"node"}},
		Logger:  logging.NewNop(),
	})

	_, err := e.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var se *validate.SubsetError
	if !errors.As(err, &se) {
		t.Errorf("expected SubsetError, got %v", err)
	}
	if len(client.tagCalls) != 0 {
		t.Error("failed subset validation must not tag")
	}
}

func TestRun_ValidationFailureAfterPublish_FailsLoudly(t *testing.T) {
	settings := testSettings(t)
	snap := testSnapshot()
	old := time.Now().Add(-30 * 24 * time.Hour)

	client := &fakeClient{}
	mismatch := &validate.MismatchError{Package: "@typings/typings-registry"}
	e := newTestEngine(settings, Deps{
		Fetcher: &fakeFetcher{info: info(t, "0.1.5", "0.1.5", "0ldhash", old)},
		Client:  client,
		Builder: &fakeBuilder{snap: snap},
		Checker: &fakeChecker{fullErr: mismatch},
		Source:  &fakeSource{names: []string{"node"}},
		Logger:  logging.NewNop(),
	})

	_, err := e.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var me *validate.MismatchError
	if !errors.As(err, &me) {
		t.Errorf("expected MismatchError, got %v", err)
	}
	if client.publishCalls != 1 {
		t.Errorf("expected the publish to have happened, got %d calls", client.publishCalls)
	}
	if len(client.tagCalls) != 0 {
		t.Error("failed validation must not tag latest")
	}
}

func TestRun_RecentlyModified_SkipsEverything(t *testing.T) {
	settings := testSettings(t)
	builder := &fakeBuilder{snap: testSnapshot()}
	checker := &fakeChecker{}
	client := &fakeClient{}

	threeDaysAgo := time.Now().Add(-3 * 24 * time.Hour)
	e := newTestEngine(settings, Deps{
		Fetcher: &fakeFetcher{info: info(t, "0.1.5", "0.1.5", "abc", threeDaysAgo)},
		Client:  client,
		Builder: builder,
		Checker: checker,
		Source:  &fakeSource{names: []string{"node"}},
		Logger:  logging.NewNop(),
	})

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionSkip {
		t.Errorf("expected ActionSkip, got %s", result.Action)
	}
	if builder.calls != 0 {
		t.Error("staleness guard must fire before any snapshot fetch")
	}
	if len(checker.fullTags)+len(checker.subsetTags) != 0 {
		t.Error("staleness guard must skip validation")
	}
	if client.publishCalls != 0 || len(client.tagCalls) != 0 {
		t.Error("staleness guard must skip publish and tag")
	}
}

func TestRun_VersionPrecondition_Fatal(t *testing.T) {
	settings := testSettings(t)
	old := time.Now().Add(-30 * 24 * time.Hour)

	for _, version := range []string{"1.1.0", "0.2.0"} {
		e := newTestEngine(settings, Deps{
			Fetcher: &fakeFetcher{info: info(t, version, version, "abc", old)},
			Client:  &fakeClient{},
			Builder: &fakeBuilder{snap: testSnapshot()},
			Checker: &fakeChecker{},
			Source:  &fakeSource{names: []string{"node"}},
			Logger:  logging.NewNop(),
		})

		_, err := e.Run(context.Background())
		if err == nil {
			t.Fatalf("version %s: expected error", version)
		}
		var pe *PreconditionError
		if !errors.As(err, &pe) {
			t.Errorf("version %s: expected PreconditionError, got %v", version, err)
		}
	}
}

func TestRun_DryRun_PublishesNothingReal(t *testing.T) {
	settings := testSettings(t)
	snap := testSnapshot()
	old := time.Now().Add(-30 * 24 * time.Hour)

	client := &fakeClient{}
	checker := &fakeChecker{}
	e := NewEngine(settings, Deps{
		Fetcher: &fakeFetcher{info: info(t, "0.1.5", "0.1.5", "0ldhash", old)},
		Client:  client,
		Builder: &fakeBuilder{snap: snap},
		Checker: checker,
		Source:  &fakeSource{names: []string{"node"}},
		Logger:  logging.NewNop(),
	}, true)
	e.sleep = func(time.Duration) {}

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionPublish {
		t.Errorf("expected ActionPublish, got %s", result.Action)
	}
	if len(client.tagCalls) != 0 {
		t.Error("dry run must not tag")
	}
	if len(checker.fullTags) != 0 {
		t.Error("dry run skips validation: nothing was actually uploaded")
	}
}
