package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/typings-labs/typepub/internal/logging"
)

const nodePackument = `{
  "dist-tags": {"latest": "20.1.0", "next": "21.0.0-pre", "stable": "20.1.0"},
  "versions": {
    "20.0.0": {},
    "20.1.0": {"typepubContentHash": "abc"},
    "21.0.0-pre": {}
  },
  "time": {"modified": "2026-08-20T10:00:00.000Z"}
}`

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *HTTPFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPFetcher(srv.URL, logging.NewNop())
}

func TestFetchTags(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(nodePackument))
	})

	tags, err := f.FetchTags(context.Background(), "@typings/node")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tags["latest"] != "20.1.0" || tags["next"] != "21.0.0-pre" {
		t.Errorf("unexpected tags: %v", tags)
	}
}

func TestFetchTags_NotFoundMeansUnpublished(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	tags, err := f.FetchTags(context.Background(), "@typings/ghost")
	if err != nil {
		t.Fatalf("404 must not be an error for tag fetches, got %v", err)
	}
	if tags != nil {
		t.Errorf("expected nil tags for unpublished package, got %v", tags)
	}
}

func TestFetchTags_ServerErrorFails(t *testing.T) {
	// 403 is not retried by the transport, so the failure surfaces at once.
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	if _, err := f.FetchTags(context.Background(), "@typings/node"); err == nil {
		t.Fatal("expected error for server failure")
	}
}

func TestFetchInfo(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		// Scoped names arrive with the slash percent-encoded.
		if r.URL.EscapedPath() != "/@typings%2Fnode" {
			t.Errorf("unexpected request path %q", r.URL.EscapedPath())
		}
		w.Write([]byte(nodePackument))
	})

	info, err := f.FetchInfo(context.Background(), "@typings/node")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if info.Version.String() != "20.1.0" {
		t.Errorf("unexpected latest version %s", info.Version)
	}
	if info.HighestVersion.String() != "21.0.0-pre" {
		t.Errorf("unexpected highest version %s", info.HighestVersion)
	}
	if info.ContentHash != "abc" {
		t.Errorf("unexpected content hash %q", info.ContentHash)
	}
	if info.Modified.IsZero() {
		t.Error("expected modified timestamp to be parsed")
	}
}

func TestFetchInfo_NeverPublishedIsError(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	if _, err := f.FetchInfo(context.Background(), "@typings/ghost"); err == nil {
		t.Fatal("expected error for never-published package")
	}
}
