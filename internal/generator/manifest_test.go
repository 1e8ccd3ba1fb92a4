package generator

import (
	"strings"
	"testing"
	"time"
)

func TestManifestRoundTrip(t *testing.T) {
	manifest := newBuildManifest()
	manifest.GeneratedAt = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	manifest.setPage(manifestPage{
		Slug:   "hello",
		Route:  "/posts/hello",
		Output: "public/posts/hello/index.html",
		Hash:   "abc",
	})
	manifest.setPage(manifestPage{
		Route:  "/",
		Output: "public/index.html",
		Hash:   "def",
	})

	data, err := manifest.marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	parsed, err := parseManifest(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Version != manifestFileVersion {
		t.Fatalf("unexpected version %d", parsed.Version)
	}
	entry, ok := parsed.lookupPage("/posts/hello")
	if !ok {
		t.Fatal("expected page entry after round trip")
	}
	if entry.Hash != "abc" {
		t.Fatalf("unexpected hash %q", entry.Hash)
	}

	// Routes are sorted in the serialized form for stable diffs.
	if root := strings.Index(string(data), `"route": "/"`); root < 0 {
		t.Fatal("expected root route in output")
	}
}

func TestManifestShouldSkipPage(t *testing.T) {
	manifest := newBuildManifest()
	manifest.setPage(manifestPage{
		Route:  "/posts/hello",
		Output: "public/posts/hello/index.html",
		Hash:   "abc",
	})

	if !manifest.shouldSkipPage("/posts/hello", "abc", "public/posts/hello/index.html") {
		t.Fatal("expected unchanged page to skip")
	}
	if manifest.shouldSkipPage("/posts/hello", "changed", "public/posts/hello/index.html") {
		t.Fatal("hash change must rebuild")
	}
	if manifest.shouldSkipPage("/posts/hello", "abc", "elsewhere/index.html") {
		t.Fatal("output change must rebuild")
	}
	if manifest.shouldSkipPage("/posts/hello", "", "public/posts/hello/index.html") {
		t.Fatal("missing hash must rebuild")
	}
	if manifest.shouldSkipPage("/posts/other", "abc", "public/posts/other/index.html") {
		t.Fatal("unknown route must rebuild")
	}
}

func TestManifestPrunePages(t *testing.T) {
	manifest := newBuildManifest()
	manifest.setPage(manifestPage{Route: "/posts/keep"})
	manifest.setPage(manifestPage{Route: "/posts/stale"})

	manifest.prunePages(map[string]struct{}{
		manifest.pageKey("/posts/keep"): {},
	})

	if _, ok := manifest.lookupPage("/posts/keep"); !ok {
		t.Fatal("expected kept entry")
	}
	if _, ok := manifest.lookupPage("/posts/stale"); ok {
		t.Fatal("expected stale entry pruned")
	}
}

func TestManifestShouldSkipAsset(t *testing.T) {
	manifest := newBuildManifest()
	manifest.setAsset(manifestAsset{
		Source:   "css/site.css",
		Output:   "public/assets/css/site.css",
		Checksum: "abc",
	})

	if !manifest.shouldSkipAsset("css/site.css", "abc", "public/assets/css/site.css") {
		t.Fatal("expected unchanged asset to skip")
	}
	if manifest.shouldSkipAsset("css/site.css", "zzz", "public/assets/css/site.css") {
		t.Fatal("checksum change must copy again")
	}
}
