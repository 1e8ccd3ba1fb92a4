package generator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	manifestFileName    = ".blog-manifest.json"
	manifestFileVersion = 1
)

// buildManifest records what the last successful build produced. Incremental
// runs consult it to skip pages and assets whose inputs have not changed, and
// prune entries for posts that no longer exist.
type buildManifest struct {
	Version     int                        `json:"version"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Pages       map[string]manifestPage    `json:"pages"`
	Assets      map[string]manifestAsset   `json:"assets"`
	Metadata    map[string]json.RawMessage `json:"metadata,omitempty"`
}

type manifestPage struct {
	Slug         string    `json:"slug"`
	Route        string    `json:"route"`
	Output       string    `json:"output"`
	Template     string    `json:"template"`
	Hash         string    `json:"hash"`
	Checksum     string    `json:"checksum"`
	LastModified time.Time `json:"last_modified"`
	RenderedAt   time.Time `json:"rendered_at"`
}

type manifestAsset struct {
	Key      string    `json:"key"`
	Source   string    `json:"source"`
	Output   string    `json:"output"`
	Checksum string    `json:"checksum"`
	Size     int64     `json:"size"`
	CopiedAt time.Time `json:"copied_at"`
}

func newBuildManifest() *buildManifest {
	manifest := &buildManifest{Version: manifestFileVersion}
	manifest.ensureMaps()
	return manifest
}

func (m *buildManifest) ensureMaps() {
	if m.Pages == nil {
		m.Pages = map[string]manifestPage{}
	}
	if m.Assets == nil {
		m.Assets = map[string]manifestAsset{}
	}
	if m.Metadata == nil {
		m.Metadata = map[string]json.RawMessage{}
	}
}

func parseManifest(data []byte) (*buildManifest, error) {
	if len(data) == 0 {
		return newBuildManifest(), nil
	}
	var manifest buildManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("generator: parse manifest: %w", err)
	}
	manifest.ensureMaps()
	if manifest.Version == 0 {
		manifest.Version = manifestFileVersion
	}
	return &manifest, nil
}

// marshal serializes the manifest with pages sorted by route and assets by
// key, so successive builds produce byte-identical files for identical input.
func (m *buildManifest) marshal() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	snapshot := *m
	snapshot.ensureMaps()
	if snapshot.Version == 0 {
		snapshot.Version = manifestFileVersion
	}

	ordered := struct {
		Version     int                        `json:"version"`
		GeneratedAt time.Time                  `json:"generated_at"`
		Pages       []manifestPage             `json:"pages"`
		Assets      []manifestAsset            `json:"assets"`
		Metadata    map[string]json.RawMessage `json:"metadata,omitempty"`
	}{
		Version:     snapshot.Version,
		GeneratedAt: snapshot.GeneratedAt,
		Pages:       sortedValues(snapshot.Pages, func(a, b manifestPage) bool { return a.Route < b.Route }),
		Assets:      sortedValues(snapshot.Assets, func(a, b manifestAsset) bool { return a.Key < b.Key }),
		Metadata:    snapshot.Metadata,
	}
	return json.MarshalIndent(ordered, "", "  ")
}

func sortedValues[T any](entries map[string]T, less func(a, b T) bool) []T {
	if len(entries) == 0 {
		return nil
	}
	values := make([]T, 0, len(entries))
	for _, entry := range entries {
		values = append(values, entry)
	}
	sort.Slice(values, func(i, j int) bool { return less(values[i], values[j]) })
	return values
}

// pageKey normalizes routes so lookups tolerate case and whitespace drift
// between builds.
func (m *buildManifest) pageKey(route string) string {
	return strings.ToLower(strings.TrimSpace(route))
}

func (m *buildManifest) assetKey(source string) string {
	return strings.TrimSpace(source)
}

func (m *buildManifest) lookupPage(route string) (manifestPage, bool) {
	if m == nil || len(m.Pages) == 0 {
		return manifestPage{}, false
	}
	entry, ok := m.Pages[m.pageKey(route)]
	return entry, ok
}

func (m *buildManifest) setPage(entry manifestPage) {
	if m == nil {
		return
	}
	m.ensureMaps()
	m.Pages[m.pageKey(entry.Route)] = entry
}

// shouldSkipPage reports whether a page's rendered content hash and output
// location both match the previous build. An empty hash never skips.
func (m *buildManifest) shouldSkipPage(route, hash, output string) bool {
	entry, ok := m.lookupPage(route)
	switch {
	case !ok:
		return false
	case hash == "" || entry.Hash != hash:
		return false
	default:
		return strings.TrimSpace(entry.Output) == strings.TrimSpace(output)
	}
}

func (m *buildManifest) lookupAsset(source string) (manifestAsset, bool) {
	if m == nil || len(m.Assets) == 0 {
		return manifestAsset{}, false
	}
	entry, ok := m.Assets[m.assetKey(source)]
	return entry, ok
}

func (m *buildManifest) setAsset(entry manifestAsset) {
	if m == nil {
		return
	}
	m.ensureMaps()
	if strings.TrimSpace(entry.Key) == "" {
		entry.Key = m.assetKey(entry.Source)
	}
	m.Assets[entry.Key] = entry
}

func (m *buildManifest) shouldSkipAsset(source, checksum, output string) bool {
	entry, ok := m.lookupAsset(source)
	if !ok || entry.Checksum != checksum {
		return false
	}
	return strings.TrimSpace(entry.Output) == strings.TrimSpace(output)
}

// prunePages drops entries whose keys are absent from the current build so
// deleted posts do not linger in the manifest.
func (m *buildManifest) prunePages(keys map[string]struct{}) {
	if len(keys) == 0 || len(m.Pages) == 0 {
		return
	}
	for key := range m.Pages {
		if _, ok := keys[key]; !ok {
			delete(m.Pages, key)
		}
	}
}
