package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/pkg/storage"
)

func TestBuildRendersPostsAndListing(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

	renderer := &recordingRenderer{}
	store := &recordingStorage{}
	svc := newTestService(t, Config{
		OutputDir:       "public",
		BaseURL:         "https://example.com",
		SiteTitle:       "Example Blog",
		Language:        "en",
		GenerateSitemap: true,
		GenerateRobots:  true,
		GenerateFeeds:   true,
	}, renderer, store)
	svc.now = func() time.Time { return now }

	result, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if result.PagesBuilt != 3 {
		t.Fatalf("expected 3 pages built, got %d", result.PagesBuilt)
	}
	if len(result.Rendered) != 3 {
		t.Fatalf("expected 3 rendered outputs, got %d", len(result.Rendered))
	}
	if result.PagesSkipped != 0 {
		t.Fatalf("expected no skipped pages, got %d", result.PagesSkipped)
	}

	for _, page := range result.Rendered {
		if page.Output == "" {
			t.Fatalf("expected output path for route %q", page.Route)
		}
		if page.Checksum == "" {
			t.Fatalf("expected checksum for route %q", page.Route)
		}
		if !strings.HasSuffix(page.Output, "index.html") {
			t.Fatalf("expected pretty URL output, got %s", page.Output)
		}
	}

	if _, ok := store.file("public/posts/second-post/index.html"); !ok {
		t.Fatalf("expected post page, files: %v", store.paths())
	}
	if _, ok := store.file("public/index.html"); !ok {
		t.Fatal("expected listing page")
	}
	if _, ok := store.file("public/sitemap.xml"); !ok {
		t.Fatal("expected sitemap")
	}
	if data, ok := store.file("public/robots.txt"); !ok || !strings.Contains(string(data), "Sitemap: https://example.com/sitemap.xml") {
		t.Fatalf("unexpected robots.txt: %s", data)
	}
	if data, ok := store.file("public/feed.xml"); !ok || !strings.Contains(string(data), "<title>Example Blog</title>") {
		t.Fatal("expected RSS feed with site title")
	}
	if _, ok := store.file("public/feed.atom.xml"); !ok {
		t.Fatal("expected Atom feed")
	}
	if _, ok := store.file("public/.blog-manifest.json"); !ok {
		t.Fatal("expected build manifest")
	}

	for _, call := range renderer.Calls() {
		switch call.name {
		case "post.tmpl":
			if call.ctx.Post == nil || call.ctx.Post.Post == nil {
				t.Fatal("expected post context for post template")
			}
			if got := call.ctx.Helpers.WithBaseURL("about"); got != "https://example.com/about" {
				t.Fatalf("unexpected helper URL: %s", got)
			}
		case "index.tmpl":
			if call.ctx.Listing == nil || len(call.ctx.Listing.Posts) != 2 {
				t.Fatal("expected listing context with both posts")
			}
			if call.ctx.Listing.Posts[0].Post.Slug != "second-post" {
				t.Fatalf("expected newest post first, got %s", call.ctx.Listing.Posts[0].Post.Slug)
			}
		default:
			t.Fatalf("unexpected template %q", call.name)
		}
	}
}

func TestBuildIncrementalSkipsUnchangedPages(t *testing.T) {
	ctx := context.Background()
	renderer := &recordingRenderer{}
	store := &recordingStorage{}
	svc := newTestService(t, Config{
		OutputDir:   "public",
		BaseURL:     "https://example.com",
		Incremental: true,
	}, renderer, store)

	if _, err := svc.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("first build: %v", err)
	}

	result, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if result.PagesBuilt != 0 {
		t.Fatalf("expected no pages rebuilt, got %d", result.PagesBuilt)
	}
	if result.PagesSkipped != 3 {
		t.Fatalf("expected 3 pages skipped, got %d", result.PagesSkipped)
	}
}

func TestBuildDryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	renderer := &recordingRenderer{}
	store := &recordingStorage{}
	svc := newTestService(t, Config{
		OutputDir:       "public",
		GenerateSitemap: true,
	}, renderer, store)

	result, err := svc.Build(ctx, BuildOptions{DryRun: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !result.DryRun {
		t.Fatal("expected dry run result")
	}
	if result.PagesBuilt != 3 {
		t.Fatalf("expected 3 pages rendered, got %d", result.PagesBuilt)
	}
	if len(store.paths()) != 0 {
		t.Fatalf("expected no writes, got %v", store.paths())
	}
}

func TestBuildScopedToSlugSkipsListing(t *testing.T) {
	ctx := context.Background()
	renderer := &recordingRenderer{}
	store := &recordingStorage{}
	svc := newTestService(t, Config{OutputDir: "public"}, renderer, store)

	result, err := svc.Build(ctx, BuildOptions{Slugs: []string{"first-post"}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.PagesBuilt != 1 {
		t.Fatalf("expected 1 page built, got %d", result.PagesBuilt)
	}
	if _, ok := store.file("public/posts/first-post/index.html"); !ok {
		t.Fatalf("expected scoped post output, files: %v", store.paths())
	}
	if _, ok := store.file("public/index.html"); ok {
		t.Fatal("scoped build should not render the listing")
	}
}

func TestBuildUsesWorkerPool(t *testing.T) {
	ctx := context.Background()
	renderer := &recordingRenderer{delay: 2 * time.Millisecond}
	store := &recordingStorage{}
	svc := newTestService(t, Config{
		OutputDir: "public",
		Workers:   4,
	}, renderer, store)

	result, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.PagesBuilt != 3 {
		t.Fatalf("expected 3 pages built, got %d", result.PagesBuilt)
	}
}

func TestBuildRendererErrorAggregated(t *testing.T) {
	ctx := context.Background()
	renderer := &recordingRenderer{failTemplate: "post.tmpl"}
	store := &recordingStorage{}
	svc := newTestService(t, Config{OutputDir: "public"}, renderer, store)

	result, err := svc.Build(ctx, BuildOptions{})
	if err == nil {
		t.Fatal("expected build error")
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected errors in result")
	}
	// Listing still renders even when post pages fail.
	if result.PagesBuilt != 1 {
		t.Fatalf("expected listing page built, got %d", result.PagesBuilt)
	}
	if _, ok := store.file("public/.blog-manifest.json"); ok {
		t.Fatal("manifest must not persist on failed builds")
	}
}

func TestCleanRemovesOutput(t *testing.T) {
	ctx := context.Background()
	renderer := &recordingRenderer{}
	store := &recordingStorage{}
	svc := newTestService(t, Config{OutputDir: "public"}, renderer, store)

	if _, err := svc.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := svc.Clean(ctx); err != nil {
		t.Fatalf("clean: %v", err)
	}
	if paths := store.paths(); len(paths) != 0 {
		t.Fatalf("expected empty output after clean, got %v", paths)
	}
}

func TestDisabledService(t *testing.T) {
	svc := NewDisabledService()
	if _, err := svc.Build(context.Background(), BuildOptions{}); !errors.Is(err, ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
	if err := svc.Clean(context.Background()); !errors.Is(err, ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
}

func newTestService(t *testing.T, cfg Config, renderer *recordingRenderer, store *recordingStorage) *service {
	t.Helper()

	index, err := posts.New(posts.Config{ContentDir: "testdata/content"})
	if err != nil {
		t.Fatalf("posts index: %v", err)
	}
	if err := index.Load(context.Background()); err != nil {
		t.Fatalf("load posts: %v", err)
	}

	svc := NewService(cfg, Dependencies{
		Posts:    index,
		Renderer: renderer,
		Storage:  store,
	}).(*service)
	return svc
}

type renderCall struct {
	name string
	ctx  TemplateContext
}

type recordingRenderer struct {
	mu           sync.Mutex
	calls        []renderCall
	delay        time.Duration
	failTemplate string
}

func (r *recordingRenderer) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	templateCtx, _ := data.(TemplateContext)
	r.mu.Lock()
	r.calls = append(r.calls, renderCall{name: name, ctx: templateCtx})
	r.mu.Unlock()
	if r.failTemplate != "" && name == r.failTemplate {
		return "", fmt.Errorf("boom")
	}
	return "<html>" + name + "</html>", nil
}

func (r *recordingRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	return r.RenderTemplate(name, data, out...)
}

func (r *recordingRenderer) RenderString(content string, _ any, _ ...io.Writer) (string, error) {
	return content, nil
}

func (r *recordingRenderer) RegisterFilter(string, func(any, any) (any, error)) error { return nil }

func (r *recordingRenderer) GlobalContext(any) error { return nil }

func (r *recordingRenderer) Calls() []renderCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]renderCall(nil), r.calls...)
}

type recordingStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (s *recordingStorage) Exec(_ context.Context, op string, args ...any) (storage.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch op {
	case storage.OpWrite:
		if len(args) >= 2 {
			if target, ok := args[0].(string); ok {
				if reader, ok := args[1].(io.Reader); ok && reader != nil {
					data, err := io.ReadAll(reader)
					if err == nil {
						if s.files == nil {
							s.files = map[string][]byte{}
						}
						s.files[target] = append([]byte(nil), data...)
					}
				}
			}
		}
	case storage.OpRemove:
		if len(args) >= 1 {
			if target, ok := args[0].(string); ok {
				for path := range s.files {
					if path == target || strings.HasPrefix(path, strings.TrimRight(target, "/")+"/") {
						delete(s.files, path)
					}
				}
			}
		}
	}
	return noopResult{}, nil
}

func (s *recordingStorage) Query(_ context.Context, op string, args ...any) (storage.Rows, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if op == storage.OpRead && len(args) > 0 {
		if target, ok := args[0].(string); ok {
			if data, ok := s.files[target]; ok {
				return &bufferedRows{data: append([]byte(nil), data...)}, nil
			}
		}
	}
	return nil, nil
}

func (s *recordingStorage) Transaction(_ context.Context, fn func(tx storage.Transaction) error) error {
	if fn == nil {
		return nil
	}
	return fn(&recordingTx{storage: s})
}

func (s *recordingStorage) file(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	return data, ok
}

func (s *recordingStorage) paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.files))
	for path := range s.files {
		out = append(out, path)
	}
	return out
}

type recordingTx struct {
	storage *recordingStorage
}

func (tx *recordingTx) Exec(ctx context.Context, op string, args ...any) (storage.Result, error) {
	return tx.storage.Exec(ctx, op, args...)
}

func (tx *recordingTx) Query(ctx context.Context, op string, args ...any) (storage.Rows, error) {
	return tx.storage.Query(ctx, op, args...)
}

func (tx *recordingTx) Transaction(context.Context, func(storage.Transaction) error) error {
	return fmt.Errorf("nested transactions not supported")
}

func (recordingTx) Commit() error   { return nil }
func (recordingTx) Rollback() error { return nil }

type noopResult struct{}

func (noopResult) RowsAffected() (int64, error) { return 0, nil }
func (noopResult) LastInsertId() (int64, error) { return 0, nil }

type bufferedRows struct {
	data []byte
	read bool
}

func (r *bufferedRows) Next() bool {
	if r.read {
		return false
	}
	r.read = true
	return true
}

func (r *bufferedRows) Scan(dest ...any) error {
	if len(dest) == 0 {
		return fmt.Errorf("scan requires destination")
	}
	target, ok := dest[0].(*[]byte)
	if !ok {
		return fmt.Errorf("scan expects *[]byte destination")
	}
	*target = append((*target)[:0], r.data...)
	return nil
}

func (r *bufferedRows) Close() error { return nil }
