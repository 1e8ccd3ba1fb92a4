package posts

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-blog/internal/identity"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/validation"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Config controls how the index discovers and materialises posts.
type Config struct {
	// ContentDir is the directory containing Markdown post files.
	ContentDir string
	// Pattern limits discovered files (defaults to "*.md").
	Pattern string
	// Recursive controls whether sub-directories are traversed.
	Recursive bool
	// IncludeDrafts keeps posts marked draft in the index.
	IncludeDrafts bool
	// Workers bounds the parse worker pool; zero means NumCPU.
	Workers int
	// Parser customises Markdown rendering.
	Parser interfaces.ParseOptions
	// MetadataSchema optionally validates custom front matter keys against a
	// JSON schema document.
	MetadataSchema map[string]any
}

// Index is an explicit, constructed view over a directory of Markdown posts.
// Load must be called before lookups; the index holds no global state so
// callers can build several indexes side by side.
type Index struct {
	cfg      Config
	markdown *markdown.Service
	schema   *validation.MetadataSchema
	logger   interfaces.Logger

	mu     sync.RWMutex
	loaded bool
	posts  []*Post
	bySlug map[string]*Post
}

// Option configures an Index at construction time.
type Option func(*Index)

// WithLogger attaches a module-scoped logger from the given provider.
func WithLogger(provider interfaces.LoggerProvider) Option {
	return func(ix *Index) {
		ix.logger = logging.PostsLogger(provider)
	}
}

// WithMarkdownService overrides the filesystem-backed Markdown service.
func WithMarkdownService(svc *markdown.Service) Option {
	return func(ix *Index) {
		if svc != nil {
			ix.markdown = svc
		}
	}
}

// New constructs an Index over cfg.ContentDir. The directory must exist; an
// empty directory yields a valid empty index after Load.
func New(cfg Config, opts ...Option) (*Index, error) {
	if strings.TrimSpace(cfg.ContentDir) == "" {
		return nil, fmt.Errorf("posts: content dir is required")
	}
	schema, err := validation.Compile(cfg.MetadataSchema)
	if err != nil {
		return nil, fmt.Errorf("posts: metadata schema: %w", err)
	}

	ix := &Index{
		cfg:    cfg,
		schema: schema,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(ix)
	}

	if ix.markdown == nil {
		svc, err := markdown.NewService(markdown.Config{
			BasePath:  cfg.ContentDir,
			Pattern:   cfg.Pattern,
			Recursive: cfg.Recursive,
			Parser:    cfg.Parser,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("posts: %w", err)
		}
		ix.markdown = svc
	}

	return ix, nil
}

type loadOutcome struct {
	post *Post
	err  error
}

// Load scans the content directory, parses every matching file, and replaces
// the index contents. Parsing runs on a bounded worker pool; every failing
// file is reported, joined into a single error, and the previous index state
// is left untouched on failure.
func (ix *Index) Load(ctx context.Context) error {
	files, err := ix.markdown.Loader().ListFiles(ctx, ".", markdown.LoadParams{})
	if err != nil {
		return fmt.Errorf("posts: list content dir: %w", err)
	}

	ix.logger.Debug("index.load.start", "files", len(files))

	outcomes := make([]loadOutcome, len(files))
	workers := ix.effectiveWorkerCount(len(files))

	if workers <= 1 {
		for i, file := range files {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			outcomes[i] = ix.loadFile(ctx, file)
		}
	} else {
		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					select {
					case <-ctx.Done():
						outcomes[i] = loadOutcome{err: ctx.Err()}
					default:
						outcomes[i] = ix.loadFile(ctx, files[i])
					}
				}
			}()
		}
		for i := range files {
			select {
			case <-ctx.Done():
				close(jobs)
				wg.Wait()
				return ctx.Err()
			case jobs <- i:
			}
		}
		close(jobs)
		wg.Wait()
	}

	var errs []error
	ordered := make([]*Post, 0, len(files))
	bySlug := make(map[string]*Post, len(files))

	for _, outcome := range outcomes {
		if outcome.err != nil {
			errs = append(errs, outcome.err)
			continue
		}
		post := outcome.post
		if post == nil {
			continue
		}
		if existing, ok := bySlug[post.Slug]; ok {
			errs = append(errs, &DuplicateSlugError{
				Slug:     post.Slug,
				File:     post.SourcePath,
				Existing: existing.SourcePath,
			})
			continue
		}
		bySlug[post.Slug] = post
		ordered = append(ordered, post)
	}

	if len(errs) > 0 {
		ix.logger.Error("index.load.failed", "errors", len(errs))
		return errors.Join(errs...)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.After(ordered[j].Date)
		}
		// Equal dates order by filename ascending; the full source path only
		// breaks ties between identical filenames in different directories.
		left, right := filepath.Base(ordered[i].SourcePath), filepath.Base(ordered[j].SourcePath)
		if left != right {
			return left < right
		}
		return ordered[i].SourcePath < ordered[j].SourcePath
	})

	ix.mu.Lock()
	ix.posts = ordered
	ix.bySlug = bySlug
	ix.loaded = true
	ix.mu.Unlock()

	ix.logger.Info("index.load.done", "posts", len(ordered))
	return nil
}

// GetBySlug returns the post registered under slug. The lookup is exact; use
// ListSlugs to enumerate valid keys.
func (ix *Index) GetBySlug(slugValue string) (*Post, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if !ix.loaded {
		return nil, ErrNotLoaded
	}
	post, ok := ix.bySlug[slugValue]
	if !ok {
		return nil, &NotFoundError{Slug: slugValue}
	}
	return post, nil
}

// ListSlugs returns every slug in index order (date descending, filename
// ascending on ties).
func (ix *Index) ListSlugs() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	slugs := make([]string, 0, len(ix.posts))
	for _, post := range ix.posts {
		slugs = append(slugs, post.Slug)
	}
	return slugs
}

// Posts returns the ordered posts. The slice is shared; callers must not
// mutate it.
func (ix *Index) Posts() []*Post {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.posts
}

// Loaded reports whether a successful Load has completed.
func (ix *Index) Loaded() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.loaded
}

// Len reports how many posts the index holds.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.posts)
}

func (ix *Index) loadFile(ctx context.Context, file string) loadOutcome {
	doc, err := ix.markdown.Load(ctx, file, interfaces.LoadOptions{Parser: ix.cfg.Parser})
	if err != nil {
		var fieldErr *markdown.FieldError
		if errors.As(err, &fieldErr) {
			return loadOutcome{err: &ParseError{File: file, Field: fieldErr.Field, Err: fieldErr.Err}}
		}
		return loadOutcome{err: &ParseError{File: file, Err: err}}
	}

	fm := doc.FrontMatter
	if fm.Draft && !ix.cfg.IncludeDrafts {
		ix.logger.Debug("index.load.skip_draft", "file", file)
		return loadOutcome{}
	}

	if errs := validateFrontMatter(file, fm); len(errs) > 0 {
		return loadOutcome{err: errors.Join(errs...)}
	}

	slugValue, err := resolveSlug(file, fm.Slug)
	if err != nil {
		return loadOutcome{err: &ParseError{File: file, Field: "slug", Err: err}}
	}

	if err := ix.schema.Validate(fm.Custom); err != nil {
		return loadOutcome{err: &ParseError{File: file, Field: "custom", Err: err}}
	}

	post := &Post{
		ID:         identity.PostUUID(slugValue),
		Slug:       slugValue,
		Title:      fm.Title,
		Excerpt:    fm.Excerpt,
		CoverImage: fm.CoverImage,
		OGImage:    fm.OGImage.URL,
		Date:       fm.Date,
		Author: Author{
			ID:      identity.AuthorUUID(fm.Author.Name),
			Name:    fm.Author.Name,
			Picture: fm.Author.Picture,
		},
		Tags:         append([]string(nil), fm.Tags...),
		Draft:        fm.Draft,
		Body:         doc.Body,
		BodyHTML:     doc.BodyHTML,
		Custom:       fm.Custom,
		SourcePath:   doc.FilePath,
		Checksum:     doc.Checksum,
		LastModified: doc.LastModified,
	}
	return loadOutcome{post: post}
}

func (ix *Index) effectiveWorkerCount(fileCount int) int {
	workers := ix.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if fileCount > 0 && workers > fileCount {
		workers = fileCount
	}
	return workers
}

// resolveSlug prefers an explicit front matter slug over the filename stem,
// normalising either through go-slug so route segments stay URL-safe.
func resolveSlug(file, explicit string) (string, error) {
	source := strings.TrimSpace(explicit)
	if source == "" {
		base := filepath.Base(file)
		source = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if source == "" {
		return "", ErrSlugRequired
	}

	normalized, err := slug.Normalize(source)
	if err != nil || normalized == "" {
		return "", fmt.Errorf("%w: %q", ErrSlugInvalid, source)
	}
	if !slug.IsValid(normalized) {
		return "", fmt.Errorf("%w: %q", ErrSlugInvalid, source)
	}
	return normalized, nil
}
