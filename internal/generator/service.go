package generator

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-blog/internal/images"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/pkg/interfaces"
	"github.com/goliatone/go-blog/pkg/storage"
	gotheme "github.com/goliatone/go-theme"
	urlkit "github.com/goliatone/go-urlkit"
)

var (
	// ErrServiceDisabled indicates the generator feature is disabled.
	ErrServiceDisabled  = errors.New("generator: service disabled")
	errRendererRequired = errors.New("generator: template renderer is required")
)

// Service describes the static site generator contract.
type Service interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
	Clean(ctx context.Context) error
}

// Config captures runtime behaviour toggles for the generator.
type Config struct {
	OutputDir       string
	BaseURL         string
	SiteTitle       string
	SiteDescription string
	Language        string
	CleanBuild      bool
	Incremental     bool
	CopyAssets      bool
	ProcessImages   bool
	GenerateSitemap bool
	GenerateRobots  bool
	GenerateFeeds   bool
	Workers         int
	ImagesDir       string
	PostTemplate    string
	IndexTemplate   string
	Theme           string
	ThemeVariant    string
	Theming         ThemingConfig
}

// BuildOptions narrows the scope of a generator run.
type BuildOptions struct {
	Slugs  []string
	DryRun bool
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	PagesBuilt    int
	PagesSkipped  int
	AssetsBuilt   int
	AssetsSkipped int
	ImagesBuilt   int
	ImagesSkipped int
	Duration      time.Duration
	Rendered      []RenderedPage
	Diagnostics   []RenderDiagnostic
	Errors        []error
	DryRun        bool
}

// Dependencies lists the services required by the generator.
type Dependencies struct {
	Posts    *posts.Index
	Renderer interfaces.TemplateRenderer
	Storage  interfaces.StorageProvider
	Assets   AssetResolver
	Images   *images.Processor
	Routes   *urlkit.RouteManager
	Logger   interfaces.LoggerProvider
}

// NewService wires a generator implementation with the provided configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	return &service{
		cfg:      cfg,
		deps:     deps,
		routes:   newRouteResolver(deps.Routes),
		selector: newThemeSelector(cfg.Theming, nil),
		logger:   logging.GeneratorLogger(deps.Logger),
		now:      time.Now,
	}
}

// NewDisabledService returns a Service that fails all operations with ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

type service struct {
	cfg      Config
	deps     Dependencies
	routes   *routeResolver
	selector *themeSelector
	logger   interfaces.Logger
	now      func() time.Time
}

type disabledService struct{}

func (s *service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.deps.Renderer == nil {
		return nil, errRendererRequired
	}

	start := time.Now()
	buildCtx, err := s.loadContext(ctx, opts)
	if err != nil {
		return nil, err
	}

	s.logger.Info("static build started",
		"posts", len(buildCtx.Posts),
		"dry_run", opts.DryRun,
		"incremental", s.cfg.Incremental,
	)

	result := &BuildResult{
		DryRun:      opts.DryRun,
		Diagnostics: make([]RenderDiagnostic, 0, len(buildCtx.Posts)+1),
	}

	siteMeta := SiteMetadata{
		Title:       strings.TrimSpace(s.cfg.SiteTitle),
		Description: strings.TrimSpace(s.cfg.SiteDescription),
		BaseURL:     strings.TrimRight(s.cfg.BaseURL, "/"),
		Language:    strings.TrimSpace(s.cfg.Language),
		Metadata:    map[string]any{},
	}

	var (
		mu          sync.Mutex
		rendered    = make([]RenderedPage, 0, len(buildCtx.Posts)+1)
		errorsSlice []error
		baseDir     = strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
		pageKeys    = map[string]struct{}{}
	)

	if s.cfg.CleanBuild && !opts.DryRun {
		if err := s.cleanOutput(ctx); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	selection, selectionErr := s.themeSelection()
	if selectionErr != nil {
		errorsSlice = append(errorsSlice, selectionErr)
	}
	themeCtx := buildThemeContext(selection, s.cfg.Theming)

	manifest, manifestErr := s.loadManifest(ctx)
	if manifestErr != nil {
		errorsSlice = append(errorsSlice, manifestErr)
	}
	if manifest == nil {
		manifest = newBuildManifest()
	}

	collect := func(outcome renderOutcome) {
		mu.Lock()
		defer mu.Unlock()
		result.Diagnostics = append(result.Diagnostics, outcome.diagnostic)
		if route := strings.TrimSpace(outcome.diagnostic.Route); route != "" {
			pageKeys[manifest.pageKey(route)] = struct{}{}
		}
		if outcome.err != nil {
			errorsSlice = append(errorsSlice, outcome.err)
			return
		}
		if outcome.skipped {
			result.PagesSkipped++
			return
		}
		result.PagesBuilt++
		rendered = append(rendered, outcome.page)
	}

	workerCount := s.effectiveWorkerCount(len(buildCtx.Posts))
	if workerCount <= 1 || len(buildCtx.Posts) <= 1 {
		for _, post := range buildCtx.Posts {
			select {
			case <-ctx.Done():
				collect(renderOutcome{
					diagnostic: RenderDiagnostic{
						Slug:  post.Slug,
						Route: buildCtx.Routes[post.Slug],
						Err:   ctx.Err(),
					},
					err: ctx.Err(),
				})
				return result, ctx.Err()
			default:
				collect(s.renderPost(ctx, siteMeta, themeCtx, buildCtx, post, manifest, baseDir))
			}
		}
	} else {
		if err := s.renderConcurrently(ctx, siteMeta, themeCtx, buildCtx, workerCount, manifest, baseDir, collect); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	// The listing page depends on every post, render it after the pool drains.
	if len(opts.Slugs) == 0 {
		collect(s.renderListing(ctx, siteMeta, themeCtx, buildCtx, manifest, baseDir))
	}

	if opts.DryRun {
		result.Rendered = rendered
		result.Duration = time.Since(start)
		if len(errorsSlice) > 0 {
			result.Errors = append(result.Errors, errorsSlice...)
			return result, errors.Join(errorsSlice...)
		}
		return result, nil
	}

	writer := newArtifactWriter(s.deps.Storage)
	if err := s.persistPages(ctx, writer, rendered); err != nil {
		errorsSlice = append(errorsSlice, err)
	}

	if s.cfg.CopyAssets {
		assetSummary, err := s.copyAssets(ctx, writer, selection, manifest, baseDir)
		if err != nil {
			errorsSlice = append(errorsSlice, err)
		} else {
			result.AssetsBuilt += assetSummary.Built
			result.AssetsSkipped += assetSummary.Skipped
		}
	}

	if s.cfg.ProcessImages {
		imageSummary, err := s.processImages(ctx, writer, manifest, baseDir)
		if err != nil {
			errorsSlice = append(errorsSlice, err)
		} else {
			result.ImagesBuilt += imageSummary.Built
			result.ImagesSkipped += imageSummary.Skipped
		}
	}

	if s.cfg.GenerateSitemap {
		sitemapPages := s.mergeRenderedForSitemap(buildCtx, rendered, manifest)
		if err := s.writeSitemap(ctx, writer, siteMeta, buildCtx, sitemapPages); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if s.cfg.GenerateRobots {
		if err := s.writeRobots(ctx, writer, siteMeta); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if s.cfg.GenerateFeeds {
		if err := s.writeFeeds(ctx, writer, siteMeta, buildCtx); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if len(errorsSlice) == 0 {
		manifest.GeneratedAt = buildCtx.GeneratedAt
		for _, page := range rendered {
			if strings.TrimSpace(page.Checksum) == "" {
				continue
			}
			manifest.setPage(manifestPage{
				Slug:         page.Slug,
				Route:        page.Route,
				Output:       page.Output,
				Template:     page.Template,
				Hash:         page.Hash,
				Checksum:     page.Checksum,
				LastModified: page.LastModified,
				RenderedAt:   buildCtx.GeneratedAt,
			})
		}
		if len(opts.Slugs) == 0 {
			manifest.prunePages(pageKeys)
		}
		if err := s.persistManifest(ctx, writer, manifest); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	result.Rendered = rendered
	result.Duration = time.Since(start)
	if len(errorsSlice) > 0 {
		result.Errors = append(result.Errors, errorsSlice...)
		s.logger.Error("static build finished with errors",
			"pages_built", result.PagesBuilt,
			"errors", len(errorsSlice),
		)
		return result, errors.Join(errorsSlice...)
	}
	s.logger.Info("static build finished",
		"pages_built", result.PagesBuilt,
		"pages_skipped", result.PagesSkipped,
		"assets_built", result.AssetsBuilt,
		"duration", result.Duration.String(),
	)
	return result, nil
}

func (s *service) Clean(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.cleanOutput(ctx)
}

func (s *service) cleanOutput(ctx context.Context) error {
	if s.deps.Storage == nil {
		return nil
	}
	target := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	if target == "" {
		return nil
	}
	if _, err := s.deps.Storage.Exec(ctx, storage.OpRemove, target); err != nil {
		return fmt.Errorf("generator: clean output: %w", err)
	}
	return nil
}

func (s *service) themeSelection() (*gotheme.Selection, error) {
	name := strings.TrimSpace(s.cfg.Theme)
	if name == "" && strings.TrimSpace(s.cfg.Theming.DefaultTheme) == "" {
		return nil, nil
	}
	return s.selector.Selection(name, s.cfg.ThemeVariant)
}

func (s *service) renderConcurrently(
	ctx context.Context,
	siteMeta SiteMetadata,
	themeCtx ThemeContext,
	buildCtx *BuildContext,
	workers int,
	manifest *buildManifest,
	baseDir string,
	collect func(renderOutcome),
) error {
	jobs := make(chan *posts.Post)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for post := range jobs {
				select {
				case <-ctx.Done():
					collect(renderOutcome{
						diagnostic: RenderDiagnostic{
							Slug:  post.Slug,
							Route: buildCtx.Routes[post.Slug],
							Err:   ctx.Err(),
						},
						err: ctx.Err(),
					})
					return
				default:
					collect(s.renderPost(ctx, siteMeta, themeCtx, buildCtx, post, manifest, baseDir))
				}
			}
		}()
	}

	for _, post := range buildCtx.Posts {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- post:
		}
	}
	close(jobs)
	wg.Wait()
	return nil
}

func (s *service) renderPost(
	ctx context.Context,
	siteMeta SiteMetadata,
	themeCtx ThemeContext,
	buildCtx *BuildContext,
	post *posts.Post,
	manifest *buildManifest,
	baseDir string,
) renderOutcome {
	route := buildCtx.Routes[post.Slug]
	outcome := renderOutcome{
		diagnostic: RenderDiagnostic{
			Slug:  post.Slug,
			Route: route,
		},
	}

	select {
	case <-ctx.Done():
		outcome.err = ctx.Err()
		outcome.diagnostic.Err = ctx.Err()
		return outcome
	default:
	}

	templateName := s.postTemplate()
	outcome.diagnostic.Template = templateName

	hash := contentHash(post)
	if s.cfg.Incremental && manifest != nil {
		expectedOutput := joinOutputPath(baseDir, buildOutputPath(route))
		if manifest.shouldSkipPage(route, hash, expectedOutput) {
			outcome.skipped = true
			outcome.diagnostic.Skipped = true
			return outcome
		}
	}

	templateCtx := TemplateContext{
		Site: siteMeta,
		Post: &PostRenderingContext{
			Post:  post,
			Route: route,
			HTML:  template.HTML(post.BodyHTML),
		},
		Build: BuildMetadata{
			GeneratedAt: buildCtx.GeneratedAt,
			Options:     buildCtx.Options,
		},
		Theme:   themeCtx,
		Helpers: newTemplateHelpers(siteMeta.BaseURL),
	}

	start := time.Now()
	renderedHTML, err := s.deps.Renderer.RenderTemplate(templateName, templateCtx)
	duration := time.Since(start)
	outcome.diagnostic.Duration = duration
	if err != nil {
		wrapped := fmt.Errorf("generator: render template %q for post %s: %w", templateName, post.Slug, err)
		outcome.err = wrapped
		outcome.diagnostic.Err = wrapped
		return outcome
	}

	outcome.page = RenderedPage{
		Slug:         post.Slug,
		Route:        route,
		Template:     templateName,
		HTML:         renderedHTML,
		Hash:         hash,
		LastModified: post.LastModified,
		Duration:     duration,
	}
	return outcome
}

func (s *service) renderListing(
	ctx context.Context,
	siteMeta SiteMetadata,
	themeCtx ThemeContext,
	buildCtx *BuildContext,
	manifest *buildManifest,
	baseDir string,
) renderOutcome {
	const route = "/"
	outcome := renderOutcome{
		diagnostic: RenderDiagnostic{Route: route},
	}

	select {
	case <-ctx.Done():
		outcome.err = ctx.Err()
		outcome.diagnostic.Err = ctx.Err()
		return outcome
	default:
	}

	templateName := s.indexTemplate()
	outcome.diagnostic.Template = templateName

	hash := listingHash(buildCtx.Posts)
	if s.cfg.Incremental && manifest != nil {
		expectedOutput := joinOutputPath(baseDir, buildOutputPath(route))
		if manifest.shouldSkipPage(route, hash, expectedOutput) {
			outcome.skipped = true
			outcome.diagnostic.Skipped = true
			return outcome
		}
	}

	listing := &ListingContext{
		Posts:  make([]*PostRenderingContext, 0, len(buildCtx.Posts)),
		Routes: buildCtx.Routes,
	}
	var lastModified time.Time
	for _, post := range buildCtx.Posts {
		listing.Posts = append(listing.Posts, &PostRenderingContext{
			Post:  post,
			Route: buildCtx.Routes[post.Slug],
			HTML:  template.HTML(post.BodyHTML),
		})
		if post.LastModified.After(lastModified) {
			lastModified = post.LastModified
		}
	}

	templateCtx := TemplateContext{
		Site:    siteMeta,
		Listing: listing,
		Build: BuildMetadata{
			GeneratedAt: buildCtx.GeneratedAt,
			Options:     buildCtx.Options,
		},
		Theme:   themeCtx,
		Helpers: newTemplateHelpers(siteMeta.BaseURL),
	}

	start := time.Now()
	renderedHTML, err := s.deps.Renderer.RenderTemplate(templateName, templateCtx)
	duration := time.Since(start)
	outcome.diagnostic.Duration = duration
	if err != nil {
		wrapped := fmt.Errorf("generator: render template %q for listing: %w", templateName, err)
		outcome.err = wrapped
		outcome.diagnostic.Err = wrapped
		return outcome
	}

	outcome.page = RenderedPage{
		Route:        route,
		Template:     templateName,
		HTML:         renderedHTML,
		Hash:         hash,
		LastModified: lastModified,
		Duration:     duration,
	}
	return outcome
}

func (s *service) persistPages(
	ctx context.Context,
	writer artifactWriter,
	pages []RenderedPage,
) error {
	if len(pages) == 0 {
		return nil
	}
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	dirCache := map[string]struct{}{}
	if baseDir != "" {
		dirCache[baseDir] = struct{}{}
		if err := writer.EnsureDir(ctx, baseDir); err != nil {
			return err
		}
	}
	for i := range pages {
		route := pages[i].Route
		destRel := buildOutputPath(route)
		fullPath := joinOutputPath(baseDir, destRel)
		if err := ensureDir(ctx, writer, dirCache, path.Dir(fullPath)); err != nil {
			return err
		}
		checksum := computeHashFromString(pages[i].HTML)
		pages[i].Output = fullPath
		pages[i].Checksum = checksum

		metadata := map[string]string{
			"route":    route,
			"template": pages[i].Template,
		}
		if pages[i].Slug != "" {
			metadata["slug"] = pages[i].Slug
		}
		if s.cfg.Incremental {
			metadata["incremental"] = "true"
		}
		req := writeFileRequest{
			Path:        fullPath,
			Content:     strings.NewReader(pages[i].HTML),
			Size:        int64(len(pages[i].HTML)),
			Category:    categoryPage,
			ContentType: "text/html; charset=utf-8",
			Checksum:    checksum,
			Metadata:    metadata,
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

type copySummary struct {
	Built   int
	Skipped int
}

func (s *service) copyAssets(
	ctx context.Context,
	writer artifactWriter,
	selection *gotheme.Selection,
	manifest *buildManifest,
	baseDir string,
) (copySummary, error) {
	summary := copySummary{}
	if s.deps.Assets == nil || selection == nil {
		return summary, nil
	}
	dirCache := map[string]struct{}{}
	if baseDir != "" {
		dirCache[baseDir] = struct{}{}
		if err := writer.EnsureDir(ctx, baseDir); err != nil {
			return summary, err
		}
	}
	themePath := s.selector.themePath(selection.Theme)
	for _, asset := range collectThemeAssets(selection) {
		reader, err := s.deps.Assets.Open(ctx, themePath, asset)
		if err != nil {
			return summary, err
		}
		data, err := io.ReadAll(reader)
		_ = reader.Close()
		if err != nil {
			return summary, err
		}
		resolved, err := s.deps.Assets.ResolvePath(themePath, asset)
		if err != nil {
			return summary, err
		}
		resolved = strings.TrimLeft(strings.TrimSpace(resolved), "/")
		if resolved == "" {
			resolved = strings.TrimLeft(strings.TrimSpace(asset), "/")
		}
		destRel := path.Join("assets", resolved)
		fullPath := joinOutputPath(baseDir, destRel)
		checksum := computeHash(data)
		if manifest != nil && s.cfg.Incremental && manifest.shouldSkipAsset(asset, checksum, fullPath) {
			summary.Skipped++
			continue
		}
		if err := ensureDir(ctx, writer, dirCache, path.Dir(fullPath)); err != nil {
			return summary, err
		}
		req := writeFileRequest{
			Path:        fullPath,
			Content:     bytes.NewReader(data),
			Size:        int64(len(data)),
			Category:    categoryAsset,
			ContentType: detectAssetContentType(destRel),
			Checksum:    checksum,
			Metadata: map[string]string{
				"theme": selection.Theme,
				"asset": asset,
			},
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return summary, err
		}
		summary.Built++
		if manifest != nil {
			manifest.setAsset(manifestAsset{
				Key:      manifest.assetKey(asset),
				Source:   asset,
				Output:   fullPath,
				Checksum: checksum,
				Size:     int64(len(data)),
				CopiedAt: s.now(),
			})
		}
	}
	return summary, nil
}

func (s *service) processImages(
	ctx context.Context,
	writer artifactWriter,
	manifest *buildManifest,
	baseDir string,
) (copySummary, error) {
	summary := copySummary{}
	imagesDir := strings.TrimSpace(s.cfg.ImagesDir)
	if imagesDir == "" {
		return summary, nil
	}
	if _, err := os.Stat(imagesDir); errors.Is(err, os.ErrNotExist) {
		return summary, nil
	}

	processor := s.deps.Images
	if processor == nil {
		processor = images.NewProcessor(images.Options{})
	}

	dirCache := map[string]struct{}{}
	return summary, filepath.WalkDir(imagesDir, func(filePath string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(imagesDir, filePath)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		data, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}
		sourceChecksum := computeHash(data)

		source := "image::" + rel
		destRel := path.Join("assets", "images", rel)
		fullPath := joinOutputPath(baseDir, destRel)
		if manifest != nil && s.cfg.Incremental && manifest.shouldSkipAsset(source, sourceChecksum, fullPath) {
			summary.Skipped++
			return nil
		}

		output := data
		ext := strings.ToLower(filepath.Ext(rel))
		if ext == ".jpg" || ext == ".jpeg" {
			processed, _, err := processor.ProcessBytes(data)
			if err != nil {
				return fmt.Errorf("generator: process image %s: %w", rel, err)
			}
			output = processed
		}

		if err := ensureDir(ctx, writer, dirCache, path.Dir(fullPath)); err != nil {
			return err
		}
		req := writeFileRequest{
			Path:        fullPath,
			Content:     bytes.NewReader(output),
			Size:        int64(len(output)),
			Category:    categoryImage,
			ContentType: detectAssetContentType(destRel),
			Checksum:    sourceChecksum,
			Metadata: map[string]string{
				"source": rel,
			},
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return err
		}
		summary.Built++
		if manifest != nil {
			manifest.setAsset(manifestAsset{
				Key:      source,
				Source:   source,
				Output:   fullPath,
				Checksum: sourceChecksum,
				Size:     int64(len(output)),
				CopiedAt: s.now(),
			})
		}
		return nil
	})
}

func (s *service) mergeRenderedForSitemap(
	buildCtx *BuildContext,
	rendered []RenderedPage,
	manifest *buildManifest,
) []RenderedPage {
	if buildCtx == nil || manifest == nil {
		return append([]RenderedPage(nil), rendered...)
	}

	renderedByRoute := make(map[string]RenderedPage, len(rendered))
	for _, page := range rendered {
		renderedByRoute[manifest.pageKey(page.Route)] = page
	}

	routes := make([]string, 0, len(buildCtx.Posts)+1)
	routes = append(routes, "/")
	for _, post := range buildCtx.Posts {
		routes = append(routes, buildCtx.Routes[post.Slug])
	}

	sitemap := make([]RenderedPage, 0, len(routes))
	for _, route := range routes {
		key := manifest.pageKey(route)
		if page, ok := renderedByRoute[key]; ok {
			sitemap = append(sitemap, page)
			continue
		}
		if entry, ok := manifest.lookupPage(route); ok {
			sitemap = append(sitemap, RenderedPage{
				Slug:         entry.Slug,
				Route:        entry.Route,
				Output:       entry.Output,
				Template:     entry.Template,
				Hash:         entry.Hash,
				Checksum:     entry.Checksum,
				LastModified: entry.LastModified,
			})
			continue
		}
		sitemap = append(sitemap, RenderedPage{Route: route})
	}
	return sitemap
}

func (s *service) loadManifest(ctx context.Context) (*buildManifest, error) {
	if s.deps.Storage == nil {
		return newBuildManifest(), nil
	}
	target := s.manifestTargetPath()
	if strings.TrimSpace(target) == "" {
		return newBuildManifest(), nil
	}
	rows, err := s.deps.Storage.Query(ctx, storage.OpRead, target)
	if err != nil {
		return nil, fmt.Errorf("generator: read manifest: %w", err)
	}
	if rows == nil {
		return newBuildManifest(), nil
	}
	defer rows.Close()
	if !rows.Next() {
		return newBuildManifest(), nil
	}
	var data []byte
	if err := rows.Scan(&data); err != nil {
		return nil, fmt.Errorf("generator: scan manifest: %w", err)
	}
	return parseManifest(data)
}

func (s *service) manifestTargetPath() string {
	base := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	return joinOutputPath(base, manifestFileName)
}

func (s *service) persistManifest(ctx context.Context, writer artifactWriter, manifest *buildManifest) error {
	if manifest == nil {
		return nil
	}
	data, err := manifest.marshal()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	target := s.manifestTargetPath()
	if strings.TrimSpace(target) == "" {
		return nil
	}
	if err := ensureDir(ctx, writer, map[string]struct{}{}, path.Dir(target)); err != nil {
		return err
	}
	metadata := map[string]string{
		"version": strconv.Itoa(manifest.Version),
	}
	if !manifest.GeneratedAt.IsZero() {
		metadata["generated_at"] = manifest.GeneratedAt.UTC().Format(time.RFC3339)
	}
	req := writeFileRequest{
		Path:        target,
		Content:     bytes.NewReader(data),
		Size:        int64(len(data)),
		Category:    categoryManifest,
		ContentType: "application/json",
		Checksum:    computeHash(data),
		Metadata:    metadata,
	}
	return writer.WriteFile(ctx, req)
}

func (s *service) writeSitemap(
	ctx context.Context,
	writer artifactWriter,
	siteMeta SiteMetadata,
	buildCtx *BuildContext,
	pages []RenderedPage,
) error {
	content := buildSitemap(siteMeta.BaseURL, pages, buildCtx.GeneratedAt)
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	fullPath := joinOutputPath(baseDir, "sitemap.xml")
	if err := ensureDir(ctx, writer, map[string]struct{}{}, path.Dir(fullPath)); err != nil {
		return err
	}
	req := writeFileRequest{
		Path:        fullPath,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    categorySitemap,
		ContentType: "application/xml",
		Checksum:    computeHashFromString(content),
		Metadata: map[string]string{
			"generated_at": buildCtx.GeneratedAt.UTC().Format(time.RFC3339),
		},
	}
	return writer.WriteFile(ctx, req)
}

func (s *service) writeRobots(
	ctx context.Context,
	writer artifactWriter,
	siteMeta SiteMetadata,
) error {
	content := buildRobots(siteMeta.BaseURL, s.cfg.GenerateSitemap)
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	fullPath := joinOutputPath(baseDir, "robots.txt")
	if err := ensureDir(ctx, writer, map[string]struct{}{}, path.Dir(fullPath)); err != nil {
		return err
	}
	req := writeFileRequest{
		Path:        fullPath,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    categoryRobots,
		ContentType: "text/plain; charset=utf-8",
		Checksum:    computeHashFromString(content),
		Metadata: map[string]string{
			"generated_at": s.now().UTC().Format(time.RFC3339),
		},
	}
	return writer.WriteFile(ctx, req)
}

func (s *service) writeFeeds(
	ctx context.Context,
	writer artifactWriter,
	siteMeta SiteMetadata,
	buildCtx *BuildContext,
) error {
	items := buildFeedItems(buildCtx.Posts, func(post *posts.Post) string {
		return absoluteURL(siteMeta.BaseURL, buildCtx.Routes[post.Slug])
	}, buildCtx.GeneratedAt)
	if len(items) == 0 {
		return nil
	}

	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	dirCache := map[string]struct{}{}

	rssContent := buildRSSFeed(siteMeta, items, buildCtx.GeneratedAt)
	rssPath := joinOutputPath(baseDir, "feed.xml")
	if err := ensureDir(ctx, writer, dirCache, path.Dir(rssPath)); err != nil {
		return err
	}
	if err := writer.WriteFile(ctx, writeFileRequest{
		Path:        rssPath,
		Content:     strings.NewReader(rssContent),
		Size:        int64(len(rssContent)),
		Category:    categoryFeed,
		ContentType: "application/rss+xml",
		Checksum:    computeHashFromString(rssContent),
		Metadata:    feedMetadata("rss", buildCtx.GeneratedAt),
	}); err != nil {
		return err
	}

	atomContent := buildAtomFeed(siteMeta, items, buildCtx.GeneratedAt)
	atomPath := joinOutputPath(baseDir, "feed.atom.xml")
	if err := ensureDir(ctx, writer, dirCache, path.Dir(atomPath)); err != nil {
		return err
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        atomPath,
		Content:     strings.NewReader(atomContent),
		Size:        int64(len(atomContent)),
		Category:    categoryFeed,
		ContentType: "application/atom+xml",
		Checksum:    computeHashFromString(atomContent),
		Metadata:    feedMetadata("atom", buildCtx.GeneratedAt),
	})
}

func feedMetadata(feedType string, generatedAt time.Time) map[string]string {
	return map[string]string{
		"generated_at": generatedAt.UTC().Format(time.RFC3339),
		"feed_type":    feedType,
	}
}

func (s *service) postTemplate() string {
	if name := strings.TrimSpace(s.cfg.PostTemplate); name != "" {
		return name
	}
	return "post.tmpl"
}

func (s *service) indexTemplate() string {
	if name := strings.TrimSpace(s.cfg.IndexTemplate); name != "" {
		return name
	}
	return "index.tmpl"
}

func (s *service) effectiveWorkerCount(postCount int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if postCount > 0 && workers > postCount {
		return postCount
	}
	return workers
}

func ensureDir(ctx context.Context, writer artifactWriter, cache map[string]struct{}, dir string) error {
	dir = strings.Trim(dir, " ")
	if dir == "" || dir == "." {
		return nil
	}
	if cache != nil {
		if _, ok := cache[dir]; ok {
			return nil
		}
		cache[dir] = struct{}{}
	}
	return writer.EnsureDir(ctx, dir)
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func computeHashFromString(content string) string {
	return computeHash([]byte(content))
}

func (disabledService) Build(context.Context, BuildOptions) (*BuildResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Clean(context.Context) error {
	return ErrServiceDisabled
}
