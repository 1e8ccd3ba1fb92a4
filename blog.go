package blog

import (
	"context"

	"github.com/goliatone/go-blog/internal/commands"
	sitecmd "github.com/goliatone/go-blog/internal/commands/site"
	"github.com/goliatone/go-blog/internal/di"
	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// GeneratorService exports the static site generator contract.
type GeneratorService = generator.Service

// BuildOptions exports the generator build options.
type BuildOptions = generator.BuildOptions

// BuildResult exports the generator build result.
type BuildResult = generator.BuildResult

// Post exports the post record produced by the content index.
type Post = posts.Post

// Author exports the author block attached to every post.
type Author = posts.Author

// Index exports the post index contract for consumers of the blog package.
type Index = posts.Index

// ErrPostNotFound re-exports the slug lookup miss sentinel.
var ErrPostNotFound = posts.ErrPostNotFound

// ErrServiceDisabled re-exports the generator feature gate sentinel.
var ErrServiceDisabled = generator.ErrServiceDisabled

// Option re-exports container options so hosts can override default bindings.
type Option = di.Option

// WithLoggerProvider overrides the default logger provider.
var WithLoggerProvider = di.WithLoggerProvider

// WithStorage overrides the artifact storage provider.
var WithStorage = di.WithStorage

// WithTemplate overrides the template renderer.
var WithTemplate = di.WithTemplate

// WithAssets overrides the theme asset resolver.
var WithAssets = di.WithAssets

// WithRouteManager overrides the go-urlkit route manager.
var WithRouteManager = di.WithRouteManager

// WithPostsIndex overrides the post index binding.
var WithPostsIndex = di.WithPostsIndex

// Module represents the top level blog runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a blog module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Posts returns the configured post index.
func (m *Module) Posts() *posts.Index {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.PostsIndex()
}

// Markdown returns the markdown service used for document loading and rendering.
func (m *Module) Markdown() *markdown.Service {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.MarkdownService()
}

// Generator returns the configured generator service.
func (m *Module) Generator() GeneratorService {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.GeneratorService()
}

// Logger returns the configured logger provider, nil when logging is disabled.
func (m *Module) Logger() interfaces.LoggerProvider {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.LoggerProvider()
}

// Load parses the content directory and populates the post index.
func (m *Module) Load(ctx context.Context) error {
	index := m.Posts()
	if index == nil {
		return posts.ErrIndexRequired
	}
	return index.Load(ctx)
}

// GetBySlug returns the post registered under slug. The index is loaded on
// first use.
func (m *Module) GetBySlug(ctx context.Context, slug string) (*posts.Post, error) {
	index := m.Posts()
	if index == nil {
		return nil, posts.ErrIndexRequired
	}
	if !index.Loaded() {
		if err := index.Load(ctx); err != nil {
			return nil, err
		}
	}
	return index.GetBySlug(slug)
}

// ListSlugs returns every slug in the index ordering (date descending).
func (m *Module) ListSlugs(ctx context.Context) ([]string, error) {
	index := m.Posts()
	if index == nil {
		return nil, posts.ErrIndexRequired
	}
	if !index.Loaded() {
		if err := index.Load(ctx); err != nil {
			return nil, err
		}
	}
	return index.ListSlugs(), nil
}

// BuildSite runs a generator build through the command layer so execution picks
// up validation, logging, and feature gating.
func (m *Module) BuildSite(ctx context.Context, msg sitecmd.BuildSiteCommand) error {
	handler := sitecmd.NewBuildSiteHandler(
		m.Generator(),
		commands.CommandLogger(m.Logger(), "site"),
		m.featureGates(),
	)
	return handler.Execute(ctx, msg)
}

// CleanSite removes generated artifacts through the command layer.
func (m *Module) CleanSite(ctx context.Context) error {
	handler := sitecmd.NewCleanSiteHandler(
		m.Generator(),
		commands.CommandLogger(m.Logger(), "site"),
		m.featureGates(),
	)
	return handler.Execute(ctx, sitecmd.CleanSiteCommand{})
}

// ReloadContent rescans the content directory and rebuilds the post index.
func (m *Module) ReloadContent(ctx context.Context) error {
	handler := sitecmd.NewReloadContentHandler(
		m.Posts(),
		commands.CommandLogger(m.Logger(), "site"),
	)
	return handler.Execute(ctx, sitecmd.ReloadContentCommand{})
}

func (m *Module) featureGates() sitecmd.FeatureGates {
	return sitecmd.FeatureGates{
		GeneratorEnabled: func() bool {
			if m == nil || m.container == nil {
				return false
			}
			return m.container.GeneratorEnabled()
		},
	}
}
