package di

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/images"
	"github.com/goliatone/go-blog/internal/logging/console"
	"github.com/goliatone/go-blog/internal/logging/gologger"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/runtimeconfig"
	"github.com/goliatone/go-blog/pkg/interfaces"
	storage "github.com/goliatone/go-blog/pkg/storage"
	urlkit "github.com/goliatone/go-urlkit"
)

// Container wires module dependencies for the blog runtime.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	storage        interfaces.StorageProvider
	renderer       interfaces.TemplateRenderer
	assets         generator.AssetResolver
	images         *images.Processor
	routeManager   *urlkit.RouteManager

	markdownSvc  *markdown.Service
	postsIndex   *posts.Index
	generatorSvc generator.Service
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the default logger provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithStorage overrides the default storage provider used for build artifacts.
func WithStorage(sp interfaces.StorageProvider) Option {
	return func(c *Container) {
		c.storage = sp
	}
}

// WithTemplate overrides the default template renderer.
func WithTemplate(tr interfaces.TemplateRenderer) Option {
	return func(c *Container) {
		c.renderer = tr
	}
}

// WithAssets overrides the default theme asset resolver.
func WithAssets(resolver generator.AssetResolver) Option {
	return func(c *Container) {
		c.assets = resolver
	}
}

// WithImages overrides the default image processor.
func WithImages(processor *images.Processor) Option {
	return func(c *Container) {
		c.images = processor
	}
}

// WithRouteManager overrides the default go-urlkit route manager.
func WithRouteManager(manager *urlkit.RouteManager) Option {
	return func(c *Container) {
		c.routeManager = manager
	}
}

// WithPostsIndex overrides the default post index binding.
func WithPostsIndex(index *posts.Index) Option {
	return func(c *Container) {
		c.postsIndex = index
	}
}

// WithGeneratorService overrides the default generator service binding.
func WithGeneratorService(svc generator.Service) Option {
	return func(c *Container) {
		c.generatorSvc = svc
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	if err := c.configureContent(); err != nil {
		return nil, err
	}
	if err := c.configureGenerator(); err != nil {
		return nil, err
	}

	return c, nil
}

// LoggerProvider exposes the configured logger provider. It is nil when the
// logging feature is disabled and no override was supplied.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Storage exposes the artifact storage provider.
func (c *Container) Storage() interfaces.StorageProvider {
	return c.storage
}

// Template exposes the template renderer used by the generator.
func (c *Container) Template() interfaces.TemplateRenderer {
	return c.renderer
}

// RouteManager exposes the go-urlkit route manager used for URL resolution.
func (c *Container) RouteManager() *urlkit.RouteManager {
	return c.routeManager
}

// MarkdownService returns the configured Markdown service.
func (c *Container) MarkdownService() *markdown.Service {
	return c.markdownSvc
}

// PostsIndex returns the configured post index.
func (c *Container) PostsIndex() *posts.Index {
	return c.postsIndex
}

// GeneratorService returns the configured generator service.
func (c *Container) GeneratorService() generator.Service {
	return c.generatorSvc
}

// GeneratorEnabled reports whether static generation is switched on.
func (c *Container) GeneratorEnabled() bool {
	if c == nil {
		return false
	}
	return c.Config.Generator.Enabled && c.Config.Features.Generator
}

func (c *Container) configureLogging() error {
	if c.loggerProvider != nil || !c.Config.Features.Logger {
		return nil
	}

	logging := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(logging.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logging.Level,
			Format:    logging.Format,
			AddSource: logging.AddSource,
			Focus:     logging.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: configure gologger provider: %w", err)
		}
		c.loggerProvider = provider
	default:
		opts := console.Options{}
		if level, ok := parseConsoleLevel(logging.Level); ok {
			opts.MinLevel = &level
		}
		c.loggerProvider = console.NewProvider(opts)
	}
	return nil
}

func (c *Container) configureContent() error {
	if c.markdownSvc == nil {
		svc, err := markdown.NewService(markdown.Config{
			BasePath:  c.Config.Content.Dir,
			Pattern:   c.Config.Content.Pattern,
			Recursive: c.Config.Content.Recursive,
			Parser:    c.Config.Markdown.ParseOptions(),
		}, nil)
		if err != nil {
			return fmt.Errorf("di: configure markdown service: %w", err)
		}
		c.markdownSvc = svc
	}

	if c.postsIndex == nil {
		index, err := posts.New(posts.Config{
			ContentDir:     c.Config.Content.Dir,
			Pattern:        c.Config.Content.Pattern,
			Recursive:      c.Config.Content.Recursive,
			IncludeDrafts:  c.Config.Content.IncludeDrafts,
			Workers:        c.Config.Content.Workers,
			Parser:         c.Config.Markdown.ParseOptions(),
			MetadataSchema: c.Config.Content.MetadataSchema,
		},
			posts.WithLogger(c.loggerProvider),
			posts.WithMarkdownService(c.markdownSvc),
		)
		if err != nil {
			return fmt.Errorf("di: configure posts index: %w", err)
		}
		c.postsIndex = index
	}
	return nil
}

func (c *Container) configureGenerator() error {
	if c.generatorSvc != nil {
		return nil
	}
	if !c.GeneratorEnabled() {
		c.generatorSvc = generator.NewDisabledService()
		return nil
	}

	gen := c.Config.Generator
	site := c.Config.Site

	if c.routeManager == nil {
		if c.Config.Navigation.RouteConfig != nil {
			c.routeManager = urlkit.NewRouteManager(c.Config.Navigation.RouteConfig)
		} else {
			c.routeManager = generator.NewRouteManager(site.BaseURL)
		}
	}

	if c.storage == nil {
		c.storage = storage.NewFilesystem(gen.OutputDir, gen.OutputDir)
	}

	if c.renderer == nil {
		dir := templatesDir(gen)
		if dir != "" {
			renderer, err := generator.NewGoTemplateRenderer(dir)
			if err != nil {
				return fmt.Errorf("di: configure template renderer: %w", err)
			}
			c.renderer = renderer
		}
	}

	if c.assets == nil {
		if gen.CopyAssets && strings.TrimSpace(gen.Theming.Directory) != "" {
			c.assets = generator.NewThemeAssetResolver()
		} else {
			c.assets = generator.NoOpAssetResolver{}
		}
	}

	if c.images == nil && gen.ProcessImages {
		c.images = images.NewProcessor(images.Options{})
	}

	c.generatorSvc = generator.NewService(generator.Config{
		OutputDir:       gen.OutputDir,
		BaseURL:         site.BaseURL,
		SiteTitle:       site.Title,
		SiteDescription: site.Description,
		Language:        site.Language,
		CleanBuild:      gen.CleanBuild,
		Incremental:     gen.Incremental,
		CopyAssets:      gen.CopyAssets,
		ProcessImages:   gen.ProcessImages,
		GenerateSitemap: gen.GenerateSitemap,
		GenerateRobots:  gen.GenerateRobots,
		GenerateFeeds:   gen.GenerateFeeds,
		Workers:         gen.Workers,
		ImagesDir:       gen.ImagesDir,
		PostTemplate:    gen.PostTemplate,
		IndexTemplate:   gen.IndexTemplate,
		Theme:           gen.Theme,
		ThemeVariant:    gen.ThemeVariant,
		Theming:         gen.Theming,
	}, generator.Dependencies{
		Posts:    c.postsIndex,
		Renderer: c.renderer,
		Storage:  c.storage,
		Assets:   c.assets,
		Images:   c.images,
		Routes:   c.routeManager,
		Logger:   c.loggerProvider,
	})
	return nil
}

func templatesDir(gen runtimeconfig.GeneratorConfig) string {
	if dir := strings.TrimSpace(gen.TemplatesDir); dir != "" {
		return dir
	}
	theme := strings.TrimSpace(gen.Theme)
	themes := strings.TrimSpace(gen.Theming.Directory)
	if theme != "" && themes != "" {
		return filepath.Join(themes, theme)
	}
	return ""
}

func parseConsoleLevel(level string) (console.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return console.LevelTrace, true
	case "debug":
		return console.LevelDebug, true
	case "info":
		return console.LevelInfo, true
	case "warn", "warning":
		return console.LevelWarn, true
	case "error":
		return console.LevelError, true
	case "fatal":
		return console.LevelFatal, true
	default:
		return console.LevelInfo, false
	}
}
