package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/pkg/interfaces"
	urlkit "github.com/goliatone/go-urlkit"
)

var ErrContentDirRequired = errors.New("blog config: content directory is required")
var ErrGeneratorFeatureRequired = errors.New("blog config: generator feature must be enabled to configure generation")
var ErrGeneratorOutputDirRequired = errors.New("blog config: generator output directory is required when generator is enabled")
var ErrThemeDirectoryRequired = errors.New("blog config: theme directory is required when a theme is configured")
var ErrWorkersInvalid = errors.New("blog config: worker count must be zero or positive")
var ErrLoggingProviderRequired = errors.New("blog config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("blog config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("blog config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("blog config: logging format is invalid")

// Config aggregates feature flags and adapter bindings for the blog module.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Enabled    bool
	Site       SiteConfig
	Content    ContentConfig
	Markdown   MarkdownConfig
	Generator  GeneratorConfig
	Navigation NavigationConfig
	Logging    LoggingConfig
	Features   Features
}

// SiteConfig carries the site identity rendered into templates, feeds, and
// social metadata.
type SiteConfig struct {
	Title       string
	Description string
	BaseURL     string
	Language    string
	Metadata    map[string]any
}

// ContentConfig captures filesystem behaviour for Markdown post discovery.
type ContentConfig struct {
	Dir            string
	Pattern        string
	Recursive      bool
	IncludeDrafts  bool
	Workers        int
	MetadataSchema map[string]any
}

// MarkdownConfig mirrors interfaces.ParseOptions for runtime configuration.
type MarkdownConfig struct {
	Extensions []string
	Sanitize   bool
	HardWraps  bool
	SafeMode   bool
}

// GeneratorConfig captures behaviour for the static site generator.
type GeneratorConfig struct {
	Enabled         bool
	OutputDir       string
	CleanBuild      bool
	Incremental     bool
	CopyAssets      bool
	ProcessImages   bool
	GenerateSitemap bool
	GenerateRobots  bool
	GenerateFeeds   bool
	Workers         int
	TemplatesDir    string
	ImagesDir       string
	PostTemplate    string
	IndexTemplate   string
	Theme           string
	ThemeVariant    string
	Theming         generator.ThemingConfig
}

// NavigationConfig captures routing configuration for post URL resolution.
type NavigationConfig struct {
	RouteConfig *urlkit.Config
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// Features toggles module functionality.
type Features struct {
	Generator bool
	Logger    bool
}

// ParseOptions converts the runtime Markdown configuration into parser options.
func (m MarkdownConfig) ParseOptions() interfaces.ParseOptions {
	return interfaces.ParseOptions{
		Extensions: append([]string(nil), m.Extensions...),
		Sanitize:   m.Sanitize,
		HardWraps:  m.HardWraps,
		SafeMode:   m.SafeMode,
	}
}

// DefaultConfig returns opinionated defaults for a filesystem-backed blog.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Site: SiteConfig{
			Language: "en",
		},
		Content: ContentConfig{
			Dir:       "content",
			Pattern:   "*.md",
			Recursive: true,
		},
		Markdown: MarkdownConfig{
			Extensions: []string{"tables", "strikethrough"},
		},
		Generator: GeneratorConfig{
			OutputDir:       "public",
			CleanBuild:      false,
			Incremental:     true,
			CopyAssets:      true,
			ProcessImages:   false,
			GenerateSitemap: true,
			GenerateRobots:  true,
			GenerateFeeds:   true,
		},
		Navigation: NavigationConfig{},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Features: Features{
			Generator: true,
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Content.Dir) == "" {
		return ErrContentDirRequired
	}
	if cfg.Content.Workers < 0 {
		return fmt.Errorf("%w: content", ErrWorkersInvalid)
	}
	if cfg.Generator.Enabled {
		if !cfg.Features.Generator {
			return ErrGeneratorFeatureRequired
		}
		if strings.TrimSpace(cfg.Generator.OutputDir) == "" {
			return ErrGeneratorOutputDirRequired
		}
		if cfg.Generator.Workers < 0 {
			return fmt.Errorf("%w: generator", ErrWorkersInvalid)
		}
		if strings.TrimSpace(cfg.Generator.Theme) != "" && strings.TrimSpace(cfg.Generator.Theming.Directory) == "" {
			return ErrThemeDirectoryRequired
		}
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
