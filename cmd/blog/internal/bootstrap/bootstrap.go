package bootstrap

import (
	"fmt"
	"os"
	"strings"

	blog "github.com/goliatone/go-blog"
	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/internal/di"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Options captures configuration for the blog CLI bootstrap.
type Options struct {
	ContentDir      string
	Pattern         string
	IncludeDrafts   bool
	OutputDir       string
	TemplatesDir    string
	ThemesDir       string
	Theme           string
	ThemeVariant    string
	ImagesDir       string
	BaseURL         string
	SiteTitle       string
	SiteDescription string
	Language        string
	CleanBuild      bool
	Incremental     bool
	Workers         int
	LogLevel        string
	LogFormat       string
	GeneratorOff    bool
	LoggerProvider  interfaces.LoggerProvider
}

// Module wraps the blog module plus the logger used by CLI command handlers.
type Module struct {
	Module *blog.Module
	Logger interfaces.Logger
}

// BuildModule constructs a blog module configured from CLI options and
// environment variables. Flags win over the environment.
func BuildModule(opts Options) (*Module, error) {
	cfg := blog.DefaultConfig()

	cfg.Content.Dir = firstNonEmpty(opts.ContentDir, os.Getenv("BLOG_CONTENT_DIR"), cfg.Content.Dir)
	if trimmed := strings.TrimSpace(opts.Pattern); trimmed != "" {
		cfg.Content.Pattern = trimmed
	}
	cfg.Content.IncludeDrafts = opts.IncludeDrafts
	if opts.Workers > 0 {
		cfg.Content.Workers = opts.Workers
		cfg.Generator.Workers = opts.Workers
	}

	cfg.Site.BaseURL = firstNonEmpty(opts.BaseURL, os.Getenv("BLOG_BASE_URL"), cfg.Site.BaseURL)
	cfg.Site.Title = firstNonEmpty(opts.SiteTitle, os.Getenv("BLOG_SITE_TITLE"), cfg.Site.Title)
	cfg.Site.Description = firstNonEmpty(opts.SiteDescription, os.Getenv("BLOG_SITE_DESCRIPTION"), cfg.Site.Description)
	if trimmed := strings.TrimSpace(opts.Language); trimmed != "" {
		cfg.Site.Language = trimmed
	}

	cfg.Generator.Enabled = !opts.GeneratorOff
	cfg.Generator.OutputDir = firstNonEmpty(opts.OutputDir, os.Getenv("BLOG_OUTPUT_DIR"), cfg.Generator.OutputDir)
	cfg.Generator.TemplatesDir = firstNonEmpty(opts.TemplatesDir, os.Getenv("BLOG_TEMPLATES_DIR"))
	cfg.Generator.Theming.Directory = firstNonEmpty(opts.ThemesDir, os.Getenv("BLOG_THEMES_DIR"))
	cfg.Generator.Theme = strings.TrimSpace(opts.Theme)
	cfg.Generator.ThemeVariant = strings.TrimSpace(opts.ThemeVariant)
	cfg.Generator.ImagesDir = strings.TrimSpace(opts.ImagesDir)
	cfg.Generator.ProcessImages = cfg.Generator.ImagesDir != ""
	cfg.Generator.CleanBuild = opts.CleanBuild
	cfg.Generator.Incremental = opts.Incremental

	cfg.Features.Logger = true
	if trimmed := strings.TrimSpace(opts.LogLevel); trimmed != "" {
		cfg.Logging.Level = trimmed
	}
	if trimmed := strings.TrimSpace(opts.LogFormat); trimmed != "" {
		cfg.Logging.Provider = "gologger"
		cfg.Logging.Format = trimmed
	}

	diOpts := []di.Option{}
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(opts.LoggerProvider))
	}

	module, err := blog.New(cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise blog module: %w", err)
	}

	return &Module{
		Module: module,
		Logger: commands.CommandLogger(module.Container().LoggerProvider(), "cli"),
	}, nil
}

// SplitSlugs parses a comma separated slug list into a trimmed slice.
func SplitSlugs(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	slugs := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			slugs = append(slugs, trimmed)
		}
	}
	return slugs
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
