package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/goliatone/go-blog/cmd/blog/internal/bootstrap"
	sitecmd "github.com/goliatone/go-blog/internal/commands/site"
	"github.com/joho/godotenv"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("blog: %v", err)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	command := "build"
	if len(args) > 0 && !isFlag(args[0]) {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "build":
		return runBuild(args)
	case "clean":
		return runClean(args)
	case "list":
		return runList(args)
	default:
		return fmt.Errorf("unknown command %q (expected build, clean, or list)", command)
	}
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("blog-build", flag.ExitOnError)
	opts := bindFlags(fs)
	slugs := fs.String("slugs", "", "Comma separated slugs to rebuild (defaults to every post)")
	dryRun := fs.Bool("dry-run", false, "Render without writing artifacts")

	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(*opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	var result *sitecmd.ResultEnvelope
	cmd := sitecmd.BuildSiteCommand{
		Slugs:  bootstrap.SplitSlugs(*slugs),
		DryRun: *dryRun,
		ResultCallback: func(env sitecmd.ResultEnvelope) {
			result = &env
		},
	}
	if err := module.Module.BuildSite(context.Background(), cmd); err != nil {
		return fmt.Errorf("execute build command: %w", err)
	}

	if result != nil && result.Result != nil {
		summary := result.Result
		fmt.Fprintf(os.Stdout, "build complete: %d pages built, %d skipped, %d assets, %d images (%s)\n",
			summary.PagesBuilt, summary.PagesSkipped, summary.AssetsBuilt, summary.ImagesBuilt, summary.Duration)
	} else {
		fmt.Fprintln(os.Stdout, "build complete")
	}
	return nil
}

func runClean(args []string) error {
	fs := flag.NewFlagSet("blog-clean", flag.ExitOnError)
	opts := bindFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(*opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	if err := module.Module.CleanSite(context.Background()); err != nil {
		return fmt.Errorf("execute clean command: %w", err)
	}
	fmt.Fprintln(os.Stdout, "output cleaned")
	return nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("blog-list", flag.ExitOnError)
	opts := bindFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}
	opts.GeneratorOff = true

	module, err := moduleBuilder(*opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	slugs, err := module.Module.ListSlugs(context.Background())
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}
	for _, slug := range slugs {
		fmt.Fprintln(os.Stdout, slug)
	}
	return nil
}

func bindFlags(fs *flag.FlagSet) *bootstrap.Options {
	opts := &bootstrap.Options{}
	fs.StringVar(&opts.ContentDir, "content-dir", "", "Path to the markdown content root (defaults to BLOG_CONTENT_DIR or ./content)")
	fs.StringVar(&opts.Pattern, "pattern", "", "Glob pattern applied when discovering markdown files")
	fs.BoolVar(&opts.IncludeDrafts, "drafts", false, "Include posts marked as drafts")
	fs.StringVar(&opts.OutputDir, "output", "", "Directory receiving generated artifacts (defaults to BLOG_OUTPUT_DIR or ./public)")
	fs.StringVar(&opts.TemplatesDir, "templates", "", "Directory holding post and index templates")
	fs.StringVar(&opts.ThemesDir, "themes-dir", "", "Directory holding theme manifests")
	fs.StringVar(&opts.Theme, "theme", "", "Theme name to apply during rendering")
	fs.StringVar(&opts.ThemeVariant, "theme-variant", "", "Theme variant (for example dark)")
	fs.StringVar(&opts.ImagesDir, "images-dir", "", "Directory of source images to process into the output")
	fs.StringVar(&opts.BaseURL, "base-url", "", "Absolute site URL used for sitemap and feed links")
	fs.StringVar(&opts.SiteTitle, "title", "", "Site title rendered into templates and feeds")
	fs.StringVar(&opts.SiteDescription, "description", "", "Site description rendered into feeds")
	fs.StringVar(&opts.Language, "language", "", "Site language code (defaults to en)")
	fs.BoolVar(&opts.CleanBuild, "clean-build", false, "Remove the output directory before building")
	fs.BoolVar(&opts.Incremental, "incremental", true, "Skip pages whose content has not changed")
	fs.IntVar(&opts.Workers, "workers", 0, "Worker pool size for parsing and rendering (defaults to NumCPU)")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Minimum log level (trace, debug, info, warn, error)")
	fs.StringVar(&opts.LogFormat, "log-format", "", "Log output format (json, console, pretty); selects the structured provider")
	return opts
}

func isFlag(arg string) bool {
	return len(arg) > 0 && arg[0] == '-'
}
