package sitecmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-blog/internal/generator"
)

const (
	buildSiteMessageType     = "blog.site.build"
	cleanSiteMessageType     = "blog.site.clean"
	reloadContentMessageType = "blog.site.reload"
)

// ResultCallback receives build results produced by generator operations. The callback is optional
// and is invoked synchronously from the handler when a BuildResult is available.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope captures the outcome of a site command execution that generated a BuildResult.
type ResultEnvelope struct {
	Result   *generator.BuildResult
	Metadata map[string]any
}

// BuildSiteCommand executes a generator build, optionally scoped to a subset of post slugs.
type BuildSiteCommand struct {
	Slugs          []string       `json:"slugs,omitempty"`
	DryRun         bool           `json:"dry_run,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate ensures slug filters are well-formed. An empty slug list requests a full build.
func (m BuildSiteCommand) Validate() error {
	errs := validation.Errors{}
	for _, slug := range m.Slugs {
		if strings.TrimSpace(slug) == "" {
			errs["slugs"] = validation.NewError("blog.site.build.slug_invalid", "slugs must not contain empty values")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CleanSiteCommand clears generator artifacts from the configured storage backend.
type CleanSiteCommand struct{}

// Type implements command.Message.
func (CleanSiteCommand) Type() string { return cleanSiteMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (CleanSiteCommand) Validate() error { return nil }

// ReloadContentCommand rescans the content directory and rebuilds the post index.
type ReloadContentCommand struct{}

// Type implements command.Message.
func (ReloadContentCommand) Type() string { return reloadContentMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (ReloadContentCommand) Validate() error { return nil }

// FeatureGates exposes runtime switches used to guard handler execution.
type FeatureGates struct {
	GeneratorEnabled func() bool
}

func (g FeatureGates) generatorEnabled() bool {
	if g.GeneratorEnabled == nil {
		return false
	}
	return g.GeneratorEnabled()
}
