package blog

import "github.com/goliatone/go-blog/internal/runtimeconfig"

var (
	ErrContentDirRequired         = runtimeconfig.ErrContentDirRequired
	ErrGeneratorFeatureRequired   = runtimeconfig.ErrGeneratorFeatureRequired
	ErrGeneratorOutputDirRequired = runtimeconfig.ErrGeneratorOutputDirRequired
	ErrThemeDirectoryRequired     = runtimeconfig.ErrThemeDirectoryRequired
	ErrWorkersInvalid             = runtimeconfig.ErrWorkersInvalid
	ErrLoggingProviderRequired    = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown     = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config           = runtimeconfig.Config
	SiteConfig       = runtimeconfig.SiteConfig
	ContentConfig    = runtimeconfig.ContentConfig
	MarkdownConfig   = runtimeconfig.MarkdownConfig
	GeneratorConfig  = runtimeconfig.GeneratorConfig
	NavigationConfig = runtimeconfig.NavigationConfig
	LoggingConfig    = runtimeconfig.LoggingConfig
	Features         = runtimeconfig.Features
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
