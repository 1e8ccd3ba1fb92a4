package interfaces

import (
	"context"
	"time"
)

// MarkdownParser defines how raw Markdown bytes are converted into HTML.
// Implementations should be reusable across documents so callers can share a
// single instance without additional locking.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown parsing behaviour, keeping option names
// readable for configuration unmarshalling and CLI flags.
type ParseOptions struct {
	Extensions []string
	Sanitize   bool
	HardWraps  bool
	SafeMode   bool
}

// MarkdownService exposes the file workflows the blog pipeline builds on:
// loading documents from the content directory and rendering Markdown bodies
// into HTML.
type MarkdownService interface {
	Load(ctx context.Context, path string, opts LoadOptions) (*Document, error)
	LoadDirectory(ctx context.Context, dir string, opts LoadOptions) ([]*Document, error)
	Render(ctx context.Context, markdown []byte, opts ParseOptions) ([]byte, error)
	RenderDocument(ctx context.Context, doc *Document, opts ParseOptions) ([]byte, error)
}

// Document represents a Markdown file with parsed metadata and content. The
// struct is shared between the interfaces package and internal implementations
// so consumers can depend on a stable contract.
type Document struct {
	FilePath     string
	FrontMatter  FrontMatter
	Body         []byte
	BodyHTML     []byte
	LastModified time.Time
	// Checksum stores a digest of the original file content (typically SHA-256)
	// so incremental builds can detect changes without re-rendering unchanged
	// files.
	Checksum []byte
}

// FrontMatter models the post header block extracted from Markdown files.
// Required fields are enforced downstream by the posts index; the Custom map
// keeps unknown keys available for template- or site-specific values.
type FrontMatter struct {
	Title      string            `yaml:"title" json:"title"`
	Slug       string            `yaml:"slug" json:"slug"`
	Excerpt    string            `yaml:"excerpt" json:"excerpt"`
	CoverImage string            `yaml:"coverImage" json:"coverImage"`
	Date       time.Time         `yaml:"date" json:"date"`
	Author     FrontMatterAuthor `yaml:"author" json:"author"`
	OGImage    FrontMatterImage  `yaml:"ogImage" json:"ogImage"`
	Tags       []string          `yaml:"tags" json:"tags"`
	Draft      bool              `yaml:"draft" json:"draft"`
	Custom     map[string]any    `yaml:",inline" json:"custom"`
	Raw        map[string]any    `yaml:"-" json:"raw"`
}

// FrontMatterAuthor captures the nested author block.
type FrontMatterAuthor struct {
	Name    string `yaml:"name" json:"name"`
	Picture string `yaml:"picture" json:"picture"`
}

// FrontMatterImage captures nested image blocks such as ogImage.
type FrontMatterImage struct {
	URL string `yaml:"url" json:"url"`
}

// LoadOptions fine-tunes how documents are discovered and parsed from disk.
type LoadOptions struct {
	Recursive *bool
	Pattern   string
	Parser    ParseOptions
}
