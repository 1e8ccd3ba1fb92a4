package posts

import (
	"time"

	"github.com/google/uuid"
)

// Post is the fully materialised representation of a Markdown source file.
// All typed fields are coerced eagerly at load time so rendering never has to
// re-parse front matter values.
type Post struct {
	ID         uuid.UUID
	Slug       string
	Title      string
	Excerpt    string
	CoverImage string
	OGImage    string
	Date       time.Time
	Author     Author
	Tags       []string
	Draft      bool

	// Body holds the raw Markdown content; BodyHTML the rendered output.
	Body     []byte
	BodyHTML []byte

	// Custom carries front matter keys outside the typed schema.
	Custom map[string]any

	SourcePath   string
	Checksum     []byte
	LastModified time.Time
}

// Author identifies the post author as declared in front matter.
type Author struct {
	ID      uuid.UUID
	Name    string
	Picture string
}
