package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

// dateLayouts lists the accepted date formats, tried in order. Front matter
// written by hand tends to use plain dates while exported content carries full
// RFC3339 timestamps.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FieldError reports a front matter field that could not be coerced into its
// typed representation. Callers can unwrap it to surface the offending field.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("front matter field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("front matter field %q: invalid value %q", e.Field, e.Value)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ParseFrontMatter extracts metadata and Markdown body content from the
// provided source bytes. It returns the structured front matter, the Markdown
// body without delimiters, and any error encountered. Date values are coerced
// eagerly so malformed dates fail here rather than at render time.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	reader := bytes.NewReader(source)
	body, err := frontmatter.Parse(reader, &meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse front matter: %w", err)
	}

	fm, err := envelopeToFrontMatter(meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, err
	}
	return fm, body, nil
}

// BuildDocument assembles an interfaces.Document from the supplied file path,
// raw content, and modification time. BodyHTML is intentionally left empty so
// callers can render lazily.
func BuildDocument(path string, source []byte, modified time.Time) (*interfaces.Document, error) {
	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, err
	}

	return &interfaces.Document{
		FilePath:     path,
		FrontMatter:  fm,
		Body:         body,
		LastModified: modified,
	}, nil
}

type frontMatterEnvelope struct {
	Title      string         `yaml:"title"`
	Slug       string         `yaml:"slug"`
	Excerpt    string         `yaml:"excerpt"`
	CoverImage string         `yaml:"coverImage"`
	Date       string         `yaml:"date"`
	Author     authorEnvelope `yaml:"author"`
	OGImage    imageEnvelope  `yaml:"ogImage"`
	Tags       []string       `yaml:"tags"`
	Draft      bool           `yaml:"draft"`
	Custom     map[string]any `yaml:",inline"`
}

type authorEnvelope struct {
	Name    string `yaml:"name"`
	Picture string `yaml:"picture"`
}

type imageEnvelope struct {
	URL string `yaml:"url"`
}

func envelopeToFrontMatter(env frontMatterEnvelope) (interfaces.FrontMatter, error) {
	if env.Custom == nil {
		env.Custom = map[string]any{}
	}

	var date time.Time
	if trimmed := strings.TrimSpace(env.Date); trimmed != "" {
		parsed, err := parseDate(trimmed)
		if err != nil {
			return interfaces.FrontMatter{}, &FieldError{Field: "date", Value: trimmed, Err: err}
		}
		date = parsed
	}

	raw := make(map[string]any, len(env.Custom)+8)
	for key, value := range env.Custom {
		raw[key] = value
	}

	if env.Title != "" {
		raw["title"] = env.Title
	}
	if env.Slug != "" {
		raw["slug"] = env.Slug
	}
	if env.Excerpt != "" {
		raw["excerpt"] = env.Excerpt
	}
	if env.CoverImage != "" {
		raw["coverImage"] = env.CoverImage
	}
	if !date.IsZero() {
		raw["date"] = date
	}
	if env.Author != (authorEnvelope{}) {
		raw["author"] = map[string]any{
			"name":    env.Author.Name,
			"picture": env.Author.Picture,
		}
	}
	if env.OGImage != (imageEnvelope{}) {
		raw["ogImage"] = map[string]any{
			"url": env.OGImage.URL,
		}
	}
	if len(env.Tags) > 0 {
		raw["tags"] = append([]string(nil), env.Tags...)
	}
	raw["draft"] = env.Draft

	return interfaces.FrontMatter{
		Title:      env.Title,
		Slug:       env.Slug,
		Excerpt:    env.Excerpt,
		CoverImage: env.CoverImage,
		Date:       date,
		Author: interfaces.FrontMatterAuthor{
			Name:    env.Author.Name,
			Picture: env.Author.Picture,
		},
		OGImage: interfaces.FrontMatterImage{
			URL: env.OGImage.URL,
		},
		Tags:   append([]string(nil), env.Tags...),
		Draft:  env.Draft,
		Custom: cloneMap(env.Custom),
		Raw:    raw,
	}, nil
}

func parseDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}
