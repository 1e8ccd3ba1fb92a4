package posts

import (
	"errors"
	"fmt"
)

var (
	// ErrPostNotFound signals a slug lookup miss against a loaded index.
	ErrPostNotFound = errors.New("posts: post not found")
	// ErrSlugRequired is returned when neither front matter nor filename yield a slug.
	ErrSlugRequired = errors.New("posts: slug is required")
	// ErrSlugInvalid is returned when a slug survives normalisation but is still unusable.
	ErrSlugInvalid = errors.New("posts: slug contains invalid characters")
	// ErrNotLoaded is returned when an index is queried before Load succeeds.
	ErrNotLoaded = errors.New("posts: index has not been loaded")
	// ErrIndexRequired is returned when an operation needs an index but none was supplied.
	ErrIndexRequired = errors.New("posts: index is required")
)

// ParseError reports a Markdown file that could not be turned into a post.
// Field identifies the offending front matter key when the failure is tied to
// a specific value; it is empty for whole-file failures such as malformed YAML.
type ParseError struct {
	File  string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("posts: parse %s: field %q: %v", e.File, e.Field, e.Err)
	}
	return fmt.Sprintf("posts: parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DuplicateSlugError reports two source files resolving to the same slug.
// Existing names the file that claimed the slug first in lexical order.
type DuplicateSlugError struct {
	Slug     string
	File     string
	Existing string
}

func (e *DuplicateSlugError) Error() string {
	return fmt.Sprintf("posts: duplicate slug %q in %s (already used by %s)", e.Slug, e.File, e.Existing)
}

// NotFoundError carries the slug that missed so callers can render useful
// diagnostics. It unwraps to ErrPostNotFound for errors.Is checks.
type NotFoundError struct {
	Slug string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("posts: post %q not found", e.Slug)
}

func (e *NotFoundError) Unwrap() error { return ErrPostNotFound }
