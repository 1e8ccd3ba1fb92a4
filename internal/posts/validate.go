package posts

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

// requiredFields lists the front matter keys every published post must carry,
// in the order validation failures are reported.
var requiredFields = []string{
	"title",
	"excerpt",
	"coverImage",
	"date",
	"author.name",
	"author.picture",
	"ogImage.url",
}

// validateFrontMatter checks the typed front matter against the required post
// schema. One ParseError is produced per missing field so callers can surface
// every problem in a file at once.
func validateFrontMatter(file string, fm interfaces.FrontMatter) []error {
	results := validation.Errors{
		"title":          validation.Validate(fm.Title, validation.Required),
		"excerpt":        validation.Validate(fm.Excerpt, validation.Required),
		"coverImage":     validation.Validate(fm.CoverImage, validation.Required),
		"date":           validation.Validate(fm.Date, validation.Required),
		"author.name":    validation.Validate(fm.Author.Name, validation.Required),
		"author.picture": validation.Validate(fm.Author.Picture, validation.Required),
		"ogImage.url":    validation.Validate(fm.OGImage.URL, validation.Required),
	}

	var errs []error
	for _, field := range requiredFields {
		if fieldErr := results[field]; fieldErr != nil {
			errs = append(errs, &ParseError{File: file, Field: field, Err: fieldErr})
		}
	}
	return errs
}
