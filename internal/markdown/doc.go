// Package markdown provides filesystem-backed Markdown loading, front matter
// extraction, and HTML rendering for the blog content pipeline.
package markdown
