package markdown

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

func TestParseFrontMatter(t *testing.T) {
	data := readFixture(t, "testdata/basic.md")

	fm, body, err := ParseFrontMatter(data)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}

	if fm.Title != "Dynamic Routing and Static Generation" {
		t.Fatalf("FrontMatter Title mismatch, got %q", fm.Title)
	}
	if fm.Excerpt == "" {
		t.Fatalf("FrontMatter Excerpt missing")
	}
	if fm.CoverImage != "/assets/blog/dynamic-routing/cover.jpg" {
		t.Fatalf("FrontMatter CoverImage mismatch, got %q", fm.CoverImage)
	}
	if fm.Author.Name != "JJ Kasper" || fm.Author.Picture != "/assets/blog/authors/jj.jpeg" {
		t.Fatalf("FrontMatter Author mismatch: %#v", fm.Author)
	}
	if fm.OGImage.URL != "/assets/blog/dynamic-routing/cover.jpg" {
		t.Fatalf("FrontMatter OGImage mismatch: %#v", fm.OGImage)
	}
	want := time.Date(2020, 3, 16, 5, 35, 7, 322000000, time.UTC)
	if !fm.Date.Equal(want) {
		t.Fatalf("FrontMatter Date mismatch, got %s", fm.Date)
	}
	if len(fm.Tags) != 2 || fm.Tags[0] != "nextjs" {
		t.Fatalf("FrontMatter Tags mismatch: %#v", fm.Tags)
	}
	if fm.Custom["custom_flag"] != true {
		t.Fatalf("FrontMatter Custom flag missing: %#v", fm.Custom)
	}
	if fm.Raw["title"] != "Dynamic Routing and Static Generation" {
		t.Fatalf("FrontMatter Raw title missing: %#v", fm.Raw)
	}
	if len(body) == 0 || !strings.Contains(string(body), "# Dynamic Routing") {
		t.Fatalf("Markdown body not returned correctly: %q", string(body))
	}
}

func TestParseFrontMatter_DateOnly(t *testing.T) {
	source := []byte("---\ntitle: Short\ndate: \"2024-01-10\"\n---\nbody\n")
	fm, _, err := ParseFrontMatter(source)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	want := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	if !fm.Date.Equal(want) {
		t.Fatalf("expected %s, got %s", want, fm.Date)
	}
}

func TestParseFrontMatter_InvalidDate(t *testing.T) {
	source := []byte("---\ntitle: Broken\ndate: \"not-a-date\"\n---\nbody\n")
	_, _, err := ParseFrontMatter(source)
	if err == nil {
		t.Fatal("expected error for invalid date")
	}
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError, got %T: %v", err, err)
	}
	if fieldErr.Field != "date" {
		t.Fatalf("expected field date, got %q", fieldErr.Field)
	}
}

func TestBuildDocument(t *testing.T) {
	data := readFixture(t, "testdata/basic.md")
	modified := time.Now().UTC()

	doc, err := BuildDocument("testdata/basic.md", data, modified)
	if err != nil {
		t.Fatalf("BuildDocument: %v", err)
	}

	if doc.FilePath != "testdata/basic.md" {
		t.Fatalf("expected FilePath to be set, got %q", doc.FilePath)
	}
	if doc.LastModified != modified {
		t.Fatalf("expected LastModified to equal the provided timestamp")
	}
	if len(doc.Body) == 0 {
		t.Fatalf("expected Body to contain markdown content")
	}
	if len(doc.BodyHTML) != 0 {
		t.Fatalf("expected BodyHTML to stay empty until rendered")
	}
}

func TestGoldmarkParser_Parse(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.Parse([]byte("# Heading\n\nHello **world**"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := string(html)
	if !strings.Contains(got, "<h1") || !strings.Contains(got, "Heading</h1>") {
		t.Fatalf("expected rendered HTML to include <h1>Heading</h1>, got %q", got)
	}
	if !strings.Contains(got, "<strong>world</strong>") {
		t.Fatalf("expected rendered HTML to include <strong>, got %q", got)
	}
}

func TestGoldmarkParser_ParseWithOptions(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.ParseWithOptions([]byte("line one\nline two"), interfaces.ParseOptions{
		HardWraps: true,
	})
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}

	if !strings.Contains(string(html), "line one<br>") {
		t.Fatalf("expected hard wraps in HTML output, got %q", string(html))
	}
}

func readFixture(tb testing.TB, path string) []byte {
	tb.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}
