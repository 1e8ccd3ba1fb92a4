package generator

import (
	"encoding/xml"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-blog/internal/posts"
)

const maxFeedItems = 100

type feedItem struct {
	Title       string
	Summary     string
	Link        string
	GUID        string
	PublishedAt time.Time
	UpdatedAt   time.Time
}

// buildFeedItems maps posts to feed entries, newest first, capped at
// maxFeedItems. Duplicate post IDs are folded into one entry.
func buildFeedItems(entries []*posts.Post, route func(*posts.Post) string, generatedAt time.Time) []feedItem {
	if len(entries) == 0 {
		return nil
	}

	items := make([]feedItem, 0, len(entries))
	seen := map[string]struct{}{}
	for _, post := range entries {
		if post == nil {
			continue
		}
		guid := post.ID.String()
		if _, dup := seen[guid]; dup {
			continue
		}
		seen[guid] = struct{}{}

		title := strings.TrimSpace(post.Title)
		if title == "" {
			title = post.Slug
		}

		publishedAt := post.Date
		if publishedAt.IsZero() {
			publishedAt = generatedAt
		}
		updatedAt := post.LastModified
		if updatedAt.IsZero() {
			updatedAt = publishedAt
		}

		items = append(items, feedItem{
			Title:       title,
			Summary:     normalizeWhitespace(post.Excerpt),
			Link:        route(post),
			GUID:        guid,
			PublishedAt: publishedAt,
			UpdatedAt:   updatedAt,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].PublishedAt.Equal(items[j].PublishedAt) {
			return items[i].GUID < items[j].GUID
		}
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if len(items) > maxFeedItems {
		items = append([]feedItem(nil), items[:maxFeedItems]...)
	}
	return items
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description,omitempty"`
}

func buildRSSFeed(site SiteMetadata, items []feedItem, generatedAt time.Time) string {
	channel := rssChannel{
		Title:         siteTitle(site),
		Link:          baseURLWithFallback(site.BaseURL),
		Description:   siteDescription(site),
		Language:      strings.TrimSpace(site.Language),
		LastBuildDate: generatedAt.UTC().Format(time.RFC1123Z),
	}
	for _, item := range items {
		pub := item.PublishedAt
		if pub.IsZero() {
			pub = generatedAt
		}
		channel.Items = append(channel.Items, rssItem{
			Title:       item.Title,
			Link:        item.Link,
			GUID:        item.GUID,
			PubDate:     pub.UTC().Format(time.RFC1123Z),
			Description: item.Summary,
		})
	}
	return renderXML(rssDocument{Version: "2.0", Channel: channel})
}

type atomDocument struct {
	XMLName xml.Name    `xml:"feed"`
	Xmlns   string      `xml:"xmlns,attr"`
	Lang    string      `xml:"xml:lang,attr"`
	ID      string      `xml:"id"`
	Title   string      `xml:"title"`
	Updated string      `xml:"updated"`
	Links   []atomLink  `xml:"link"`
	Entries []atomEntry `xml:"entry"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr,omitempty"`
	Href string `xml:"href,attr"`
}

type atomEntry struct {
	ID        string   `xml:"id"`
	Title     string   `xml:"title"`
	Link      atomLink `xml:"link"`
	Updated   string   `xml:"updated"`
	Published string   `xml:"published,omitempty"`
	Summary   string   `xml:"summary,omitempty"`
}

func buildAtomFeed(site SiteMetadata, items []feedItem, generatedAt time.Time) string {
	baseLink := baseURLWithFallback(site.BaseURL)
	feedID := baseLink + "/feed.atom.xml"
	lang := strings.TrimSpace(site.Language)
	if lang == "" {
		lang = "en"
	}

	doc := atomDocument{
		Xmlns:   "http://www.w3.org/2005/Atom",
		Lang:    lang,
		ID:      feedID,
		Title:   siteTitle(site),
		Updated: generatedAt.UTC().Format(time.RFC3339),
		Links: []atomLink{
			{Rel: "alternate", Href: baseLink},
			{Rel: "self", Href: feedID},
		},
	}
	for _, item := range items {
		updated := item.UpdatedAt
		if updated.IsZero() {
			updated = item.PublishedAt
		}
		if updated.IsZero() {
			updated = generatedAt
		}
		entry := atomEntry{
			ID:      item.GUID,
			Title:   item.Title,
			Link:    atomLink{Href: item.Link},
			Updated: updated.UTC().Format(time.RFC3339),
			Summary: item.Summary,
		}
		if !item.PublishedAt.IsZero() {
			entry.Published = item.PublishedAt.UTC().Format(time.RFC3339)
		}
		doc.Entries = append(doc.Entries, entry)
	}
	return renderXML(doc)
}

func renderXML(doc any) string {
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return ""
	}
	return xml.Header + string(data) + "\n"
}

func siteTitle(site SiteMetadata) string {
	if title := strings.TrimSpace(site.Title); title != "" {
		return title
	}
	if base := strings.TrimSpace(site.BaseURL); base != "" {
		return base
	}
	return "Blog Feed"
}

func siteDescription(site SiteMetadata) string {
	if desc := strings.TrimSpace(site.Description); desc != "" {
		return desc
	}
	return "Latest posts"
}

func baseURLWithFallback(base string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == "" {
		return "http://localhost"
	}
	return trimmed
}

func absoluteURL(base, route string) string {
	targetBase := baseURLWithFallback(base)
	normalized := strings.TrimSpace(route)
	if normalized == "" {
		return targetBase
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	return targetBase + normalized
}

func normalizeWhitespace(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	return strings.Join(strings.Fields(input), " ")
}
