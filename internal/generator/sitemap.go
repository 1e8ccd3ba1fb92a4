package generator

import (
	"encoding/xml"
	"sort"
	"strings"
	"time"
)

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// buildSitemap renders a sitemap covering every unique page route. Pages with
// no recorded modification time fall back to the build timestamp.
func buildSitemap(baseURL string, pages []RenderedPage, fallback time.Time) string {
	base := baseURLWithFallback(baseURL)

	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	seen := map[string]struct{}{}
	for _, page := range pages {
		route := strings.TrimSpace(page.Route)
		if route == "" {
			route = "/"
		}
		if !strings.HasPrefix(route, "/") {
			route = "/" + route
		}
		location := base + route
		if _, dup := seen[location]; dup {
			continue
		}
		seen[location] = struct{}{}

		lastMod := page.LastModified
		if lastMod.IsZero() {
			lastMod = fallback
		}
		entry := urlEntry{Loc: location}
		if !lastMod.IsZero() {
			entry.LastMod = lastMod.UTC().Format(time.RFC3339)
		}
		set.URLs = append(set.URLs, entry)
	}

	sort.Slice(set.URLs, func(i, j int) bool {
		return set.URLs[i].Loc < set.URLs[j].Loc
	})

	return renderXML(set)
}

func buildRobots(baseURL string, includeSitemap bool) string {
	lines := []string{"User-agent: *", "Allow: /"}
	if includeSitemap {
		lines = append(lines, "", "Sitemap: "+baseURLWithFallback(baseURL)+"/sitemap.xml")
	}
	return strings.Join(lines, "\n") + "\n"
}
