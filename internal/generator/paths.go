package generator

import (
	"path"
	"strings"
)

// postRoute is the canonical site-relative route for a post.
func postRoute(slug string) string {
	slug = strings.Trim(strings.TrimSpace(slug), "/")
	if slug == "" {
		return "/"
	}
	return "/posts/" + slug
}

// buildOutputPath maps a route onto the pretty-URL output layout, so
// "/posts/hello" renders to "posts/hello/index.html".
func buildOutputPath(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		route = "/"
	}
	clean := strings.Trim(route, " \t\r\n/")
	if clean == "" {
		return "index.html"
	}
	return path.Join(clean, "index.html")
}

func joinOutputPath(base string, rel string) string {
	if strings.TrimSpace(base) == "" {
		return strings.TrimLeft(rel, "/")
	}
	return path.Join(strings.Trim(base, "/"), rel)
}
