package generator

import (
	"fmt"
	"strings"
	"sync"

	urlkit "github.com/goliatone/go-urlkit"
)

const (
	routeGroupSite = "site"
	routeNamePost  = "post"
	routeNameHome  = "home"
)

// NewRouteManager builds the default go-urlkit configuration for a blog site.
func NewRouteManager(baseURL string) *urlkit.RouteManager {
	return urlkit.NewRouteManager(&urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    routeGroupSite,
				BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
				Routes: map[string]string{
					routeNameHome: "/",
					routeNamePost: "/posts/:slug",
				},
			},
		},
	})
}

// routeResolver maps slugs to site routes, preferring a configured go-urlkit
// manager and falling back to the canonical posts layout.
type routeResolver struct {
	manager *urlkit.RouteManager

	mu    sync.RWMutex
	cache map[string]*urlkit.Group
}

func newRouteResolver(manager *urlkit.RouteManager) *routeResolver {
	return &routeResolver{
		manager: manager,
		cache:   map[string]*urlkit.Group{},
	}
}

// PostRoute returns the site-relative route for a post slug.
func (r *routeResolver) PostRoute(slug string) string {
	if r == nil || r.manager == nil {
		return postRoute(slug)
	}

	group, err := r.group(routeGroupSite)
	if err != nil || group == nil {
		return postRoute(slug)
	}

	builder, err := safeBuilder(group, routeNamePost)
	if err != nil || builder == nil {
		return postRoute(slug)
	}

	url, err := builder.WithParam("slug", slug).Build()
	if err != nil || strings.TrimSpace(url) == "" {
		return postRoute(slug)
	}
	return routePath(url)
}

func (r *routeResolver) group(name string) (*urlkit.Group, error) {
	r.mu.RLock()
	group, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return group, nil
	}

	group, err := lookupGroup(r.manager, name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[name] = group
	r.mu.Unlock()
	return group, nil
}

// routePath strips scheme and host so the resolved URL can be joined with the
// configured base URL later.
func routePath(url string) string {
	url = strings.TrimSpace(url)
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(url, scheme) {
			rest := strings.TrimPrefix(url, scheme)
			if idx := strings.Index(rest, "/"); idx >= 0 {
				return rest[idx:]
			}
			return "/"
		}
	}
	if !strings.HasPrefix(url, "/") {
		return "/" + url
	}
	return url
}

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	if group == nil {
		return nil, fmt.Errorf("generator: urlkit group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("generator: urlkit builder panic: %v", rec)
		}
	}()
	builder = group.Builder(route)
	return builder, err
}

func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	if manager == nil {
		return nil, fmt.Errorf("generator: route manager not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("generator: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	return group, err
}
