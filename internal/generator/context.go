package generator

import (
	"context"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-blog/internal/posts"
)

var errPostsIndexRequired = errors.New("generator: posts index is required")

// BuildContext aggregates the post data required to execute a static build.
type BuildContext struct {
	GeneratedAt time.Time
	Posts       []*posts.Post
	Routes      map[string]string
	Options     BuildOptions
}

func (s *service) loadContext(ctx context.Context, opts BuildOptions) (*BuildContext, error) {
	if s.deps.Posts == nil {
		return nil, errPostsIndexRequired
	}

	if !s.deps.Posts.Loaded() {
		if err := s.deps.Posts.Load(ctx); err != nil {
			return nil, err
		}
	}

	selected := s.deps.Posts.Posts()
	if len(opts.Slugs) > 0 {
		wanted := make(map[string]struct{}, len(opts.Slugs))
		for _, slug := range opts.Slugs {
			wanted[strings.ToLower(strings.TrimSpace(slug))] = struct{}{}
		}
		filtered := make([]*posts.Post, 0, len(wanted))
		for _, post := range selected {
			if _, ok := wanted[strings.ToLower(post.Slug)]; ok {
				filtered = append(filtered, post)
			}
		}
		selected = filtered
	}

	routes := make(map[string]string, len(selected))
	for _, post := range selected {
		routes[post.Slug] = s.routes.PostRoute(post.Slug)
	}

	return &BuildContext{
		GeneratedAt: s.now(),
		Posts:       selected,
		Routes:      routes,
		Options:     opts,
	}, nil
}

// contentHash is the incremental-build fingerprint for a post page.
func contentHash(post *posts.Post) string {
	if post == nil || len(post.Checksum) == 0 {
		return ""
	}
	return hex.EncodeToString(post.Checksum)
}

// listingHash fingerprints the index page from every post it shows.
func listingHash(entries []*posts.Post) string {
	if len(entries) == 0 {
		return computeHashFromString("")
	}
	parts := make([]string, 0, len(entries))
	for _, post := range entries {
		parts = append(parts, post.Slug+"@"+contentHash(post))
	}
	sort.Strings(parts)
	return computeHashFromString(strings.Join(parts, "\n"))
}
