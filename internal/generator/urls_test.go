package generator

import "testing"

func TestRouteResolverFallsBackWithoutManager(t *testing.T) {
	resolver := newRouteResolver(nil)
	if got := resolver.PostRoute("hello"); got != "/posts/hello" {
		t.Fatalf("unexpected fallback route: %s", got)
	}
}

func TestRouteResolverUsesManager(t *testing.T) {
	manager := NewRouteManager("https://example.com")
	resolver := newRouteResolver(manager)

	if got := resolver.PostRoute("hello-world"); got != "/posts/hello-world" {
		t.Fatalf("unexpected route: %s", got)
	}
	// Second call hits the group cache.
	if got := resolver.PostRoute("another"); got != "/posts/another" {
		t.Fatalf("unexpected cached route: %s", got)
	}
}

func TestRoutePathStripsHost(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://example.com/posts/hello", "/posts/hello"},
		{"http://example.com", "/"},
		{"/posts/hello", "/posts/hello"},
		{"posts/hello", "/posts/hello"},
	}
	for _, tc := range cases {
		if got := routePath(tc.url); got != tc.want {
			t.Fatalf("routePath(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
