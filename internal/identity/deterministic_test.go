package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDIsDeterministic(t *testing.T) {
	a := UUID("go-blog:post:hello-world")
	b := UUID("go-blog:post:hello-world")
	if a != b {
		t.Fatalf("expected stable UUID, got %s and %s", a, b)
	}
	if a == uuid.Nil {
		t.Fatal("expected non-nil UUID")
	}
}

func TestUUIDEmptyKeyReturnsNil(t *testing.T) {
	if got := UUID("   "); got != uuid.Nil {
		t.Fatalf("expected uuid.Nil for blank key, got %s", got)
	}
}

func TestPostUUIDNormalisesCase(t *testing.T) {
	if PostUUID("Hello-World") != PostUUID("hello-world") {
		t.Fatal("expected case-insensitive post UUIDs")
	}
}

func TestEntityPrefixesDoNotCollide(t *testing.T) {
	if PostUUID("ada") == AuthorUUID("ada") {
		t.Fatal("expected post and author namespaces to differ")
	}
	if AuthorUUID("ada") == TagUUID("ada") {
		t.Fatal("expected author and tag namespaces to differ")
	}
}
