package meeting_test

import (
	"strings"
	"testing"

	"hireline/internal/meeting"
)

func TestGenerate(t *testing.T) {
	g := meeting.New("hireline", "https://meet.hireline.example")
	ref := g.Generate("iv-123")
	if !strings.HasPrefix(ref, "hireline-iv-123-") {
		t.Fatalf("ref %q missing prefix and interview id", ref)
	}
	suffix := strings.TrimPrefix(ref, "hireline-iv-123-")
	if len(suffix) < 16 {
		t.Fatalf("suffix %q too short to be unguessable", suffix)
	}
	if ref2 := g.Generate("iv-123"); ref2 == ref {
		t.Fatalf("two calls produced the same reference")
	}
}

func TestGenerateDefaultPrefix(t *testing.T) {
	var g meeting.Generator
	if ref := g.Generate("iv-1"); !strings.HasPrefix(ref, "hireline-iv-1-") {
		t.Fatalf("empty prefix should fall back: %q", ref)
	}
}

func TestJoinURL(t *testing.T) {
	g := meeting.New("hireline", "https://meet.hireline.example/")
	u := g.JoinURL("hireline-iv-1-abc", "Sam Field")
	want := "https://meet.hireline.example/hireline-iv-1-abc#Sam%20Field"
	if u != want {
		t.Fatalf("join url: got %q want %q", u, want)
	}
}
