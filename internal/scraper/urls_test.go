package scraper

import (
	"errors"
	"strings"
	"testing"

	"image-extract-scraper/internal/models"
)

func TestNormalizeImageURL(t *testing.T) {
	const base = "https://x.com/blog/post.html"
	tests := []struct {
		name   string
		ref    string
		want   string
		wantOK bool
	}{
		{"empty", "", "", false},
		{"whitespace only", "   ", "", false},
		{"protocol relative", "//cdn.x.com/a.png", "https://cdn.x.com/a.png", true},
		{"absolute https", "https://other.com/b.jpg", "https://other.com/b.jpg", true},
		{"absolute http", "http://other.com/b.jpg", "http://other.com/b.jpg", true},
		{"root relative", "/a.png", "https://x.com/a.png", true},
		{"path relative resolves against origin", "img/a.png", "https://x.com/img/a.png", true},
		{"trimmed", "  /a.png  ", "https://x.com/a.png", true},
		{"data uri", "data:image/png;base64,AAAA", "", false},
		{"blob uri", "blob:https://x.com/123", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeImageURL(tt.ref, base)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("NormalizeImageURL(%q) = (%q, %v), want (%q, %v)", tt.ref, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNormalizeImageURLBadBase(t *testing.T) {
	if _, ok := NormalizeImageURL("/a.png", "not a url"); ok {
		t.Fatal("relative reference with hostless base should be discarded")
	}
	if got, ok := NormalizeImageURL("https://x.com/a.png", "::bad"); !ok || got != "https://x.com/a.png" {
		t.Fatalf("absolute reference should survive a bad base, got (%q, %v)", got, ok)
	}
}

func TestNormalizedURLsAreAbsolute(t *testing.T) {
	refs := []string{"a.png", "/b.png", "//c.com/c.png", "./d.png", "../e.png", "https://f.com/f.png"}
	for _, ref := range refs {
		got, ok := NormalizeImageURL(ref, "https://x.com/dir/page")
		if !ok {
			t.Fatalf("NormalizeImageURL(%q) discarded", ref)
		}
		if !strings.HasPrefix(got, "http://") && !strings.HasPrefix(got, "https://") {
			t.Errorf("NormalizeImageURL(%q) = %q, not absolute", ref, got)
		}
	}
}

func TestValidateTargetURL(t *testing.T) {
	for _, bad := range []string{"", "ftp://x.com", "x.com/page", "https://", "://nope"} {
		_, err := ValidateTargetURL(bad)
		var invalid *models.InvalidURLError
		if !errors.As(err, &invalid) {
			t.Errorf("ValidateTargetURL(%q) error = %v, want *InvalidURLError", bad, err)
		}
	}
	u, err := ValidateTargetURL(" https://x.com/page ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Host != "x.com" {
		t.Fatalf("host = %q", u.Host)
	}
}

func TestTransformURL(t *testing.T) {
	target := "https://x.com/a b.png?w=1&h=2"

	got := TransformURL("https://t.io/w_800/{url_encoded}", target)
	want := "https://t.io/w_800/https%3A%2F%2Fx.com%2Fa%20b.png%3Fw%3D1%26h%3D2"
	if got != want {
		t.Fatalf("encoded: got %q, want %q", got, want)
	}

	if got := TransformURL("https://relay.io/{url}", target); got != "https://relay.io/"+target {
		t.Fatalf("raw: got %q", got)
	}
}
