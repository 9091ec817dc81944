package scraper

import (
	"reflect"
	"testing"

	"image-extract-scraper/internal/config"
)

func TestStylesheetImageRefs(t *testing.T) {
	sheet := `body { background: #fff url("/body.jpg") repeat-x; }
@font-face { font-family: X; src: url(/x.woff2); }
@media print { .logo { background-image: url('/print-logo.png'); } }
.icon { content: url(icons/star.svg?v=3); }`

	got := stylesheetImageRefs(sheet, config.CompileRegexes())
	want := []string{"/body.jpg", "/print-logo.png", "icons/star.svg?v=3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCSSImageRefsSkipsNonImages(t *testing.T) {
	got := cssImageRefs(`background: url(/a.css), url(/b.gif)`, config.CompileRegexes())
	if !reflect.DeepEqual(got, []string{"/b.gif"}) {
		t.Fatalf("got %v", got)
	}
}

func TestInlineBackgroundImage(t *testing.T) {
	urlValue := config.CompileRegexes()["cssURLValue"]
	tests := map[string]string{
		"background-image: url('/a.png'); color: red": "/a.png",
		"background: #000 url(/b.jpg) no-repeat":      "/b.jpg",
		"background-image: url('/hero?id=7')":         "/hero?id=7",
		"color: red; background-image: url(/c.webp)":  "/c.webp",
		"color: red":                                  "",
		"background: #000":                            "",
		"":                                            "",
	}
	for style, want := range tests {
		got := ""
		if m := urlValue.FindStringSubmatch(inlineBackgroundImage(style)); len(m) == 2 {
			got = m[1]
		}
		if got != want {
			t.Errorf("background url of %q = %q, want %q", style, got, want)
		}
	}
}
