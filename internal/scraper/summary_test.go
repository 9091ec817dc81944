package scraper

import "testing"

func TestSummarizeFromMeta(t *testing.T) {
	markup := `<html><head>
<meta property="og:site_name" content="  Example   Site ">
<meta name="twitter:title" content="Twitter title">
<meta property="og:image" content="/lead.jpg">
<link rel="shortcut icon" href="/favicon.ico">
<title>Fallback title</title>
</head><body><h1>Heading</h1></body></html>`
	doc, err := NewStaticDocument(markup)
	if err != nil {
		t.Fatalf("NewStaticDocument: %v", err)
	}

	// no raw HTML skips readability so only meta tags contribute
	got := Summarize(doc, "", "https://x.com/post")
	if got.Title != "Twitter title" {
		t.Errorf("title = %q", got.Title)
	}
	if got.SiteName != "Example Site" {
		t.Errorf("site name = %q", got.SiteName)
	}
	if got.LeadImage != "https://x.com/lead.jpg" {
		t.Errorf("lead image = %q", got.LeadImage)
	}
	if got.Favicon != "https://x.com/favicon.ico" {
		t.Errorf("favicon = %q", got.Favicon)
	}
}

func TestSummarizeTitleFallbackOrder(t *testing.T) {
	doc, err := NewStaticDocument(`<title> Page  title </title><h1>Heading</h1>`)
	if err != nil {
		t.Fatalf("NewStaticDocument: %v", err)
	}
	if got := Summarize(doc, "", "https://x.com").Title; got != "Page title" {
		t.Fatalf("title = %q", got)
	}
}

func TestSummarizeNothing(t *testing.T) {
	if got := Summarize(nil, "", "https://x.com"); got.Title != "" || got.LeadImage != "" {
		t.Fatalf("got %+v", got)
	}
}
