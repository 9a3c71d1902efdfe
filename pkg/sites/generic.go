package sites

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CanonicalURL returns the page's own absolute URL as declared by
// <link rel="canonical"> or og:url, or "" when neither is present.
// Transcript pages behind tracking redirects often only reveal their
// descriptive slug here.
func CanonicalURL(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	// Strategy 1: canonical link
	if href, ok := doc.Find("link[rel='canonical']").First().Attr("href"); ok {
		if u := absolute(href); u != "" {
			return u
		}
	}

	// Strategy 2: og:url meta tag
	if content, ok := doc.Find("meta[property='og:url']").First().Attr("content"); ok {
		if u := absolute(content); u != "" {
			return u
		}
	}

	return ""
}

// absolute normalizes an absolute http(s) URL and drops its fragment
func absolute(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !parsed.IsAbs() {
		return ""
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	parsed.Fragment = ""
	return parsed.String()
}
