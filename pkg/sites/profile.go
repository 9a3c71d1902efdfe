// Package sites describes the third-party sites transcripts are scraped from:
// where their candidate URLs come from and which regions hold the transcript.
package sites

import (
	"earnings-transcripts/pkg/content"
	"earnings-transcripts/pkg/httpclient"
	"earnings-transcripts/pkg/urls"
)

// Profile describes one scrape target
type Profile struct {
	Name      string
	Domains   []string // hosts (and their subdomains) the site serves transcripts from
	Selectors []string // transcript regions, highest priority first
	// Candidates proposes transcript URLs for a query. Nil for profiles only
	// used to pick selectors for direct URLs.
	Candidates urls.Generator
	// FollowDocumentLinks makes the scraper look for a PDF/TXT transcript
	// link on candidate pages that do not validate themselves.
	FollowDocumentLinks bool
}

// Matches reports whether rawURL is served by the site
func (p Profile) Matches(rawURL string) bool {
	return httpclient.HostAllowed(rawURL, p.Domains)
}

// ForURL returns the first profile serving rawURL
func ForURL(profiles []Profile, rawURL string) (Profile, bool) {
	for _, p := range profiles {
		if p.Matches(rawURL) {
			return p, true
		}
	}
	return Profile{}, false
}

// AllSelectors returns the union of the profiles' selectors followed by the
// generic ones, without duplicates.
func AllSelectors(profiles []Profile) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	add := func(sels []string) {
		for _, s := range sels {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	for _, p := range profiles {
		add(p.Selectors)
	}
	add(content.GenericSelectors)
	return out
}

// Domains returns every domain of the profiles, for the fetcher's redirect allow-list
func Domains(profiles []Profile) []string {
	var out []string
	for _, p := range profiles {
		out = append(out, p.Domains...)
	}
	return out
}
