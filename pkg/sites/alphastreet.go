package sites

import (
	"earnings-transcripts/pkg/httpclient"
	"earnings-transcripts/pkg/urls"
)

// AlphaStreet article slugs are predictable from the company name, so the
// pattern comes first, then the WordPress search and the post sitemap.
func AlphaStreet(fetcher httpclient.Fetcher) Profile {
	patterns := urls.NewPatternGenerator(
		"https://news.alphastreet.com/{company}-{ticker}-q{quarter}-{year}-earnings-call-transcript/",
		"https://news.alphastreet.com/{ticker}-q{quarter}-{year}-earnings-call-transcript/",
	)
	search := urls.NewListingGenerator(fetcher,
		"https://news.alphastreet.com/?s={query}",
	)
	sitemap := urls.NewSitemapGenerator(fetcher,
		"https://news.alphastreet.com/sitemap_index.xml",
	)

	return Profile{
		Name:    "alphastreet",
		Domains: []string{"alphastreet.com"},
		Selectors: []string{
			".highlighter-content",
			".entry-content",
			"article",
		},
		Candidates: urls.NewChain(patterns, search, sitemap).WithFilters(
			urls.NewAllowedDomainFilter("alphastreet.com"),
			urls.NewBaseURLFilter(),
		),
	}
}
