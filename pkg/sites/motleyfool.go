package sites

import (
	"earnings-transcripts/pkg/httpclient"
	"earnings-transcripts/pkg/urls"
)

// MotleyFool transcripts live under /earnings/call-transcripts/ with a dated
// path, so candidates come from the quote pages and the site search.
func MotleyFool(fetcher httpclient.Fetcher) Profile {
	listing := urls.NewListingGenerator(fetcher,
		"https://www.fool.com/quote/nasdaq/{ticker}/",
		"https://www.fool.com/quote/nyse/{ticker}/",
		"https://www.fool.com/search/?q={query}",
	)

	return Profile{
		Name:    "motley-fool",
		Domains: []string{"fool.com"},
		Selectors: []string{
			"#article-body",
			".article-body",
			".tailwind-article-body",
			"article",
		},
		Candidates: urls.NewChain(listing).WithFilters(
			urls.NewAllowedDomainFilter("fool.com"),
			urls.NewContainsPathFilter("/earnings/call-transcripts/"),
		),
	}
}
