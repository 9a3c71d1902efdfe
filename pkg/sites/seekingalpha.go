package sites

import (
	"earnings-transcripts/pkg/httpclient"
	"earnings-transcripts/pkg/urls"
)

// SeekingAlpha publishes a per-symbol RSS feed that includes transcript
// articles; the transcripts listing page is the fallback.
func SeekingAlpha(fetcher httpclient.Fetcher) Profile {
	feed := urls.NewFeedGenerator(fetcher,
		"https://seekingalpha.com/api/sa/combined/{TICKER}.xml",
	)
	listing := urls.NewListingGenerator(fetcher,
		"https://seekingalpha.com/symbol/{TICKER}/earnings/transcripts",
	)

	return Profile{
		Name:    "seeking-alpha",
		Domains: []string{"seekingalpha.com"},
		Selectors: []string{
			"div[data-test-id='content-container']",
			"[data-test-id='article-content']",
			"#a-body",
			"article",
		},
		Candidates: urls.NewChain(feed, listing).WithFilters(
			urls.NewAllowedDomainFilter("seekingalpha.com"),
			urls.NewContainsPathFilter("/article/"),
		),
	}
}
