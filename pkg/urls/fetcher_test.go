package urls

import (
	"context"

	"earnings-transcripts/pkg/failure"
	"earnings-transcripts/pkg/httpclient"
)

// fakeFetcher serves canned bodies keyed by URL and records requested URLs.
type fakeFetcher struct {
	pages     map[string]string
	requested []string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (*httpclient.FetchResult, error) {
	f.requested = append(f.requested, rawURL)
	body, ok := f.pages[rawURL]
	if !ok {
		return &httpclient.FetchResult{URL: rawURL, Status: 404, Attempts: 1},
			failure.Newf(failure.Permanent, "fetch", "unexpected status code: %d", 404)
	}
	return &httpclient.FetchResult{URL: rawURL, Status: 200, Body: []byte(body), Attempts: 1}, nil
}

