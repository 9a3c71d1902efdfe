package sources

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"earnings-transcripts/pkg/failure"
	"earnings-transcripts/pkg/httpclient"
)

type page struct {
	body        string
	contentType string
	finalURL    string // after redirects; defaults to the requested URL
}

// fakeFetcher serves pages keyed by URL; unknown URLs fail with a permanent 404.
type fakeFetcher struct {
	mu        sync.Mutex
	pages     map[string]page
	requested []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: make(map[string]page)}
}

func (f *fakeFetcher) serve(url, body string) *fakeFetcher {
	f.pages[url] = page{body: body, contentType: "text/html; charset=utf-8"}
	return f
}

func (f *fakeFetcher) serveAs(url, body, contentType string) *fakeFetcher {
	f.pages[url] = page{body: body, contentType: contentType}
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) (*httpclient.FetchResult, error) {
	f.mu.Lock()
	f.requested = append(f.requested, rawURL)
	p, ok := f.pages[rawURL]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &httpclient.FetchResult{URL: rawURL}, failure.New(failure.Timeout, "fetch", err)
	}
	if !ok {
		return &httpclient.FetchResult{URL: rawURL, Status: 404, Attempts: 1},
			failure.Newf(failure.Permanent, "fetch "+rawURL, "unexpected status code: %d", 404)
	}
	final := rawURL
	if p.finalURL != "" {
		final = p.finalURL
	}
	return &httpclient.FetchResult{
		URL:         final,
		Status:      200,
		Body:        []byte(p.body),
		ContentType: p.contentType,
		Attempts:    1,
	}, nil
}

var testSpeakers = []string{"Satya Nadella", "Amy Hood", "Brett Iversen", "Keith Weiss", "Mark Moerdler"}

// sampleTranscript builds text that passes validation for ticker and year.
func sampleTranscript(ticker string, year int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Q4 %d Earnings Call Transcript\n\n", ticker, year)
	for i := 0; b.Len() < 2000; i++ {
		fmt.Fprintf(&b, "%s: We delivered strong revenue growth in cloud and AI this quarter.\n\n",
			testSpeakers[i%len(testSpeakers)])
	}
	return b.String()
}

// transcriptHTML wraps a transcript in a page with the transcript inside
// the element with id regionID.
func transcriptHTML(title, regionID, transcript string) string {
	var paras strings.Builder
	for _, line := range strings.Split(transcript, "\n") {
		if strings.TrimSpace(line) != "" {
			fmt.Fprintf(&paras, "<p>%s</p>\n", line)
		}
	}
	return fmt.Sprintf(`<html><head><title>%s</title></head><body>
<nav><a href="/">Home</a> <a href="/markets">Markets</a></nav>
<div id="%s">%s</div>
<footer>Copyright Example Media. All rights reserved worldwide forever.</footer>
</body></html>`, title, regionID, paras.String())
}

const marketingPage = `<html><head><title>Transcripts</title></head><body>
<div id="article-body">
<p>Subscribe to our newsletter to read MSFT Q4 2023 earnings call transcripts.</p>
<p>Sign up for premium membership and start your free trial.</p>
<p>View all transcripts for every company, every quarter, every year.</p>
</div></body></html>`
