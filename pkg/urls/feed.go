package urls

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"earnings-transcripts/pkg/content"
	"earnings-transcripts/pkg/httpclient"

	"github.com/mmcdole/gofeed"
)

var errEmptyFeed = errors.New("feed contains no items")

// FeedGenerator reads RSS/Atom feeds and keeps the items whose title or link
// matches the requested transcript.
type FeedGenerator struct {
	fetcher    httpclient.Fetcher
	feeds      []string // URL templates, see Expand
	feedParser *gofeed.Parser
}

// NewFeedGenerator creates a feed generator. Feeds are fetched through fetcher
// so that retries, timeouts and the rate limit apply.
func NewFeedGenerator(fetcher httpclient.Fetcher, feeds ...string) *FeedGenerator {
	return &FeedGenerator{
		fetcher:    fetcher,
		feeds:      feeds,
		feedParser: gofeed.NewParser(),
	}
}

// Generate implements Generator
func (g *FeedGenerator) Generate(ctx context.Context, q Query) ([]string, error) {
	var (
		links []string
		errs  []error
	)
	for _, tmpl := range g.feeds {
		feedURL := Expand(tmpl, q)
		res, err := g.fetcher.Fetch(ctx, feedURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to fetch feed %s: %w", feedURL, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		found, err := g.parse(res.Text(), q)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to parse feed %s: %w", feedURL, err))
			continue
		}
		links = append(links, found...)
	}

	if len(links) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return links, nil
}

func (g *FeedGenerator) parse(body string, q Query) ([]string, error) {
	feed, err := g.feedParser.ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed: %w", err)
	}
	if feed == nil || len(feed.Items) == 0 {
		return nil, errEmptyFeed
	}

	lq := q.LinkQuery()
	var links []string
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		if content.MatchesTranscript(item.Title+" "+item.Link, lq) &&
			strings.Contains(strings.ToLower(item.Title+" "+item.Link), "transcript") {
			links = append(links, item.Link)
		}
	}
	return links, nil
}
