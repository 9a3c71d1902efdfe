package urls

import (
	"context"
	"errors"
	"fmt"

	"earnings-transcripts/pkg/content"
	"earnings-transcripts/pkg/httpclient"
	"earnings-transcripts/pkg/logger"
)

// LinkExtractor extracts transcript links from a fetched page
type LinkExtractor func(html, baseURL string, q content.LinkQuery) ([]string, error)

// ListingGenerator fetches listing or search pages and extracts transcript links from them
type ListingGenerator struct {
	fetcher   httpclient.Fetcher
	pages     []string // URL templates, see Expand
	extractor LinkExtractor
}

// NewListingGenerator creates a listing generator over the given page templates.
// Links are extracted with content.FindTranscriptLinks.
func NewListingGenerator(fetcher httpclient.Fetcher, pages ...string) *ListingGenerator {
	return NewListingGeneratorWithExtractor(fetcher, content.FindTranscriptLinks, pages...)
}

// NewListingGeneratorWithExtractor creates a listing generator with a specific extractor
func NewListingGeneratorWithExtractor(fetcher httpclient.Fetcher, extractor LinkExtractor, pages ...string) *ListingGenerator {
	return &ListingGenerator{
		fetcher:   fetcher,
		pages:     pages,
		extractor: extractor,
	}
}

// Generate implements Generator. Pages that fail to load or contain no
// matching links are skipped.
func (g *ListingGenerator) Generate(ctx context.Context, q Query) ([]string, error) {
	if g.extractor == nil {
		return nil, fmt.Errorf("extractor function is not set")
	}

	var (
		links []string
		errs  []error
	)
	for _, tmpl := range g.pages {
		page := Expand(tmpl, q)
		res, err := g.fetcher.Fetch(ctx, page)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to fetch listing %s: %w", page, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		found, err := g.extractor(res.Text(), res.URL, q.LinkQuery())
		if err != nil {
			logger.Log.Debugf("ListingGenerator: no links on %s: %v", page, err)
			continue
		}
		links = append(links, found...)
	}

	if len(links) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return links, nil
}
