package urls

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"earnings-transcripts/pkg/content"
	"earnings-transcripts/pkg/httpclient"
)

// maxChildSitemaps bounds how many sitemaps of an index are fetched per query.
const maxChildSitemaps = 3

var errEmptySitemap = errors.New("sitemap contains no URLs")

// urlSet is a regular sitemap.
type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Location string `xml:"loc"`
	LastMod  string `xml:"lastmod,omitempty"`
}

// sitemapIndex points at further sitemaps.
type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []sitemapRef `xml:"sitemap"`
}

type sitemapRef struct {
	Location string `xml:"loc"`
	LastMod  string `xml:"lastmod,omitempty"`
}

// SitemapGenerator reads XML sitemaps and keeps the locations that name the
// requested ticker, quarter and year. Sitemap indexes are followed one level
// deep, children mentioning the year first.
type SitemapGenerator struct {
	fetcher  httpclient.Fetcher
	sitemaps []string // URL templates, see Expand
}

// NewSitemapGenerator creates a sitemap generator
func NewSitemapGenerator(fetcher httpclient.Fetcher, sitemaps ...string) *SitemapGenerator {
	return &SitemapGenerator{fetcher: fetcher, sitemaps: sitemaps}
}

// Generate implements Generator
func (g *SitemapGenerator) Generate(ctx context.Context, q Query) ([]string, error) {
	var (
		links []string
		errs  []error
	)
	for _, tmpl := range g.sitemaps {
		found, err := g.fromURL(ctx, Expand(tmpl, q), q, true)
		if err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
		links = append(links, found...)
	}

	if len(links) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return links, nil
}

func (g *SitemapGenerator) fromURL(ctx context.Context, sitemapURL string, q Query, followIndex bool) ([]string, error) {
	res, err := g.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sitemap %s: %w", sitemapURL, err)
	}
	body := res.Text()

	if strings.Contains(body[:min(len(body), 512)], "sitemapindex") {
		if !followIndex {
			return nil, fmt.Errorf("nested sitemap index %s", sitemapURL)
		}
		children, err := parseSitemapIndex(body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse sitemap index %s: %w", sitemapURL, err)
		}

		var (
			links []string
			errs  []error
		)
		for _, child := range pickSitemaps(children, q.Year) {
			found, err := g.fromURL(ctx, child, q, false)
			if err != nil {
				errs = append(errs, err)
				if ctx.Err() != nil {
					break
				}
				continue
			}
			links = append(links, found...)
		}
		if len(links) == 0 && len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return links, nil
	}

	entries, err := parseSitemap(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sitemap %s: %w", sitemapURL, err)
	}

	lq := q.LinkQuery()
	var links []string
	for _, loc := range entries {
		if content.MatchesTranscript(loc, lq) {
			links = append(links, loc)
		}
	}
	return links, nil
}

// pickSitemaps orders index children so that those naming the year come first,
// then the rest newest first, and keeps at most maxChildSitemaps. Indexes list
// numbered children oldest first, so the newest are at the end.
func pickSitemaps(children []string, year int) []string {
	y := fmt.Sprint(year)
	var withYear, rest []string
	for _, c := range children {
		if strings.Contains(c, y) {
			withYear = append(withYear, c)
		}
	}
	for i := len(children) - 1; i >= 0; i-- {
		if !strings.Contains(children[i], y) {
			rest = append(rest, children[i])
		}
	}
	picked := append(withYear, rest...)
	if len(picked) > maxChildSitemaps {
		picked = picked[:maxChildSitemaps]
	}
	return picked
}

func parseSitemapIndex(body string) ([]string, error) {
	var index sitemapIndex
	if err := xml.NewDecoder(strings.NewReader(body)).Decode(&index); err != nil {
		return nil, fmt.Errorf("failed to decode sitemap index XML: %w", err)
	}

	locs := make([]string, 0, len(index.Sitemaps))
	for _, ref := range index.Sitemaps {
		if loc := strings.TrimSpace(ref.Location); loc != "" {
			locs = append(locs, loc)
		}
	}
	if len(locs) == 0 {
		return nil, errEmptySitemap
	}
	return locs, nil
}

func parseSitemap(body string) ([]string, error) {
	var set urlSet
	if err := xml.NewDecoder(strings.NewReader(body)).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode sitemap XML: %w", err)
	}

	locs := make([]string, 0, len(set.URLs))
	for _, u := range set.URLs {
		if loc := strings.TrimSpace(u.Location); loc != "" {
			locs = append(locs, loc)
		}
	}
	if len(locs) == 0 {
		return nil, errEmptySitemap
	}
	return locs, nil
}
