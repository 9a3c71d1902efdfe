package urls

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"earnings-transcripts/pkg/content"
	"earnings-transcripts/pkg/logger"
)

// Query describes the transcript candidates are generated for.
type Query struct {
	Ticker      string
	Year        int
	Quarter     int
	CompanyName string // may be empty or equal to the ticker
}

// LinkQuery converts q to the content package's link matcher input.
func (q Query) LinkQuery() content.LinkQuery {
	return content.LinkQuery{Ticker: q.Ticker, Year: q.Year, Quarter: q.Quarter}
}

// Generator proposes candidate transcript URLs for a query, most promising first.
type Generator interface {
	Generate(ctx context.Context, q Query) ([]string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, q Query) ([]string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, q Query) ([]string, error) {
	return f(ctx, q)
}

// Chain runs generators in order and returns their candidates deduplicated and
// filtered. Order is preserved: earlier generators' candidates come first.
type Chain struct {
	generators []Generator
	filters    []UrlFilter
}

// NewChain creates a chain of generators
func NewChain(generators ...Generator) *Chain {
	return &Chain{generators: generators}
}

// WithFilters sets the filters applied to every candidate
func (c *Chain) WithFilters(filters ...UrlFilter) *Chain {
	c.filters = filters
	return c
}

// Generate collects candidates from every generator. A failing generator is
// logged and skipped; an error is returned only when nothing was produced and
// at least one generator failed, or when ctx ends.
func (c *Chain) Generate(ctx context.Context, q Query) ([]string, error) {
	var (
		out  []string
		errs []error
		seen = make(map[string]bool)
	)

	for _, g := range c.generators {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		candidates, err := g.Generate(ctx, q)
		if err != nil {
			logger.Log.WithField("ticker", q.Ticker).Debugf("Chain: generator %T failed: %v", g, err)
			errs = append(errs, err)
		}

		filtered, ferr := FilterURLs(ctx, candidates, c.filters...)
		if ferr != nil {
			return out, ferr
		}
		for _, u := range filtered {
			if !seen[u] {
				seen[u] = true
				out = append(out, u)
			}
		}
	}

	if len(out) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("no candidates generated: %w", errors.Join(errs...))
	}
	return out, nil
}

// Expand substitutes query values into a URL template. Supported placeholders:
//
//	{ticker}   lower-case ticker      {TICKER}  upper-case ticker
//	{year}     four-digit year        {quarter} quarter number
//	{company}  company slug, or the lower-case ticker when the name is unknown
//	{query}    URL-escaped "<TICKER> Q<quarter> <year> earnings call transcript"
func Expand(template string, q Query) string {
	r := strings.NewReplacer(
		"{ticker}", strings.ToLower(q.Ticker),
		"{TICKER}", strings.ToUpper(q.Ticker),
		"{year}", fmt.Sprint(q.Year),
		"{quarter}", fmt.Sprint(q.Quarter),
		"{company}", companySlug(q),
		"{query}", url.QueryEscape(SearchQuery(q)),
	)
	return r.Replace(template)
}

// SearchQuery is the free-text query used for site searches.
func SearchQuery(q Query) string {
	return fmt.Sprintf("%s Q%d %d earnings call transcript", strings.ToUpper(q.Ticker), q.Quarter, q.Year)
}

func companySlug(q Query) string {
	if q.CompanyName == "" || strings.EqualFold(q.CompanyName, q.Ticker) {
		return strings.ToLower(q.Ticker)
	}
	return Slug(q.CompanyName)
}

var corporateSuffixes = map[string]bool{
	"inc": true, "incorporated": true, "corp": true, "corporation": true,
	"co": true, "company": true, "ltd": true, "limited": true, "plc": true,
	"holdings": true, "group": true, "sa": true, "nv": true, "ag": true,
}

// Slug turns a company name into a URL slug, dropping corporate suffixes:
// "Microsoft Corporation" becomes "microsoft", "Meta Platforms, Inc." becomes
// "meta-platforms".
func Slug(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for len(words) > 1 && corporateSuffixes[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, "-")
}
