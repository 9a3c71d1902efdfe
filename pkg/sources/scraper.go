package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"earnings-transcripts/pkg/content"
	"earnings-transcripts/pkg/failure"
	"earnings-transcripts/pkg/httpclient"
	"earnings-transcripts/pkg/logger"
	"earnings-transcripts/pkg/sites"
	"earnings-transcripts/pkg/urls"

	"github.com/sirupsen/logrus"
)

// DefaultMaxCandidates bounds the candidate URLs a scraper tries per request.
const DefaultMaxCandidates = 8

var (
	errNoCandidates   = errors.New("no candidate URLs")
	errNoExtractedTxt = errors.New("no text extracted")
)

// ScraperStrategy scrapes one site: it generates candidate URLs, then runs
// fetch, extract and validate on each until one validates.
type ScraperStrategy struct {
	profile       sites.Profile
	fetcher       httpclient.Fetcher
	extractor     content.Extractor
	validator     *content.Validator
	resolver      CompanyResolver
	maxCandidates int
}

// NewScraperStrategy creates a scraper for profile. resolver may be nil.
func NewScraperStrategy(profile sites.Profile, fetcher httpclient.Fetcher, resolver CompanyResolver) *ScraperStrategy {
	return &ScraperStrategy{
		profile:       profile,
		fetcher:       fetcher,
		extractor:     content.NewSelectorExtractor(profile.Selectors...),
		validator:     content.NewValidator(),
		resolver:      resolver,
		maxCandidates: DefaultMaxCandidates,
	}
}

// SetMaxCandidates changes how many candidates are tried. n <= 0 means no limit.
func (s *ScraperStrategy) SetMaxCandidates(n int) {
	s.maxCandidates = n
}

// Name implements Strategy
func (s *ScraperStrategy) Name() string {
	return s.profile.Name
}

// Try implements Strategy
func (s *ScraperStrategy) Try(ctx context.Context, ticker string, year, quarter int) (*Result, error) {
	op := s.Name()
	ticker = strings.ToUpper(ticker)

	companyName := ticker
	if s.resolver != nil {
		companyName = s.resolver.ResolveName(ctx, ticker)
	}

	if s.profile.Candidates == nil {
		return nil, failure.New(failure.Permanent, op, errNoCandidates)
	}
	candidates, err := s.profile.Candidates.Generate(ctx, urls.Query{
		Ticker:      ticker,
		Year:        year,
		Quarter:     quarter,
		CompanyName: companyName,
	})
	if err != nil && len(candidates) == 0 {
		return nil, aggregateCandidates(ctx, op, []error{err})
	}
	if len(candidates) == 0 {
		return nil, failure.New(failure.Permanent, op, errNoCandidates)
	}
	if s.maxCandidates > 0 && len(candidates) > s.maxCandidates {
		candidates = candidates[:s.maxCandidates]
	}

	var errs []error
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}

		text, finalURL, err := s.tryCandidate(ctx, candidate, ticker, year)
		if err != nil {
			logger.Log.WithFields(logrus.Fields{
				"strategy": op,
				"url":      candidate,
			}).Debugf("ScraperStrategy: candidate rejected: %v", err)
			errs = append(errs, fmt.Errorf("%s: %w", candidate, err))
			continue
		}

		return &Result{
			TranscriptText: text,
			CompanyName:    companyName,
			SourceName:     s.Name(),
			SourceURL:      finalURL,
			Ticker:         ticker,
			Year:           year,
			Quarter:        quarter,
		}, nil
	}

	return nil, aggregateCandidates(ctx, op, errs)
}

// tryCandidate fetches, extracts and validates one candidate, following a
// transcript document link when the profile allows it.
func (s *ScraperStrategy) tryCandidate(ctx context.Context, candidate, ticker string, year int) (string, string, error) {
	res, err := s.fetcher.Fetch(ctx, candidate)
	if err != nil {
		return "", "", err
	}

	text, err := pageText(res, s.extractor)
	if err != nil {
		return "", "", err
	}

	outcome := s.validator.Validate(text, ticker, year)
	if outcome.Valid {
		return text, res.URL, nil
	}

	if s.profile.FollowDocumentLinks && !res.IsPDF() {
		if docURL, err := content.FindTranscriptURL(res.Text(), res.URL); err == nil && docURL != res.URL {
			docRes, err := s.fetcher.Fetch(ctx, docURL)
			if err != nil {
				return "", "", err
			}
			docText, err := pageText(docRes, s.extractor)
			if err != nil {
				return "", "", err
			}
			docOutcome := s.validator.Validate(docText, ticker, year)
			if docOutcome.Valid {
				return docText, docRes.URL, nil
			}
			outcome = docOutcome
		}
	}

	return "", "", failure.Newf(failure.Validation, "validate", "rejected: %s", outcome.Reason())
}

// pageText turns a fetched document into candidate transcript text: PDF text
// for PDFs, the body for plain text, the extractor for HTML.
func pageText(res *httpclient.FetchResult, extractor content.Extractor) (string, error) {
	var (
		text string
		err  error
	)
	switch {
	case res.IsPDF():
		text, err = content.ExtractPDFText(res.Body)
	case strings.HasPrefix(strings.ToLower(res.ContentType), "text/plain"):
		text = content.NormalizeWhitespace(res.Text())
	default:
		text, err = extractor.ExtractText(res.Text())
	}
	if err != nil {
		return "", failure.New(failure.Permanent, "extract", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", failure.New(failure.Permanent, "extract", errNoExtractedTxt)
	}
	return text, nil
}
