package sources

import (
	"context"

	"earnings-transcripts/pkg/content"
	"earnings-transcripts/pkg/failure"
	"earnings-transcripts/pkg/httpclient"
	"earnings-transcripts/pkg/logger"
	"earnings-transcripts/pkg/sites"

	"github.com/sirupsen/logrus"
)

// DirectStrategy retrieves a transcript from a caller-supplied URL. There is
// no discovery: one fetch, extract, validate.
type DirectStrategy struct {
	fetcher   httpclient.Fetcher
	profiles  []sites.Profile
	fallback  []string
	validator *content.Validator
}

// NewDirectStrategy creates the direct-URL strategy. profiles pick the
// selectors by host; unknown hosts use all of them plus the generic ones.
func NewDirectStrategy(fetcher httpclient.Fetcher, profiles ...sites.Profile) *DirectStrategy {
	return &DirectStrategy{
		fetcher:   fetcher,
		profiles:  profiles,
		fallback:  sites.AllSelectors(profiles),
		validator: content.NewValidator(),
	}
}

// Name returns the strategy name
func (s *DirectStrategy) Name() string {
	return NameDirectURL
}

// TryURL fetches rawURL and validates its transcript without ticker or year
// checks. Ticker, year and quarter are inferred from the page where possible.
func (s *DirectStrategy) TryURL(ctx context.Context, rawURL string) (*Result, error) {
	op := s.Name()

	res, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fetchFailure(ctx, op, err)
	}

	selectors := s.fallback
	if p, ok := sites.ForURL(s.profiles, res.URL); ok {
		selectors = append(append([]string{}, p.Selectors...), content.GenericSelectors...)
	}

	extractor := content.NewSelectorExtractor(selectors...)
	text, err := pageText(res, extractor)
	if err != nil {
		return nil, failure.New(failure.Permanent, op, err)
	}

	if outcome := s.validator.Validate(text, "", 0); !outcome.Valid {
		return nil, failure.Newf(failure.Validation, op, "rejected: %s", outcome.Reason())
	}

	var title, pageURL string
	if !res.IsPDF() {
		title, _ = extractor.ExtractTitle(res.Text())
		pageURL = sites.CanonicalURL(res.Text())
	}
	if pageURL == "" {
		pageURL = res.URL
	}
	id := InferIdentity(title, pageURL)

	logger.Log.WithFields(logrus.Fields{
		"strategy": op,
		"url":      res.URL,
		"ticker":   id.Ticker,
	}).Debug("DirectStrategy: transcript accepted")

	return &Result{
		TranscriptText: text,
		CompanyName:    id.CompanyName,
		SourceName:     op,
		SourceURL:      res.URL,
		Ticker:         id.Ticker,
		Year:           id.Year,
		Quarter:        id.Quarter,
	}, nil
}
