// Package sources implements the transcript retrieval strategies: a structured
// financial-data API, a transcript library, site scrapers and direct URLs.
package sources

import (
	"context"
	"errors"
	"fmt"

	"earnings-transcripts/pkg/failure"
)

// Strategy names, in default priority order.
const (
	NameStructuredAPI = "structured-api"
	NameLibrary       = "transcript-library"
	NameDirectURL     = "direct-url"
)

// Strategy retrieves a transcript for a ticker/year/quarter from one source.
// Errors are classified with the failure package.
type Strategy interface {
	Name() string
	Try(ctx context.Context, ticker string, year, quarter int) (*Result, error)
}

// Result is the raw outcome of a successful strategy, before normalization.
type Result struct {
	TranscriptText string
	CompanyName    string
	CallDate       string
	Speakers       []string
	QASection      string
	SourceName     string
	SourceURL      string
	Ticker         string
	Year           int
	Quarter        int
}

// aggregateCandidates turns per-candidate errors into one strategy error.
// Deadline expiry wins, then any validation rejection, otherwise the failure
// is permanent.
func aggregateCandidates(ctx context.Context, op string, errs []error) error {
	joined := errors.Join(errs...)
	if joined == nil {
		joined = errors.New("no candidates")
	}

	if ctx.Err() != nil {
		return failure.New(failure.Timeout, op, fmt.Errorf("%w: %w", ctx.Err(), joined))
	}
	for _, err := range errs {
		if failure.Is(err, failure.Validation) {
			return failure.New(failure.Validation, op, joined)
		}
	}
	return failure.New(failure.Permanent, op, joined)
}

// fetchFailure re-classifies a fetch error so that a context expiry is a timeout.
func fetchFailure(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return failure.New(failure.Timeout, op, err)
	}
	if failure.KindOf(err) == failure.Internal {
		return failure.New(failure.Permanent, op, err)
	}
	return err
}
