package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"earnings-transcripts/pkg/failure"
	"earnings-transcripts/pkg/httpclient"
)

var (
	errNoCompany = errors.New("company not found in transcript library")
	errNoEvent   = errors.New("no earnings event for the requested quarter")
)

// Event is one earnings call known to a transcript library.
type Event struct {
	Year           int    `json:"year"`
	Quarter        int    `json:"quarter"`
	ConferenceDate string `json:"conference_date"`
}

// Company is a transcript-library company with its earnings events.
type Company struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Events []Event `json:"events"`
}

// TranscriptLibrary is a third-party transcript catalogue.
type TranscriptLibrary interface {
	// Company returns nil, nil when the ticker is unknown.
	Company(ctx context.Context, ticker string) (*Company, error)
	Transcript(ctx context.Context, ticker string, event Event) (string, error)
}

// LibraryStrategy retrieves transcripts through a TranscriptLibrary.
type LibraryStrategy struct {
	library TranscriptLibrary
}

// NewLibraryStrategy creates the transcript-library strategy
func NewLibraryStrategy(library TranscriptLibrary) *LibraryStrategy {
	return &LibraryStrategy{library: library}
}

// Name implements Strategy
func (s *LibraryStrategy) Name() string {
	return NameLibrary
}

// Try implements Strategy
func (s *LibraryStrategy) Try(ctx context.Context, ticker string, year, quarter int) (*Result, error) {
	const op = "transcript-library"

	company, err := s.library.Company(ctx, ticker)
	if err != nil {
		return nil, fetchFailure(ctx, op, err)
	}
	if company == nil {
		return nil, failure.New(failure.Permanent, op, fmt.Errorf("%w: %s", errNoCompany, ticker))
	}

	var (
		event Event
		found bool
	)
	for _, e := range company.Events {
		if e.Year == year && e.Quarter == quarter {
			event, found = e, true
			break
		}
	}
	if !found {
		return nil, failure.New(failure.Permanent, op, fmt.Errorf("%w: %s Q%d %d", errNoEvent, ticker, quarter, year))
	}

	text, err := s.library.Transcript(ctx, ticker, event)
	if err != nil {
		return nil, fetchFailure(ctx, op, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, failure.New(failure.Permanent, op, errEmptyTranscript)
	}

	name := company.Name
	if name == "" {
		name = strings.ToUpper(ticker)
	}
	return &Result{
		TranscriptText: text,
		CompanyName:    name,
		CallDate:       event.ConferenceDate,
		SourceName:     s.Name(),
		Ticker:         strings.ToUpper(ticker),
		Year:           year,
		Quarter:        quarter,
	}, nil
}

// EarningsCallLibrary is an HTTP transcript library:
//
//	GET {base}/companies/{ticker}                       -> Company
//	GET {base}/transcripts/{ticker}?year=&quarter=      -> {"text": "..."}
type EarningsCallLibrary struct {
	fetcher httpclient.Fetcher
	baseURL string
	apiKey  string
}

// NewEarningsCallLibrary creates an HTTP-backed library
func NewEarningsCallLibrary(fetcher httpclient.Fetcher, baseURL, apiKey string) *EarningsCallLibrary {
	return &EarningsCallLibrary{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Company implements TranscriptLibrary. A 404 means the ticker is unknown.
func (l *EarningsCallLibrary) Company(ctx context.Context, ticker string) (*Company, error) {
	res, err := l.fetcher.Fetch(ctx, l.endpoint("/companies/"+url.PathEscape(strings.ToUpper(ticker)), nil))
	if err != nil {
		if res != nil && res.Status == 404 {
			return nil, nil
		}
		return nil, err
	}

	var company Company
	if err := json.Unmarshal(res.Body, &company); err != nil {
		return nil, failure.New(failure.Permanent, "library-company", fmt.Errorf("failed to decode company: %w", err))
	}
	return &company, nil
}

// Transcript implements TranscriptLibrary
func (l *EarningsCallLibrary) Transcript(ctx context.Context, ticker string, event Event) (string, error) {
	params := url.Values{}
	params.Set("year", fmt.Sprint(event.Year))
	params.Set("quarter", fmt.Sprint(event.Quarter))

	res, err := l.fetcher.Fetch(ctx, l.endpoint("/transcripts/"+url.PathEscape(strings.ToUpper(ticker)), params))
	if err != nil {
		return "", err
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return "", failure.New(failure.Permanent, "library-transcript", fmt.Errorf("failed to decode transcript: %w", err))
	}
	return payload.Text, nil
}

func (l *EarningsCallLibrary) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	if l.apiKey != "" {
		params.Set("apikey", l.apiKey)
	}
	u := l.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}
