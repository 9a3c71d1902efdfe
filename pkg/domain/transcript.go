package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"earnings-transcripts/pkg/failure"
)

const (
	MinYear = 1990
	MaxYear = 2100
)

// TranscriptRequest asks for one transcript, either by ticker/year/quarter or by URL.
type TranscriptRequest struct {
	Ticker  string `json:"ticker,omitempty"`
	Year    int    `json:"year,omitempty"`
	Quarter int    `json:"quarter,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Normalize trims fields and upper-cases the ticker.
func (r TranscriptRequest) Normalize() TranscriptRequest {
	r.Ticker = strings.ToUpper(strings.TrimSpace(r.Ticker))
	r.URL = strings.TrimSpace(r.URL)
	return r
}

// IsDirect reports whether the request names a URL instead of a ticker.
func (r TranscriptRequest) IsDirect() bool {
	return r.URL != ""
}

func (r TranscriptRequest) hasTickerPart() bool {
	return r.Ticker != "" || r.Year != 0 || r.Quarter != 0
}

// Validate checks that exactly one request form is present and well formed.
// Errors are classified as failure.Input.
func (r TranscriptRequest) Validate() error {
	const op = "validate request"

	if r.URL != "" {
		if r.hasTickerPart() {
			return failure.Newf(failure.Input, op, "provide either ticker, year and quarter or a url, not both")
		}
		u, err := url.Parse(r.URL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return failure.Newf(failure.Input, op, "url must be an absolute http or https URL: %q", r.URL)
		}
		return nil
	}

	if !r.hasTickerPart() {
		return failure.Newf(failure.Input, op, "provide either ticker, year and quarter or a url")
	}
	if r.Ticker == "" {
		return failure.Newf(failure.Input, op, "ticker is required")
	}
	if !validTicker(r.Ticker) {
		return failure.Newf(failure.Input, op, "invalid ticker %q", r.Ticker)
	}
	if r.Year < MinYear || r.Year > MaxYear {
		return failure.Newf(failure.Input, op, "year must be between %d and %d, got %d", MinYear, MaxYear, r.Year)
	}
	if r.Quarter < 1 || r.Quarter > 4 {
		return failure.Newf(failure.Input, op, "quarter must be between 1 and 4, got %d", r.Quarter)
	}
	return nil
}

func validTicker(t string) bool {
	if len(t) > 10 {
		return false
	}
	for _, c := range t {
		switch {
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-':
		default:
			return false
		}
	}
	return true
}

// Key identifies the request in logs and archives.
func (r TranscriptRequest) Key() string {
	if r.IsDirect() {
		return r.URL
	}
	return TranscriptKey(r.Ticker, r.Year, r.Quarter)
}

// TranscriptKey formats a ticker/year/quarter triple, e.g. "MSFT-2023-Q4".
func TranscriptKey(ticker string, year, quarter int) string {
	return fmt.Sprintf("%s-%d-Q%d", strings.ToUpper(ticker), year, quarter)
}

// TranscriptRecord is a successfully retrieved transcript.
type TranscriptRecord struct {
	Ticker         string    `json:"ticker" bson:"ticker"`
	CompanyName    string    `json:"company_name" bson:"company_name"`
	Year           int       `json:"year" bson:"year"`
	Quarter        int       `json:"quarter" bson:"quarter"`
	CallDate       string    `json:"call_date,omitempty" bson:"call_date,omitempty"`
	TranscriptText string    `json:"transcript_text" bson:"transcript_text"`
	Speakers       []string  `json:"speakers" bson:"speakers"`
	QASection      string    `json:"q_and_a_section" bson:"q_and_a_section"`
	SourceName     string    `json:"source_name" bson:"source_name"`
	SourceURL      string    `json:"source_url,omitempty" bson:"source_url,omitempty"`
	RetrievedAt    time.Time `json:"retrieved_at" bson:"retrieved_at"`
}

// Key returns the archive key for the record.
func (t *TranscriptRecord) Key() string {
	if t.Ticker != "" && t.Year != 0 && t.Quarter != 0 {
		return TranscriptKey(t.Ticker, t.Year, t.Quarter)
	}
	return t.SourceURL
}
