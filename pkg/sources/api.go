package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"earnings-transcripts/pkg/content"
	"earnings-transcripts/pkg/failure"
	"earnings-transcripts/pkg/httpclient"
	"earnings-transcripts/pkg/logger"

	"github.com/sirupsen/logrus"
)

var (
	errEmptyTranscript = errors.New("provider returned no transcript text")
	errEmptyPayload    = errors.New("provider returned an empty payload")
)

// APIStrategy fetches transcripts from a structured financial-data provider.
type APIStrategy struct {
	fetcher  httpclient.Fetcher
	baseURL  string
	apiKey   string
	validate bool
}

// NewAPIStrategy creates the structured-API strategy. Provider content is
// trusted unless validateContent is set.
func NewAPIStrategy(fetcher httpclient.Fetcher, baseURL, apiKey string, validateContent bool) *APIStrategy {
	return &APIStrategy{
		fetcher:  fetcher,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		validate: validateContent,
	}
}

// Name implements Strategy
func (s *APIStrategy) Name() string {
	return NameStructuredAPI
}

// apiSpeech is one speaker turn in providers that return the transcript as a list.
type apiSpeech struct {
	Name   string   `json:"name"`
	Speech []string `json:"speech"`
}

// apiTranscript is the object-shaped payload.
type apiTranscript struct {
	Symbol      string          `json:"symbol"`
	CompanyName string          `json:"company_name"`
	CallDate    string          `json:"call_date"`
	Time        string          `json:"time"`
	Transcript  json.RawMessage `json:"transcript"`
	Speakers    []string        `json:"speakers"`
	QAndA       string          `json:"q_and_a"`
}

// apiTranscriptEntry is one element of the array-shaped payload.
type apiTranscriptEntry struct {
	Symbol  string `json:"symbol"`
	Year    int    `json:"year"`
	Quarter int    `json:"quarter"`
	Date    string `json:"date"`
	Content string `json:"content"`
}

// Try implements Strategy
func (s *APIStrategy) Try(ctx context.Context, ticker string, year, quarter int) (*Result, error) {
	const op = "structured-api"

	params := url.Values{}
	params.Set("symbol", strings.ToUpper(ticker))
	params.Set("year", strconv.Itoa(year))
	params.Set("quarter", strconv.Itoa(quarter))

	res, err := s.get(ctx, "/earnings/transcript", params)
	if err != nil {
		return nil, fetchFailure(ctx, op, err)
	}

	result, err := parseTranscriptPayload(res.Body, year, quarter)
	if err != nil {
		return nil, failure.New(failure.Permanent, op, err)
	}
	result.Ticker = strings.ToUpper(ticker)
	result.Year = year
	result.Quarter = quarter
	result.SourceName = s.Name()

	if s.validate {
		if outcome := content.Validate(result.TranscriptText, ticker, year); !outcome.Valid {
			return nil, failure.Newf(failure.Validation, op, "provider transcript rejected: %s", outcome.Reason())
		}
	}

	logger.Log.WithFields(logrus.Fields{
		"strategy": s.Name(),
		"ticker":   result.Ticker,
		"chars":    len(result.TranscriptText),
	}).Debug("APIStrategy: transcript received")
	return result, nil
}

// parseTranscriptPayload accepts either an object payload or an array of
// entries, picking the entry for year/quarter when the array holds several.
func parseTranscriptPayload(body []byte, year, quarter int) (*Result, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return nil, errEmptyPayload
	}

	if strings.HasPrefix(trimmed, "[") {
		var entries []apiTranscriptEntry
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, fmt.Errorf("failed to decode transcript array: %w", err)
		}
		if len(entries) == 0 {
			return nil, errEmptyPayload
		}
		entry, ok := matchEntry(entries, year, quarter)
		if !ok {
			return nil, fmt.Errorf("provider has no transcript for Q%d %d", quarter, year)
		}
		if strings.TrimSpace(entry.Content) == "" {
			return nil, errEmptyTranscript
		}
		return &Result{TranscriptText: entry.Content, CallDate: entry.Date}, nil
	}

	var payload apiTranscript
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}

	text, speakers, err := transcriptText(payload.Transcript)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, errEmptyTranscript
	}
	if len(payload.Speakers) > 0 {
		speakers = payload.Speakers
	}

	callDate := payload.CallDate
	if callDate == "" {
		callDate = payload.Time
	}
	return &Result{
		TranscriptText: text,
		CompanyName:    payload.CompanyName,
		CallDate:       callDate,
		Speakers:       speakers,
		QASection:      payload.QAndA,
	}, nil
}

// matchEntry picks the entry for year/quarter. Entries without any period
// information are taken to be the requested one.
func matchEntry(entries []apiTranscriptEntry, year, quarter int) (apiTranscriptEntry, bool) {
	for _, e := range entries {
		if e.Year == year && e.Quarter == quarter {
			return e, true
		}
	}
	if entries[0].Year == 0 && entries[0].Quarter == 0 {
		return entries[0], true
	}
	return apiTranscriptEntry{}, false
}

// transcriptText decodes a transcript given either as a string or as a list
// of speaker turns. Turns are rendered as "Name: speech" lines.
func transcriptText(raw json.RawMessage) (string, []string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil, nil
	}

	var turns []apiSpeech
	if err := json.Unmarshal(raw, &turns); err != nil {
		return "", nil, fmt.Errorf("unexpected transcript field: %w", err)
	}

	var (
		b        strings.Builder
		speakers []string
		seen     = make(map[string]bool)
	)
	for _, t := range turns {
		name := strings.TrimSpace(t.Name)
		if name != "" && !seen[name] {
			seen[name] = true
			speakers = append(speakers, name)
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(strings.Join(t.Speech, " "))
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), speakers, nil
}

// TranscriptListing is one available transcript reported by the provider.
type TranscriptListing struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	Time    string `json:"time,omitempty"`
	Year    int    `json:"year"`
	Quarter int    `json:"quarter"`
}

// TranscriptList is the provider's list of transcripts for a company.
type TranscriptList struct {
	Ticker      string              `json:"company_ticker"`
	CompanyName string              `json:"company_name"`
	Transcripts []TranscriptListing `json:"available_transcripts"`
}

// ListTranscripts lists the transcripts the provider holds for ticker.
func (s *APIStrategy) ListTranscripts(ctx context.Context, ticker string) (*TranscriptList, error) {
	const op = "list-transcripts"

	params := url.Values{}
	params.Set("symbol", strings.ToUpper(ticker))

	res, err := s.get(ctx, "/earnings/list", params)
	if err != nil {
		return nil, fetchFailure(ctx, op, err)
	}

	var payload struct {
		CompanyName string              `json:"company_name"`
		Transcripts []TranscriptListing `json:"transcripts"`
	}
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return nil, failure.New(failure.Permanent, op, fmt.Errorf("failed to decode transcript list: %w", err))
	}

	name := payload.CompanyName
	if name == "" {
		name = "Unknown"
	}
	return &TranscriptList{
		Ticker:      strings.ToUpper(ticker),
		CompanyName: name,
		Transcripts: payload.Transcripts,
	}, nil
}

// CompanyProfile describes a listed company.
type CompanyProfile struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"company_name"`
	Exchange string `json:"exchange"`
	Sector   string `json:"sector"`
	Valid    bool   `json:"is_valid"`
}

// CompanyProfile looks up a ticker. An unknown ticker yields a profile with
// Valid set to false rather than an error.
func (s *APIStrategy) CompanyProfile(ctx context.Context, ticker string) (*CompanyProfile, error) {
	const op = "company-profile"

	params := url.Values{}
	params.Set("symbol", strings.ToUpper(ticker))

	res, err := s.get(ctx, "/company/profile", params)
	if err != nil {
		return nil, fetchFailure(ctx, op, err)
	}

	var payload struct {
		Name     string `json:"name"`
		Exchange string `json:"exchange"`
		Sector   string `json:"sector"`
		Industry string `json:"finnhubIndustry"`
	}
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return nil, failure.New(failure.Permanent, op, fmt.Errorf("failed to decode company profile: %w", err))
	}

	sector := payload.Sector
	if sector == "" {
		sector = payload.Industry
	}
	return &CompanyProfile{
		Ticker:   strings.ToUpper(ticker),
		Name:     payload.Name,
		Exchange: payload.Exchange,
		Sector:   sector,
		Valid:    payload.Name != "",
	}, nil
}

// LookupName implements NameLookup
func (s *APIStrategy) LookupName(ctx context.Context, ticker string) (string, error) {
	p, err := s.CompanyProfile(ctx, ticker)
	if err != nil {
		return "", err
	}
	if !p.Valid {
		return "", fmt.Errorf("unknown ticker %s", p.Ticker)
	}
	return p.Name, nil
}

func (s *APIStrategy) get(ctx context.Context, path string, params url.Values) (*httpclient.FetchResult, error) {
	if s.apiKey != "" {
		params.Set("token", s.apiKey)
	}
	return s.fetcher.Fetch(ctx, s.baseURL+path+"?"+params.Encode())
}
