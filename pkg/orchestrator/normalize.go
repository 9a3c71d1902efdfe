package orchestrator

import (
	"errors"
	"strings"
	"time"

	"earnings-transcripts/pkg/content"
	"earnings-transcripts/pkg/domain"
	"earnings-transcripts/pkg/failure"
	"earnings-transcripts/pkg/sources"
)

var errEmptyTranscript = errors.New("strategy returned empty transcript text")

// Normalize maps a strategy result onto a TranscriptRecord. Missing identity
// fields are taken from the request; speakers and the Q&A section are derived
// from the text when the strategy did not supply them.
func Normalize(res *sources.Result, req domain.TranscriptRequest, now time.Time) (*domain.TranscriptRecord, error) {
	if res == nil {
		return nil, failure.New(failure.Permanent, "normalize", errEmptyTranscript)
	}
	text := content.NormalizeWhitespace(res.TranscriptText)
	if text == "" {
		return nil, failure.New(failure.Permanent, "normalize", errEmptyTranscript)
	}

	ticker := strings.ToUpper(strings.TrimSpace(res.Ticker))
	if ticker == "" {
		ticker = req.Ticker
	}
	year := res.Year
	if year == 0 {
		year = req.Year
	}
	quarter := res.Quarter
	if quarter == 0 {
		quarter = req.Quarter
	}

	company := strings.TrimSpace(res.CompanyName)
	if company == "" {
		company = ticker
	}

	speakers := res.Speakers
	if len(speakers) == 0 {
		speakers = content.ParseSpeakers(text)
	}
	if speakers == nil {
		speakers = []string{}
	}

	qa := strings.TrimSpace(res.QASection)
	if qa == "" {
		qa = content.SplitQA(text)
	}

	sourceURL := res.SourceURL
	if sourceURL == "" && req.IsDirect() {
		sourceURL = req.URL
	}

	return &domain.TranscriptRecord{
		Ticker:         ticker,
		CompanyName:    company,
		Year:           year,
		Quarter:        quarter,
		CallDate:       res.CallDate,
		TranscriptText: text,
		Speakers:       speakers,
		QASection:      qa,
		SourceName:     res.SourceName,
		SourceURL:      sourceURL,
		RetrievedAt:    now.UTC(),
	}, nil
}
