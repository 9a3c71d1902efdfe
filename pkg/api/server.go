// Package api serves the transcript pipeline as a JSON-over-HTTP backend.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"earnings-transcripts/pkg/db"
	"earnings-transcripts/pkg/domain"
	"earnings-transcripts/pkg/sources"
)

// MaxSearchResults caps the matches returned by /search-transcript.
const MaxSearchResults = 50

const archiveTimeout = 5 * time.Second

// TranscriptService retrieves transcripts. *orchestrator.Orchestrator implements it.
type TranscriptService interface {
	GetTranscript(ctx context.Context, req domain.TranscriptRequest) (*domain.TranscriptRecord, error)
	Sources() []string
}

// Provider answers the catalogue endpoints. *sources.APIStrategy implements it.
type Provider interface {
	ListTranscripts(ctx context.Context, ticker string) (*sources.TranscriptList, error)
	CompanyProfile(ctx context.Context, ticker string) (*sources.CompanyProfile, error)
}

// Server routes backend requests.
type Server struct {
	svc      TranscriptService
	provider Provider
	archive  db.Archive
	mux      *http.ServeMux
}

// NewServer wires the routes. provider and archive may be nil; the catalogue
// endpoints then answer 503 and successful transcripts are not stored.
func NewServer(svc TranscriptService, provider Provider, archive db.Archive) *Server {
	s := &Server{
		svc:      svc,
		provider: provider,
		archive:  archive,
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /get-transcript", s.handleGetTranscript)
	s.mux.HandleFunc("POST /list-transcripts", s.handleListTranscripts)
	s.mux.HandleFunc("POST /search-transcript", s.handleSearchTranscript)
	s.mux.HandleFunc("POST /company-info", s.handleCompanyInfo)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

// Handler returns the routes wrapped in request-ID, logging and recovery middleware.
func (s *Server) Handler() http.Handler {
	return withRequestID(withRecovery(s.mux))
}

// requestBody is the union of all POST bodies. company_ticker is accepted as
// an alias of ticker.
type requestBody struct {
	Ticker        string `json:"ticker"`
	CompanyTicker string `json:"company_ticker"`
	Year          int    `json:"year"`
	Quarter       int    `json:"quarter"`
	URL           string `json:"url"`
	SearchQuery   string `json:"search_query"`
}

func (b requestBody) ticker() string {
	if b.Ticker != "" {
		return b.Ticker
	}
	return b.CompanyTicker
}

func (b requestBody) transcriptRequest() domain.TranscriptRequest {
	return domain.TranscriptRequest{
		Ticker:  b.ticker(),
		Year:    b.Year,
		Quarter: b.Quarter,
		URL:     b.URL,
	}.Normalize()
}

func decodeBody(w http.ResponseWriter, r *http.Request) (requestBody, error) {
	var body requestBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&body); err != nil {
		return body, err
	}
	return body, nil
}

// saveToArchive copies rec to the archive. Failures are logged only.
func (s *Server) saveToArchive(ctx context.Context, rec *domain.TranscriptRecord) {
	if s.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	if err := s.archive.SaveTranscript(ctx, rec); err != nil {
		requestLog(ctx).WithField("key", rec.Key()).Warnf("Archive save failed: %v", err)
	}
}
