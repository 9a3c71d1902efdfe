package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"earnings-transcripts/pkg/content"
	"earnings-transcripts/pkg/domain"
	"earnings-transcripts/pkg/failure"
	"earnings-transcripts/pkg/orchestrator"
)

var errNoProvider = errors.New("no financial-data provider configured")

type transcriptResponse struct {
	Success bool `json:"success"`
	*domain.TranscriptRecord
}

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorResponse struct {
	Success        bool                   `json:"success"`
	Error          string                 `json:"error"`
	SearchAttempts []orchestrator.Attempt `json:"search_attempts,omitempty"`
	Suggestion     string                 `json:"suggestion,omitempty"`
}

type searchResult struct {
	Ticker       string              `json:"company_ticker"`
	Year         int                 `json:"year"`
	Quarter      int                 `json:"quarter"`
	SearchQuery  string              `json:"search_query"`
	ResultsCount int                 `json:"results_count"`
	Results      []content.LineMatch `json:"results"`
	SourceName   string              `json:"source_name"`
}

type healthResponse struct {
	Status  string   `json:"status"`
	Service string   `json:"service"`
	Sources []string `json:"sources"`
	Archive bool     `json:"archive"`
}

func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, r, failure.New(failure.Input, "decode body", err))
		return
	}
	req := body.transcriptRequest()
	requestLog(r.Context()).WithField("request", req.Key()).Info("Fetching transcript")

	rec, err := s.svc.GetTranscript(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.saveToArchive(r.Context(), rec)
	writeJSON(w, r, http.StatusOK, transcriptResponse{Success: true, TranscriptRecord: rec})
}

func (s *Server) handleSearchTranscript(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, r, failure.New(failure.Input, "decode body", err))
		return
	}
	query := strings.TrimSpace(body.SearchQuery)
	if query == "" {
		writeError(w, r, failure.Newf(failure.Input, "search transcript", "search_query is required"))
		return
	}
	req := body.transcriptRequest()
	if req.IsDirect() {
		writeError(w, r, failure.Newf(failure.Input, "search transcript", "search requires ticker, year and quarter"))
		return
	}

	rec, err := s.svc.GetTranscript(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.saveToArchive(r.Context(), rec)

	matches, total := content.SearchLines(rec.TranscriptText, query, MaxSearchResults)
	if matches == nil {
		matches = []content.LineMatch{}
	}
	writeJSON(w, r, http.StatusOK, dataResponse{Success: true, Data: searchResult{
		Ticker:       rec.Ticker,
		Year:         rec.Year,
		Quarter:      rec.Quarter,
		SearchQuery:  query,
		ResultsCount: total,
		Results:      matches,
		SourceName:   rec.SourceName,
	}})
}

func (s *Server) handleListTranscripts(w http.ResponseWriter, r *http.Request) {
	ticker, ok := s.catalogueTicker(w, r)
	if !ok {
		return
	}
	list, err := s.provider.ListTranscripts(r.Context(), ticker)
	if err != nil {
		writeError(w, r, fmt.Errorf("failed to list transcripts: %w", err))
		return
	}
	writeJSON(w, r, http.StatusOK, dataResponse{Success: true, Data: list})
}

func (s *Server) handleCompanyInfo(w http.ResponseWriter, r *http.Request) {
	ticker, ok := s.catalogueTicker(w, r)
	if !ok {
		return
	}
	profile, err := s.provider.CompanyProfile(r.Context(), ticker)
	if err != nil {
		writeError(w, r, fmt.Errorf("failed to validate ticker: %w", err))
		return
	}
	writeJSON(w, r, http.StatusOK, dataResponse{Success: true, Data: profile})
}

// catalogueTicker decodes the body of a ticker-only endpoint. It writes the
// error response itself and reports whether the handler should continue.
func (s *Server) catalogueTicker(w http.ResponseWriter, r *http.Request) (string, bool) {
	if s.provider == nil {
		writeJSON(w, r, http.StatusServiceUnavailable, errorResponse{Error: errNoProvider.Error()})
		return "", false
	}
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, r, failure.New(failure.Input, "decode body", err))
		return "", false
	}
	ticker := strings.ToUpper(strings.TrimSpace(body.ticker()))
	if ticker == "" {
		writeError(w, r, failure.Newf(failure.Input, "decode body", "ticker is required"))
		return "", false
	}
	return ticker, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:  "ok",
		Service: "earnings-transcripts-backend",
		Sources: s.svc.Sources(),
		Archive: s.archive != nil,
	})
}

// writeError maps an error to its HTTP status: input 400, aggregate failure
// 404 (504 when the deadline was hit), timeout 504, a failing upstream
// provider 502, anything else 404 with the original error text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var agg *orchestrator.AggregateFailure
	if errors.As(err, &agg) {
		status := http.StatusNotFound
		if agg.TimedOut {
			status = http.StatusGatewayTimeout
		}
		writeJSON(w, r, status, errorResponse{
			Error:          agg.Error(),
			SearchAttempts: agg.Attempts,
			Suggestion:     agg.Suggestion,
		})
		return
	}

	status := http.StatusNotFound
	switch failure.KindOf(err) {
	case failure.Input:
		status = http.StatusBadRequest
	case failure.Timeout:
		status = http.StatusGatewayTimeout
	case failure.Permanent, failure.Transient:
		status = http.StatusBadGateway
	}
	writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		requestLog(r.Context()).Warnf("Failed to write response: %v", err)
	}
}
