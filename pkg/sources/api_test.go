package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"earnings-transcripts/pkg/failure"
	"earnings-transcripts/pkg/httpclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPIServer(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, h := range routes {
		mux.HandleFunc(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func apiClient() *httpclient.HTTPClient {
	return httpclient.NewClientWithConfig(httpclient.APIClient, httpclient.Config{MaxAttempts: 1})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestAPIStrategyObjectPayload(t *testing.T) {
	text := sampleTranscript("MSFT", 2023)
	srv := newAPIServer(t, map[string]http.HandlerFunc{
		"/earnings/transcript": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "MSFT", r.URL.Query().Get("symbol"))
			assert.Equal(t, "2023", r.URL.Query().Get("year"))
			assert.Equal(t, "4", r.URL.Query().Get("quarter"))
			assert.Equal(t, "secret", r.URL.Query().Get("token"))
			writeJSON(w, map[string]any{
				"company_name": "Microsoft Corporation",
				"call_date":    "2023-07-25",
				"transcript":   text,
				"speakers":     []string{"Satya Nadella", "Amy Hood"},
				"q_and_a":      "Keith Weiss: question",
			})
		},
	})

	s := NewAPIStrategy(apiClient(), srv.URL+"/", "secret", false)
	res, err := s.Try(context.Background(), "msft", 2023, 4)
	require.NoError(t, err)

	assert.Equal(t, NameStructuredAPI, s.Name())
	assert.Equal(t, text, res.TranscriptText)
	assert.Equal(t, "Microsoft Corporation", res.CompanyName)
	assert.Equal(t, "2023-07-25", res.CallDate)
	assert.Equal(t, []string{"Satya Nadella", "Amy Hood"}, res.Speakers)
	assert.Equal(t, "Keith Weiss: question", res.QASection)
	assert.Equal(t, NameStructuredAPI, res.SourceName)
	assert.Equal(t, "MSFT", res.Ticker)
	assert.Equal(t, 2023, res.Year)
	assert.Equal(t, 4, res.Quarter)
}

func TestAPIStrategyArrayPayload(t *testing.T) {
	srv := newAPIServer(t, map[string]http.HandlerFunc{
		"/earnings/transcript": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, []map[string]any{
				{"symbol": "AAPL", "year": 2024, "quarter": 1, "date": "2024-02-01", "content": "Q1 text"},
				{"symbol": "AAPL", "year": 2024, "quarter": 2, "date": "2024-05-02", "content": "Q2 text"},
			})
		},
	})

	res, err := NewAPIStrategy(apiClient(), srv.URL, "", false).Try(context.Background(), "AAPL", 2024, 2)
	require.NoError(t, err)
	assert.Equal(t, "Q2 text", res.TranscriptText)
	assert.Equal(t, "2024-05-02", res.CallDate)
}

func TestAPIStrategyArrayWithoutPeriod(t *testing.T) {
	srv := newAPIServer(t, map[string]http.HandlerFunc{
		"/earnings/transcript": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, []map[string]any{{"symbol": "AAPL", "content": "only text"}})
		},
	})

	res, err := NewAPIStrategy(apiClient(), srv.URL, "", false).Try(context.Background(), "AAPL", 2024, 2)
	require.NoError(t, err)
	assert.Equal(t, "only text", res.TranscriptText)
}

func TestAPIStrategyArrayWrongQuarter(t *testing.T) {
	srv := newAPIServer(t, map[string]http.HandlerFunc{
		"/earnings/transcript": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, []map[string]any{
				{"symbol": "MSFT", "year": 2023, "quarter": 3, "content": "Q3 2023 TRANSCRIPT TEXT"},
			})
		},
	})

	res, err := NewAPIStrategy(apiClient(), srv.URL, "", false).Try(context.Background(), "MSFT", 2023, 4)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, failure.Permanent, failure.KindOf(err))
	assert.Contains(t, err.Error(), "Q4 2023")
}

func TestAPIStrategySpeechListPayload(t *testing.T) {
	srv := newAPIServer(t, map[string]http.HandlerFunc{
		"/earnings/transcript": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"symbol": "NVDA",
				"time":   "2024-02-21 17:00:00",
				"transcript": []map[string]any{
					{"name": "Operator", "speech": []string{"Good afternoon.", "Welcome."}},
					{"name": "Jensen Huang", "speech": []string{"Thank you."}},
					{"name": "Operator", "speech": []string{"First question."}},
				},
			})
		},
	})

	res, err := NewAPIStrategy(apiClient(), srv.URL, "", false).Try(context.Background(), "NVDA", 2024, 4)
	require.NoError(t, err)
	assert.Equal(t, "Operator: Good afternoon. Welcome.\nJensen Huang: Thank you.\nOperator: First question.", res.TranscriptText)
	assert.Equal(t, []string{"Operator", "Jensen Huang"}, res.Speakers)
	assert.Equal(t, "2024-02-21 17:00:00", res.CallDate)
}

func TestAPIStrategyFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    failure.Kind
	}{
		{"missing transcript field", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"company_name": "Zzzz"})
		}, failure.Permanent},
		{"empty array", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, []any{})
		}, failure.Permanent},
		{"other quarter only", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, []map[string]any{
				{"symbol": "ZZZZ", "year": 1999, "quarter": 3, "content": "Q3 1999 TRANSCRIPT TEXT"},
			})
		}, failure.Permanent},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		}, failure.Permanent},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}, failure.Permanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newAPIServer(t, map[string]http.HandlerFunc{"/earnings/transcript": tt.handler})
			_, err := NewAPIStrategy(apiClient(), srv.URL, "", false).Try(context.Background(), "ZZZZ", 1999, 1)
			require.Error(t, err)
			assert.Equal(t, tt.want, failure.KindOf(err))
		})
	}
}

func TestAPIStrategyValidateContent(t *testing.T) {
	srv := newAPIServer(t, map[string]http.HandlerFunc{
		"/earnings/transcript": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"transcript": "Click here to subscribe."})
		},
	})

	trusted, err := NewAPIStrategy(apiClient(), srv.URL, "", false).Try(context.Background(), "MSFT", 2023, 4)
	require.NoError(t, err, "provider content is trusted by default")
	assert.Equal(t, "Click here to subscribe.", trusted.TranscriptText)

	_, err = NewAPIStrategy(apiClient(), srv.URL, "", true).Try(context.Background(), "MSFT", 2023, 4)
	require.Error(t, err)
	assert.Equal(t, failure.Validation, failure.KindOf(err))
	assert.Contains(t, err.Error(), "too-short")
}

func TestAPIStrategyListTranscripts(t *testing.T) {
	srv := newAPIServer(t, map[string]http.HandlerFunc{
		"/earnings/list": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "MSFT", r.URL.Query().Get("symbol"))
			writeJSON(w, map[string]any{
				"company_name": "Microsoft Corporation",
				"transcripts": []map[string]any{
					{"id": "MSFT_2023_4", "title": "MSFT Q4 2023", "year": 2023, "quarter": 4},
				},
			})
		},
	})

	list, err := NewAPIStrategy(apiClient(), srv.URL, "", false).ListTranscripts(context.Background(), "msft")
	require.NoError(t, err)
	assert.Equal(t, "MSFT", list.Ticker)
	assert.Equal(t, "Microsoft Corporation", list.CompanyName)
	require.Len(t, list.Transcripts, 1)
	assert.Equal(t, TranscriptListing{ID: "MSFT_2023_4", Title: "MSFT Q4 2023", Year: 2023, Quarter: 4}, list.Transcripts[0])
}

func TestAPIStrategyCompanyProfile(t *testing.T) {
	srv := newAPIServer(t, map[string]http.HandlerFunc{
		"/company/profile": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("symbol") == "MSFT" {
				writeJSON(w, map[string]any{"name": "Microsoft Corp", "exchange": "NASDAQ", "finnhubIndustry": "Technology"})
				return
			}
			writeJSON(w, map[string]any{})
		},
	})
	s := NewAPIStrategy(apiClient(), srv.URL, "", false)

	p, err := s.CompanyProfile(context.Background(), "msft")
	require.NoError(t, err)
	assert.Equal(t, &CompanyProfile{Ticker: "MSFT", Name: "Microsoft Corp", Exchange: "NASDAQ", Sector: "Technology", Valid: true}, p)

	p, err = s.CompanyProfile(context.Background(), "ZZZZ")
	require.NoError(t, err)
	assert.False(t, p.Valid)

	name, err := s.LookupName(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "Microsoft Corp", name)

	_, err = s.LookupName(context.Background(), "ZZZZ")
	assert.Error(t, err)
}
