package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"earnings-transcripts/pkg/domain"
	"earnings-transcripts/pkg/failure"
	"earnings-transcripts/pkg/httpclient"
	"earnings-transcripts/pkg/sites"
	"earnings-transcripts/pkg/sources"
	"earnings-transcripts/pkg/urls"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioTranscript(ticker string, year int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s fourth quarter %d earnings conference call.\n\n", ticker, year)
	turns := []string{
		"Operator: Good afternoon and welcome to the call.",
		"CEO: Revenue grew across every segment this quarter.",
		"CFO: Margins expanded on lower input costs.",
		"Analyst: Can you talk about the outlook for next year?",
	}
	for i := 0; b.Len() < 2000; i++ {
		b.WriteString(turns[i%len(turns)])
		b.WriteString("\n\n")
	}
	return b.String()
}

func newClient() *httpclient.HTTPClient {
	return httpclient.NewClientWithConfig(httpclient.CloudflareClient, httpclient.Config{})
}

func scenarioProfile(name string, templates ...string) sites.Profile {
	return sites.Profile{
		Name:       name,
		Domains:    []string{"127.0.0.1"},
		Selectors:  []string{"#article-body"},
		Candidates: urls.NewPatternGenerator(templates...),
	}
}

// Scenario 1: the structured API answers, nothing else runs.
func TestScenarioStructuredAPI(t *testing.T) {
	text := scenarioTranscript("MSFT", 2023)
	var scraped atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/earnings/transcript", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"company_name": "Microsoft", "transcript": text})
	})
	mux.HandleFunc("/site/", func(w http.ResponseWriter, r *http.Request) {
		scraped.Add(1)
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newClient()
	o := New(0, nil,
		sources.NewAPIStrategy(client, srv.URL+"/api", "", false),
		sources.NewScraperStrategy(scenarioProfile("motley-fool", srv.URL+"/site/{ticker}"), client, nil),
	)

	rec, err := o.GetTranscript(context.Background(), domain.TranscriptRequest{Ticker: "MSFT", Year: 2023, Quarter: 4})
	require.NoError(t, err)
	assert.Equal(t, sources.NameStructuredAPI, rec.SourceName)
	assert.NotEmpty(t, rec.TranscriptText)
	assert.Equal(t, "Microsoft", rec.CompanyName)
	assert.Contains(t, rec.Speakers, "Operator")
	assert.Zero(t, scraped.Load())
}

// Scenario 2: no source has the transcript.
func TestScenarioNothingFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/site/promo/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div id="article-body">
<p>Subscribe to our newsletter for ZZZZ 1999 earnings coverage and more.</p>
</div></body></html>`))
	})
	srv := httptest.NewServer(mux) // everything else is 404
	defer srv.Close()

	client := newClient()
	strategies := []sources.Strategy{
		sources.NewAPIStrategy(client, srv.URL+"/api", "", false),
		sources.NewLibraryStrategy(sources.NewEarningsCallLibrary(client, srv.URL+"/library", "")),
		sources.NewScraperStrategy(scenarioProfile("motley-fool", srv.URL+"/site/fool/{ticker}"), client, nil),
		sources.NewScraperStrategy(scenarioProfile("alphastreet", srv.URL+"/site/promo/{ticker}"), client, nil),
	}

	_, err := New(0, nil, strategies...).GetTranscript(context.Background(),
		domain.TranscriptRequest{Ticker: "ZZZZ", Year: 1999, Quarter: 1})

	var agg *AggregateFailure
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Attempts, len(strategies))
	for i, a := range agg.Attempts {
		assert.Equal(t, strategies[i].Name(), a.Strategy)
		assert.Contains(t, []failure.Kind{failure.Permanent, failure.Validation}, a.Kind, a.Strategy)
	}
	assert.Equal(t, failure.Validation, agg.Attempts[3].Kind)
}

// Scenario 4: the page is rate limited twice, then served.
func TestScenarioRetriedFetchSucceeds(t *testing.T) {
	text := scenarioTranscript("NVDA", 2024)
	var hits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/site/nvda", func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprintf(w, `<html><body><div id="article-body"><pre>%s</pre></div></body></html>`, text)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var (
		mu     sync.Mutex
		sleeps []time.Duration
	)
	client := newClient()
	client.SetSleep(func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		sleeps = append(sleeps, d)
		mu.Unlock()
		return ctx.Err()
	})

	o := New(0, nil,
		sources.NewAPIStrategy(client, srv.URL+"/api", "", false),
		sources.NewScraperStrategy(scenarioProfile("seeking-alpha", srv.URL+"/site/{ticker}"), client, nil),
	)

	rec, err := o.GetTranscript(context.Background(), domain.TranscriptRequest{Ticker: "NVDA", Year: 2024, Quarter: 4})
	require.NoError(t, err)
	assert.Equal(t, "seeking-alpha", rec.SourceName)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps)
}
