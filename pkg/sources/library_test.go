package sources

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"earnings-transcripts/pkg/failure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLibrary struct {
	company *Company
	err     error
	text    string
	got     Event
}

func (l *stubLibrary) Company(context.Context, string) (*Company, error) {
	return l.company, l.err
}

func (l *stubLibrary) Transcript(_ context.Context, _ string, e Event) (string, error) {
	l.got = e
	return l.text, nil
}

func TestLibraryStrategy(t *testing.T) {
	lib := &stubLibrary{
		company: &Company{Symbol: "MSFT", Name: "Microsoft", Events: []Event{
			{Year: 2023, Quarter: 3, ConferenceDate: "2023-04-25"},
			{Year: 2023, Quarter: 4, ConferenceDate: "2023-07-25"},
		}},
		text: "transcript body",
	}

	res, err := NewLibraryStrategy(lib).Try(context.Background(), "msft", 2023, 4)
	require.NoError(t, err)
	assert.Equal(t, Event{Year: 2023, Quarter: 4, ConferenceDate: "2023-07-25"}, lib.got)
	assert.Equal(t, "transcript body", res.TranscriptText)
	assert.Equal(t, "Microsoft", res.CompanyName)
	assert.Equal(t, "2023-07-25", res.CallDate)
	assert.Equal(t, NameLibrary, res.SourceName)
	assert.Equal(t, "MSFT", res.Ticker)
}

func TestLibraryStrategyFailures(t *testing.T) {
	company := &Company{Name: "Microsoft", Events: []Event{{Year: 2023, Quarter: 4}}}

	tests := []struct {
		name string
		lib  *stubLibrary
		want failure.Kind
	}{
		{"unknown company", &stubLibrary{}, failure.Permanent},
		{"no matching event", &stubLibrary{company: &Company{Events: []Event{{Year: 2022, Quarter: 4}}}}, failure.Permanent},
		{"empty text", &stubLibrary{company: company, text: "  "}, failure.Permanent},
		{"lookup error", &stubLibrary{err: errors.New("boom")}, failure.Permanent},
		{"transient lookup error", &stubLibrary{err: failure.Newf(failure.Transient, "fetch", "status 429")}, failure.Transient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLibraryStrategy(tt.lib).Try(context.Background(), "MSFT", 2023, 4)
			require.Error(t, err)
			assert.Equal(t, tt.want, failure.KindOf(err))
		})
	}
}

func TestEarningsCallLibrary(t *testing.T) {
	srv := newAPIServer(t, map[string]http.HandlerFunc{
		"/companies/MSFT": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "key", r.URL.Query().Get("apikey"))
			writeJSON(w, Company{Symbol: "MSFT", Name: "Microsoft", Events: []Event{{Year: 2023, Quarter: 4}}})
		},
		"/transcripts/MSFT": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "2023", r.URL.Query().Get("year"))
			assert.Equal(t, "4", r.URL.Query().Get("quarter"))
			writeJSON(w, map[string]string{"text": "hello"})
		},
	})
	lib := NewEarningsCallLibrary(apiClient(), srv.URL, "key")

	company, err := lib.Company(context.Background(), "msft")
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, "Microsoft", company.Name)

	text, err := lib.Transcript(context.Background(), "MSFT", Event{Year: 2023, Quarter: 4})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	unknown, err := lib.Company(context.Background(), "ZZZZ")
	require.NoError(t, err)
	assert.Nil(t, unknown)
}
