// Package facade exposes the transcript backend as MCP tools.
package facade

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"earnings-transcripts/pkg/logger"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "earnings_call_transcript_tools"
	serverVersion = "1.0.0"
)

var usageExamples = []string{
	"By quarter: ticker='AAPL', year=2024, quarter=1",
	"Direct URL: url='https://www.fool.com/earnings/call-transcripts/...'",
}

var troubleshooting = []string{
	"Check that the backend is running and reachable at the configured backend_url",
	"Run: go run ./cmd/backend",
}

type getTranscriptArgs struct {
	Ticker  string `json:"ticker,omitempty" jsonschema:"stock ticker symbol such as MSFT or AAPL"`
	Year    int    `json:"year,omitempty" jsonschema:"year of the earnings call such as 2023"`
	Quarter int    `json:"quarter,omitempty" jsonschema:"quarter of the earnings call from 1 to 4"`
	URL     string `json:"url,omitempty" jsonschema:"direct URL of an earnings call transcript page"`
}

type validateTickerArgs struct {
	Ticker string `json:"ticker" jsonschema:"stock ticker symbol to validate"`
}

type searchTranscriptsArgs struct {
	Ticker      string `json:"ticker" jsonschema:"stock ticker symbol"`
	StartYear   int    `json:"start_year,omitempty" jsonschema:"first year of the range to list"`
	EndYear     int    `json:"end_year,omitempty" jsonschema:"last year of the range to list"`
	Year        int    `json:"year,omitempty" jsonschema:"year of one call to search inside"`
	Quarter     int    `json:"quarter,omitempty" jsonschema:"quarter of one call to search inside"`
	SearchQuery string `json:"search_query,omitempty" jsonschema:"text to find inside the transcript of year and quarter"`
}

// NewServer builds the MCP server with get_transcript, validate_ticker and
// search_transcripts, each forwarding to backend.
func NewServer(backend *Backend) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	t := &tools{backend: backend}

	mcp.AddTool(server, &mcp.Tool{
		Name: "get_transcript",
		Description: "Fetches an earnings call transcript. Provide either ticker, year and quarter, or a direct URL. " +
			"Sources are tried in order: financial-data API, transcript library, Motley Fool, Seeking Alpha, AlphaStreet, official sources.",
	}, t.getTranscript)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_ticker",
		Description: "Validates a stock ticker and returns the company name, exchange and sector.",
	}, t.validateTicker)

	mcp.AddTool(server, &mcp.Tool{
		Name: "search_transcripts",
		Description: "Lists the transcripts available for a company, optionally within a year range. " +
			"With year, quarter and search_query it searches inside that transcript instead.",
	}, t.searchTranscripts)

	return server
}

type tools struct {
	backend *Backend
}

func (t *tools) getTranscript(ctx context.Context, _ *mcp.CallToolRequest, args getTranscriptArgs) (*mcp.CallToolResult, any, error) {
	var payload map[string]any
	switch {
	case args.Ticker != "" && args.Year != 0 && args.Quarter != 0:
		payload = map[string]any{
			"ticker":  strings.ToUpper(strings.TrimSpace(args.Ticker)),
			"year":    args.Year,
			"quarter": args.Quarter,
		}
		logger.Log.Infof("MCP: multi-source search for %s Q%d %d", payload["ticker"], args.Quarter, args.Year)
	case args.URL != "":
		payload = map[string]any{"url": args.URL}
		logger.Log.Infof("MCP: direct URL %s", args.URL)
	default:
		return jsonResult(map[string]any{
			"success":        false,
			"error":          "Please provide either (1) ticker, year, and quarter or (2) a direct URL",
			"usage_examples": usageExamples,
		}, true)
	}

	resp, err := t.backend.Post(ctx, "/get-transcript", payload)
	if err != nil {
		return unreachable(err)
	}
	if resp.Success() {
		if source, _ := resp.Body["source_name"].(string); source != "" {
			resp.Body["source_info"] = "Retrieved from " + source
			logger.Log.Infof("MCP: transcript retrieved from %s", source)
		}
	} else {
		resp.Body["status_code"] = resp.Status
	}
	return jsonResult(resp.Body, !resp.Success())
}

func (t *tools) validateTicker(ctx context.Context, _ *mcp.CallToolRequest, args validateTickerArgs) (*mcp.CallToolResult, any, error) {
	ticker := strings.ToUpper(strings.TrimSpace(args.Ticker))
	if ticker == "" {
		return jsonResult(map[string]any{"success": false, "error": "ticker is required"}, true)
	}

	resp, err := t.backend.Post(ctx, "/company-info", map[string]any{"ticker": ticker})
	if err != nil {
		return unreachable(err)
	}
	if !resp.Success() {
		return jsonResult(resp.Body, true)
	}

	data, _ := resp.Body["data"].(map[string]any)
	valid, _ := data["is_valid"].(bool)
	out := map[string]any{
		"success": true,
		"ticker":  ticker,
		"valid":   valid,
		"company": data,
	}
	if valid {
		out["message"] = fmt.Sprintf("Ticker %s is valid. Use get_transcript to fetch earnings calls.", ticker)
	} else {
		out["message"] = fmt.Sprintf("Ticker %s was not recognised.", ticker)
	}
	return jsonResult(out, false)
}

func (t *tools) searchTranscripts(ctx context.Context, _ *mcp.CallToolRequest, args searchTranscriptsArgs) (*mcp.CallToolResult, any, error) {
	ticker := strings.ToUpper(strings.TrimSpace(args.Ticker))
	if ticker == "" {
		return jsonResult(map[string]any{"success": false, "error": "ticker is required"}, true)
	}

	if strings.TrimSpace(args.SearchQuery) != "" {
		resp, err := t.backend.Post(ctx, "/search-transcript", map[string]any{
			"ticker":       ticker,
			"year":         args.Year,
			"quarter":      args.Quarter,
			"search_query": args.SearchQuery,
		})
		if err != nil {
			return unreachable(err)
		}
		return jsonResult(resp.Body, !resp.Success())
	}

	resp, err := t.backend.Post(ctx, "/list-transcripts", map[string]any{"ticker": ticker})
	if err != nil {
		return unreachable(err)
	}
	if !resp.Success() {
		return jsonResult(resp.Body, true)
	}
	if data, ok := resp.Body["data"].(map[string]any); ok {
		data["available_transcripts"] = filterYears(data["available_transcripts"], args.StartYear, args.EndYear)
	}
	return jsonResult(resp.Body, false)
}

// filterYears keeps listings whose year lies in [from, to]; zero bounds are open.
func filterYears(v any, from, to int) []any {
	items, _ := v.([]any)
	out := make([]any, 0, len(items))
	for _, it := range items {
		m, _ := it.(map[string]any)
		year, _ := m["year"].(float64)
		if from != 0 && int(year) < from {
			continue
		}
		if to != 0 && int(year) > to {
			continue
		}
		out = append(out, it)
	}
	return out
}

func unreachable(err error) (*mcp.CallToolResult, any, error) {
	logger.Log.Errorf("MCP: backend unreachable: %v", err)
	return jsonResult(map[string]any{
		"success":         false,
		"error":           "Connection to backend service failed: " + err.Error(),
		"troubleshooting": troubleshooting,
	}, true)
}

func jsonResult(body map[string]any, isError bool) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: isError,
	}, nil, nil
}

// HealthHandler reports the facade status together with the backend's /health.
func HealthHandler(backend *Backend) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := map[string]any{}
		healthy := false
		if resp, err := backend.Get(r.Context(), "/health"); err == nil && resp.Status == http.StatusOK {
			healthy = true
			info = resp.Body
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"service": "earnings-call-mcp-server",
			"backend": map[string]any{
				"url":     backend.baseURL,
				"healthy": healthy,
				"info":    info,
			},
		})
	})
}

// SourcesHandler reports the transcript sources the backend has registered.
func SourcesHandler(backend *Backend) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := map[string]any{
			"backend_connected": false,
			"message":           "Cannot reach backend service",
		}
		if resp, err := backend.Get(r.Context(), "/health"); err == nil && resp.Status == http.StatusOK {
			sources, _ := resp.Body["sources"].([]any)
			if sources == nil {
				sources = []any{}
			}
			out = map[string]any{
				"backend_connected":  true,
				"configured_sources": sources,
				"message":            "Check backend logs for per-source attempts",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
}
