package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"earnings-transcripts/pkg/config"
	"earnings-transcripts/pkg/domain"
	"earnings-transcripts/pkg/logger"
	"earnings-transcripts/pkg/orchestrator"
	"earnings-transcripts/pkg/transcriptservice"
)

// One-shot retrieval: prints the transcript record as JSON on stdout.
func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (defaults are used when empty)")
		ticker     = flag.String("ticker", "", "Stock ticker, e.g. MSFT")
		year       = flag.Int("year", 0, "Fiscal year of the call")
		quarter    = flag.Int("quarter", 0, "Quarter of the call, 1-4")
		rawURL     = flag.String("url", "", "Direct transcript URL, instead of ticker/year/quarter")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	req := domain.TranscriptRequest{Ticker: *ticker, Year: *year, Quarter: *quarter, URL: *rawURL}
	pipeline := transcriptservice.Build(cfg)

	rec, err := pipeline.Orchestrator.GetTranscript(context.Background(), req)
	if err != nil {
		var agg *orchestrator.AggregateFailure
		if errors.As(err, &agg) {
			for _, a := range agg.Attempts {
				fmt.Fprintf(os.Stderr, "  %-20s %-18s %s\n", a.Strategy, a.Kind, a.Reason)
			}
			fmt.Fprintln(os.Stderr, agg.Suggestion)
		}
		log.Fatalf("Failed to get transcript: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		log.Fatalf("Failed to write transcript: %v", err)
	}
}
