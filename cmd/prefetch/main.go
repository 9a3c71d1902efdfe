package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"earnings-transcripts/pkg/config"
	"earnings-transcripts/pkg/db"
	"earnings-transcripts/pkg/logger"
	"earnings-transcripts/pkg/transcriptservice"
	"earnings-transcripts/pkg/worker"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (defaults are used when empty)")
		tickers    = flag.String("tickers", "", "Comma-separated tickers to prefetch, e.g. MSFT,NVDA")
		tickerFile = flag.String("tickers-file", "", "File with one ticker per line (# comments allowed)")
		fromYear   = flag.Int("from", time.Now().Year()-1, "First year to fetch")
		toYear     = flag.Int("to", time.Now().Year(), "Last year to fetch")
		workers    = flag.Int("workers", 0, "Number of parallel workers (0 uses orchestrator.prefetch_workers)")
		refetch    = flag.Bool("refetch", false, "Fetch again even when the transcript is already archived")
	)
	flag.Parse()

	var symbols []string
	switch {
	case *tickerFile != "":
		list, err := worker.ReadTickersFile(*tickerFile)
		if err != nil {
			log.Fatalf("Failed to read tickers: %v", err)
		}
		symbols = list
	case strings.TrimSpace(*tickers) != "":
		symbols = strings.Split(*tickers, ",")
	default:
		log.Fatalf("-tickers or -tickers-file is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	if *workers <= 0 {
		*workers = cfg.Orchestrator.PrefetchWorkers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient := db.NewClient(cfg.Archive.MongoURI, cfg.Archive.Database, cfg.Archive.Collection)
	if err := dbClient.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbClient.Close(context.Background())

	pipeline := transcriptservice.Build(cfg)
	service := transcriptservice.NewService(transcriptservice.Config{
		Getter:      pipeline.Orchestrator,
		Archive:     dbClient,
		WorkerCount: *workers,
	})

	plan := worker.Plan{
		Tickers:  symbols,
		FromYear: *fromYear,
		ToYear:   *toYear,
	}

	start := time.Now()
	summary, err := service.Prefetch(ctx, plan, !*refetch)
	if err != nil {
		log.Fatalf("Prefetch failed: %v", err)
	}
	logger.Log.Infof("Done. %d fetched, %d failed, by source %v. Duration: %s",
		summary.Succeeded, summary.Failed, summary.Sources, time.Since(start))
}
