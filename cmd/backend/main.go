package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"earnings-transcripts/pkg/api"
	"earnings-transcripts/pkg/config"
	"earnings-transcripts/pkg/db"
	"earnings-transcripts/pkg/logger"
	"earnings-transcripts/pkg/transcriptservice"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (defaults are used when empty)")
		addr       = flag.String("addr", "", "Listen address, overrides server.backend_addr")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	if *addr != "" {
		cfg.Server.BackendAddr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var archive db.Archive
	if cfg.Archive.Enabled {
		dbClient := db.NewClient(cfg.Archive.MongoURI, cfg.Archive.Database, cfg.Archive.Collection)
		if err := dbClient.Connect(ctx); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer dbClient.Close(context.Background())
		archive = dbClient
	}

	pipeline := transcriptservice.Build(cfg)
	var provider api.Provider
	if pipeline.Provider != nil {
		provider = pipeline.Provider
	}

	srv := &http.Server{
		Addr:              cfg.Server.BackendAddr,
		Handler:           api.NewServer(pipeline.Orchestrator, provider, archive).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Log.Infof("Backend listening on %s, sources: %v", srv.Addr, pipeline.Orchestrator.Sources())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Backend failed: %v", err)
	}
}
