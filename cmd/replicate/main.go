package main

import (
	"context"
	"flag"
	"log"
	"time"

	"earnings-transcripts/pkg/config"
	"earnings-transcripts/pkg/db"
	"earnings-transcripts/pkg/logger"
	"earnings-transcripts/pkg/replication"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (defaults are used when empty)")
		target     = flag.String("target", "postgres", "Replication target: postgres or supabase")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx := context.Background()

	mongo := db.NewClient(cfg.Archive.MongoURI, cfg.Archive.Database, cfg.Archive.Collection)
	if err := mongo.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongo.Close(ctx)

	var dest db.DBProvider
	switch *target {
	case "postgres":
		pg := db.NewPostgresClient(db.PostgresConfig{DSN: cfg.Archive.PostgresDSN})
		if err := pg.Connect(ctx); err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pg.Close()
		dest = pg
	case "supabase":
		sb := db.NewSupabaseClient(db.SupabaseConfig{
			SupabaseURL: cfg.Archive.SupabaseURL,
			SupabaseKey: cfg.Archive.SupabaseKey,
			Password:    cfg.Archive.SupabasePassword,
		})
		if err := sb.Connect(ctx); err != nil {
			log.Fatalf("Failed to connect to Supabase: %v", err)
		}
		defer sb.Close()
		dest = sb
	default:
		log.Fatalf("Unknown target %q", *target)
	}

	replicator, err := replication.NewReplicator(replication.Config{Mongo: mongo, Postgres: dest})
	if err != nil {
		log.Fatalf("Failed to create replicator: %v", err)
	}

	start := time.Now()
	stats, err := replicator.ReplicateTranscripts(ctx)
	if err != nil {
		log.Fatalf("Replication failed: %v", err)
	}
	log.Printf("Done. Processed %d, wrote %d. Duration: %s", stats.Processed, stats.Inserted, time.Since(start))
}
