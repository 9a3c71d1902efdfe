// Package replication copies archived transcripts from MongoDB into the
// relational transcript table.
package replication

import (
	"context"
	"fmt"
	"sync"

	"earnings-transcripts/pkg/db"
	"earnings-transcripts/pkg/domain"
	"earnings-transcripts/pkg/logger"
)

const (
	batchSize  = 100
	numWorkers = 5
)

// Source reads every archived transcript. *db.Client implements it.
type Source interface {
	GetAllTranscripts(ctx context.Context) ([]domain.TranscriptRecord, error)
}

// restUpserter is the write path for targets without a direct SQL handle
// (a Supabase project configured with URL and key only).
type restUpserter interface {
	UpsertTranscripts(ctx context.Context, recs []domain.TranscriptRecord) error
}

// Config wires the replication dependencies.
type Config struct {
	Mongo    Source
	Postgres db.DBProvider
}

// Replicator replicates transcripts from MongoDB to Postgres. It is a
// one-shot copy of everything; keys already present are skipped.
type Replicator struct {
	mongo Source
	pg    db.DBProvider
}

// Stats summarises one run.
type Stats struct {
	Processed int
	Inserted  int
}

func NewReplicator(cfg Config) (*Replicator, error) {
	if cfg.Mongo == nil {
		return nil, fmt.Errorf("mongo client is required")
	}
	if cfg.Postgres == nil {
		return nil, fmt.Errorf("postgres client is required")
	}
	return &Replicator{
		mongo: cfg.Mongo,
		pg:    cfg.Postgres,
	}, nil
}

// ReplicateTranscripts reads all transcripts from Mongo and writes the ones
// missing from the target in parallel batches.
func (r *Replicator) ReplicateTranscripts(ctx context.Context) (Stats, error) {
	if r.pg.DB() != nil {
		if err := db.EnsureTranscriptSchema(ctx, r.pg.DB()); err != nil {
			return Stats{}, err
		}
	} else if _, ok := r.pg.(restUpserter); !ok {
		return Stats{}, fmt.Errorf("postgres DB not connected")
	}

	recs, err := r.mongo.GetAllTranscripts(ctx)
	if err != nil {
		return Stats{}, err
	}
	logger.Log.Infof("Replication: loaded %d transcripts from Mongo", len(recs))

	stats, err := r.processBatches(ctx, recs)
	if err != nil {
		return stats, err
	}

	logger.Log.Infof("Replication complete: processed %d transcripts, wrote %d", stats.Processed, stats.Inserted)
	return stats, nil
}

func (r *Replicator) processBatches(ctx context.Context, recs []domain.TranscriptRecord) (Stats, error) {
	type batchJob struct {
		batch      []domain.TranscriptRecord
		start, end int
	}
	type batchResult struct {
		processed int
		inserted  int
		err       error
	}

	batches := splitBatches(recs, batchSize)
	jobs := make(chan batchJob, len(batches))
	results := make(chan batchResult, len(batches))

	start := 0
	for _, b := range batches {
		jobs <- batchJob{batch: b, start: start, end: start + len(b)}
		start += len(b)
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				inserted, err := r.processBatch(ctx, job.batch, job.start, job.end)
				results <- batchResult{processed: len(job.batch), inserted: inserted, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// Fail fast; the buffered results channel lets the remaining workers finish.
	var stats Stats
	for res := range results {
		if res.err != nil {
			return stats, res.err
		}
		stats.Processed += res.processed
		stats.Inserted += res.inserted
		if stats.Processed%1000 == 0 {
			logger.Log.Infof("Replication progress: %d/%d processed, %d written", stats.Processed, len(recs), stats.Inserted)
		}
	}
	return stats, nil
}

func (r *Replicator) processBatch(ctx context.Context, batch []domain.TranscriptRecord, start, end int) (int, error) {
	log := logger.Log.WithField("batch", fmt.Sprintf("%d:%d", start, end))

	sqlDB := r.pg.DB()
	if sqlDB == nil {
		// REST targets upsert on the key column, so no existence check is needed.
		keyed := withKeys(batch)
		if len(keyed) == 0 {
			return 0, nil
		}
		if err := r.pg.(restUpserter).UpsertTranscripts(ctx, keyed); err != nil {
			return 0, fmt.Errorf("upsert batch [%d:%d]: %w", start, end, err)
		}
		log.Debugf("Upserted %d transcripts", len(keyed))
		return len(keyed), nil
	}

	existing, err := db.ExistingKeys(ctx, sqlDB, keysOf(batch))
	if err != nil {
		return 0, fmt.Errorf("check existing keys for batch [%d:%d]: %w", start, end, err)
	}

	toInsert := filterNew(batch, existing)
	if len(toInsert) == 0 {
		return 0, nil
	}
	if err := db.InsertTranscripts(ctx, sqlDB, toInsert); err != nil {
		return 0, fmt.Errorf("insert batch [%d:%d]: %w", start, end, err)
	}
	log.Debugf("Inserted %d transcripts", len(toInsert))
	return len(toInsert), nil
}

func splitBatches(recs []domain.TranscriptRecord, size int) [][]domain.TranscriptRecord {
	var out [][]domain.TranscriptRecord
	for start := 0; start < len(recs); start += size {
		end := min(start+size, len(recs))
		out = append(out, recs[start:end])
	}
	return out
}

func keysOf(batch []domain.TranscriptRecord) []string {
	keys := make([]string, 0, len(batch))
	for i := range batch {
		if k := batch[i].Key(); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func withKeys(batch []domain.TranscriptRecord) []domain.TranscriptRecord {
	out := make([]domain.TranscriptRecord, 0, len(batch))
	for _, rec := range batch {
		if rec.Key() != "" {
			out = append(out, rec)
		}
	}
	return out
}

// filterNew returns rows for records whose key is non-empty and not in existing.
func filterNew(batch []domain.TranscriptRecord, existing map[string]bool) []db.TranscriptRow {
	out := make([]db.TranscriptRow, 0, len(batch))
	for i := range batch {
		row := db.NewTranscriptRow(&batch[i])
		if row.Key == "" || existing[row.Key] {
			continue
		}
		out = append(out, row)
	}
	return out
}
