package worker

import (
	"context"
	"fmt"

	"earnings-transcripts/pkg/db"
	"earnings-transcripts/pkg/domain"
)

// TranscriptGetter runs one request through the retrieval pipeline.
// *orchestrator.Orchestrator implements it.
type TranscriptGetter interface {
	GetTranscript(ctx context.Context, req domain.TranscriptRequest) (*domain.TranscriptRecord, error)
}

// Worker retrieves transcripts and saves them to the archive.
type Worker struct {
	getter  TranscriptGetter
	archive db.Archive
}

// NewWorker creates a new worker. archive may be nil, in which case
// transcripts are retrieved but not stored.
func NewWorker(getter TranscriptGetter, archive db.Archive) *Worker {
	return &Worker{
		getter:  getter,
		archive: archive,
	}
}

// ProcessRequest retrieves one transcript and saves it.
func (w *Worker) ProcessRequest(ctx context.Context, req domain.TranscriptRequest) (*domain.TranscriptRecord, error) {
	rec, err := w.getter.GetTranscript(ctx, req)
	if err != nil {
		return nil, err
	}

	if w.archive != nil {
		if err := w.archive.SaveTranscript(ctx, rec); err != nil {
			return rec, fmt.Errorf("failed to save transcript: %w", err)
		}
	}
	return rec, nil
}
