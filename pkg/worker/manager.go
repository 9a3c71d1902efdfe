// Package worker runs many transcript requests concurrently. Each request
// still goes through the strategies one at a time.
package worker

import (
	"context"
	"fmt"
	"sync"

	"earnings-transcripts/pkg/db"
	"earnings-transcripts/pkg/domain"
	"earnings-transcripts/pkg/failure"
	"earnings-transcripts/pkg/logger"

	"github.com/sirupsen/logrus"
)

// Summary counts the outcome of a ProcessRequests run.
type Summary struct {
	Succeeded int
	Failed    int
	// Sources counts successes per source name.
	Sources map[string]int
	// Errors holds the failure for each failed request key.
	Errors map[string]error
}

// Manager distributes requests to workers.
type Manager struct {
	workerCount int
	getter      TranscriptGetter
	archive     db.Archive
}

// NewManager creates a new manager. workerCount < 1 is treated as 1.
func NewManager(workerCount int, getter TranscriptGetter, archive db.Archive) *Manager {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Manager{
		workerCount: workerCount,
		getter:      getter,
		archive:     archive,
	}
}

// ProcessRequests runs reqs on the worker pool. It returns an error only when
// every request failed.
func (m *Manager) ProcessRequests(ctx context.Context, reqs []domain.TranscriptRequest) (Summary, error) {
	jobChan := make(chan domain.TranscriptRequest, len(reqs))
	for _, r := range reqs {
		jobChan <- r
	}
	close(jobChan)

	type result struct {
		req      domain.TranscriptRequest
		rec      *domain.TranscriptRecord
		workerID int
		err      error
	}
	resultsChan := make(chan result, len(reqs))

	var wg sync.WaitGroup
	for i := 0; i < m.workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			w := NewWorker(m.getter, m.archive)
			for req := range jobChan {
				if ctx.Err() != nil {
					resultsChan <- result{req: req, workerID: workerID, err: failure.New(failure.Timeout, "prefetch", ctx.Err())}
					continue
				}
				rec, err := w.ProcessRequest(ctx, req)
				resultsChan <- result{req: req, rec: rec, workerID: workerID, err: err}
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	summary := Summary{Sources: map[string]int{}, Errors: map[string]error{}}
	for res := range resultsChan {
		key := res.req.Normalize().Key()
		if res.err != nil {
			summary.Failed++
			summary.Errors[key] = res.err
			logger.Log.WithFields(logrus.Fields{
				"worker":  res.workerID,
				"request": key,
				"kind":    failure.KindOf(res.err),
			}).Warnf("Prefetch failed: %v", res.err)
			continue
		}

		summary.Succeeded++
		summary.Sources[res.rec.SourceName]++
		if summary.Succeeded%100 == 0 {
			logger.Log.Infof("Progress: %d successful, %d errors", summary.Succeeded, summary.Failed)
		}
	}

	logger.Log.Infof("Completed: %d successful, %d errors (total: %d)", summary.Succeeded, summary.Failed, len(reqs))

	if summary.Failed > 0 && summary.Succeeded == 0 {
		return summary, fmt.Errorf("all %d requests failed", summary.Failed)
	}
	return summary, nil
}
