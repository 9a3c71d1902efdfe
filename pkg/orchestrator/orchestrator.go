// Package orchestrator runs the source strategies for a transcript request in
// fixed priority order and returns the first normalized success.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"earnings-transcripts/pkg/domain"
	"earnings-transcripts/pkg/failure"
	"earnings-transcripts/pkg/logger"
	"earnings-transcripts/pkg/sources"

	"github.com/sirupsen/logrus"
)

// DefaultDeadline bounds one GetTranscript call.
const DefaultDeadline = 90 * time.Second

const (
	suggestDirectURL = "Try again with a direct URL to the transcript page, for example from fool.com or the company's investor relations site."
	suggestOtherURL  = "Check that the URL points to a complete earnings call transcript and try again."
)

// URLStrategy retrieves a transcript from a caller-supplied URL.
type URLStrategy interface {
	Name() string
	TryURL(ctx context.Context, rawURL string) (*sources.Result, error)
}

// Attempt records why one strategy did not produce a transcript.
type Attempt struct {
	Strategy string       `json:"strategy"`
	Kind     failure.Kind `json:"kind"`
	Reason   string       `json:"reason"`
}

// AggregateFailure is returned when no strategy produced a transcript. It
// holds exactly one attempt per strategy, in priority order.
type AggregateFailure struct {
	Request    domain.TranscriptRequest
	Attempts   []Attempt
	Suggestion string
	TimedOut   bool
}

func (e *AggregateFailure) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s (%s): %s", a.Strategy, a.Kind, a.Reason))
	}
	what := e.Request.Key()
	if e.TimedOut {
		return fmt.Sprintf("timed out retrieving transcript for %s: %s", what, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("no transcript found for %s: %s", what, strings.Join(parts, "; "))
}

// Orchestrator tries strategies strictly sequentially; the first success wins.
type Orchestrator struct {
	strategies []sources.Strategy
	direct     URLStrategy
	deadline   time.Duration
	now        func() time.Time
}

// New creates an orchestrator. strategies are tried in the given order;
// direct handles URL requests and may be nil. deadline <= 0 uses DefaultDeadline.
func New(deadline time.Duration, direct URLStrategy, strategies ...sources.Strategy) *Orchestrator {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	return &Orchestrator{
		strategies: strategies,
		direct:     direct,
		deadline:   deadline,
		now:        time.Now,
	}
}

// Sources returns the registered strategy names in priority order.
func (o *Orchestrator) Sources() []string {
	names := make([]string, 0, len(o.strategies)+1)
	for _, s := range o.strategies {
		names = append(names, s.Name())
	}
	if o.direct != nil {
		names = append(names, o.direct.Name())
	}
	return names
}

// GetTranscript validates req and retrieves its transcript. Errors are either
// input errors (failure.Input) or *AggregateFailure.
func (o *Orchestrator) GetTranscript(ctx context.Context, req domain.TranscriptRequest) (*domain.TranscriptRecord, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.deadline)
	defer cancel()

	if req.IsDirect() {
		return o.getDirect(ctx, req)
	}

	log := logger.Log.WithField("request", req.Key())
	attempts := make([]Attempt, 0, len(o.strategies))

	for _, s := range o.strategies {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, Attempt{Strategy: s.Name(), Kind: failure.Timeout, Reason: "skipped: " + err.Error()})
			continue
		}

		start := o.now()
		res, err := o.try(ctx, s, req)
		if err == nil {
			var rec *domain.TranscriptRecord
			if rec, err = Normalize(res, req, o.now()); err == nil {
				log.WithFields(logrus.Fields{
					"strategy": s.Name(),
					"elapsed":  o.now().Sub(start),
				}).Info("Orchestrator: transcript retrieved")
				return rec, nil
			}
		}

		attempt := newAttempt(ctx, s.Name(), err)
		log.WithFields(logrus.Fields{
			"strategy": s.Name(),
			"kind":     attempt.Kind,
		}).Infof("Orchestrator: strategy failed: %s", attempt.Reason)
		attempts = append(attempts, attempt)
	}

	return nil, &AggregateFailure{
		Request:    req,
		Attempts:   attempts,
		Suggestion: suggestDirectURL,
		TimedOut:   ctx.Err() != nil,
	}
}

func (o *Orchestrator) getDirect(ctx context.Context, req domain.TranscriptRequest) (*domain.TranscriptRecord, error) {
	if o.direct == nil {
		return nil, failure.Newf(failure.Input, "get-transcript", "direct URL requests are not supported")
	}

	res, err := o.tryURL(ctx, req.URL)
	if err == nil {
		var rec *domain.TranscriptRecord
		if rec, err = Normalize(res, req, o.now()); err == nil {
			return rec, nil
		}
	}

	attempt := newAttempt(ctx, o.direct.Name(), err)
	logger.Log.WithFields(logrus.Fields{
		"url":  req.URL,
		"kind": attempt.Kind,
	}).Infof("Orchestrator: direct URL failed: %s", attempt.Reason)

	return nil, &AggregateFailure{
		Request:    req,
		Attempts:   []Attempt{attempt},
		Suggestion: suggestOtherURL,
		TimedOut:   ctx.Err() != nil,
	}
}

// try runs one strategy, converting a panic into a permanent failure.
func (o *Orchestrator) try(ctx context.Context, s sources.Strategy, req domain.TranscriptRequest) (res *sources.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithField("strategy", s.Name()).Errorf("Orchestrator: strategy panicked: %v", r)
			res, err = nil, failure.Newf(failure.Permanent, s.Name(), "internal error: %v", r)
		}
	}()
	return s.Try(ctx, req.Ticker, req.Year, req.Quarter)
}

func (o *Orchestrator) tryURL(ctx context.Context, rawURL string) (res *sources.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithField("url", rawURL).Errorf("Orchestrator: direct strategy panicked: %v", r)
			res, err = nil, failure.Newf(failure.Permanent, o.direct.Name(), "internal error: %v", r)
		}
	}()
	return o.direct.TryURL(ctx, rawURL)
}

// newAttempt classifies a strategy error. Unclassified errors count as
// permanent; anything failing after the deadline counts as a timeout.
func newAttempt(ctx context.Context, name string, err error) Attempt {
	kind := failure.KindOf(err)
	switch {
	case ctx.Err() != nil:
		kind = failure.Timeout
	case kind == failure.Internal:
		kind = failure.Permanent
	}
	return Attempt{Strategy: name, Kind: kind, Reason: err.Error()}
}
