// Package transcriptservice assembles the retrieval pipeline from
// configuration and runs bulk prefetches against it.
package transcriptservice

import (
	"context"
	"errors"
	"fmt"

	"earnings-transcripts/pkg/config"
	"earnings-transcripts/pkg/db"
	"earnings-transcripts/pkg/domain"
	"earnings-transcripts/pkg/httpclient"
	"earnings-transcripts/pkg/logger"
	"earnings-transcripts/pkg/orchestrator"
	"earnings-transcripts/pkg/sites"
	"earnings-transcripts/pkg/sources"
	"earnings-transcripts/pkg/urls"
	"earnings-transcripts/pkg/worker"
)

// Service runs retrievals against the pipeline and copies successes into the archive.
type Service struct {
	getter  worker.TranscriptGetter
	archive db.Archive
	manager *worker.Manager
}

// Pipeline is the assembled retrieval pipeline.
type Pipeline struct {
	Orchestrator *orchestrator.Orchestrator
	// Provider is nil when the structured API is disabled.
	Provider *sources.APIStrategy
}

// Config holds configuration for the service
type Config struct {
	Getter      worker.TranscriptGetter
	Archive     db.Archive
	WorkerCount int
}

// NewService creates a new Service
func NewService(cfg Config) *Service {
	return &Service{
		getter:  cfg.Getter,
		archive: cfg.Archive,
		manager: worker.NewManager(cfg.WorkerCount, cfg.Getter, cfg.Archive),
	}
}

// Build assembles the strategies enabled in cfg, in priority order:
// structured API, transcript library, then the site scrapers.
func Build(cfg *config.Config) *Pipeline {
	fetchCfg := httpclient.Config{
		ConnectTimeout:    cfg.Fetch.ConnectTimeout,
		Timeout:           cfg.Fetch.Timeout,
		MaxAttempts:       cfg.Fetch.MaxAttempts,
		BaseDelay:         cfg.Fetch.BaseDelay,
		MaxBodyBytes:      cfg.Fetch.MaxBodyBytes,
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
		Burst:             cfg.Fetch.Burst,
	}
	apiClient := httpclient.NewClientWithConfig(httpclient.APIClient, fetchCfg)
	scrapeClient := httpclient.NewClientWithConfig(httpclient.BrowserClient, fetchCfg)

	var (
		strategies []sources.Strategy
		provider   *sources.APIStrategy
		lookup     sources.NameLookup
	)

	if cfg.API.Enabled {
		provider = sources.NewAPIStrategy(apiClient, cfg.API.BaseURL, cfg.API.APIKey, cfg.API.ValidateContent)
		strategies = append(strategies, provider)
		lookup = provider
	}
	if cfg.Library.Enabled {
		library := sources.NewEarningsCallLibrary(apiClient, cfg.Library.BaseURL, cfg.Library.APIKey)
		strategies = append(strategies, sources.NewLibraryStrategy(library))
	}

	resolver := sources.NewCachedResolver(lookup, 0)
	profiles := Profiles(cfg, scrapeClient)
	scrapeClient.AllowDomains(redirectDomains(cfg, profiles)...)
	for _, p := range profiles {
		strategies = append(strategies, sources.NewScraperStrategy(p, scrapeClient, resolver))
	}

	direct := sources.NewDirectStrategy(scrapeClient, profiles...)
	return &Pipeline{
		Orchestrator: orchestrator.New(cfg.Orchestrator.Deadline, direct, strategies...),
		Provider:     provider,
	}
}

// redirectDomains is the configured allow-list plus every profile's domains.
func redirectDomains(cfg *config.Config, profiles []sites.Profile) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	for _, d := range append(append([]string{}, cfg.Fetch.AllowedDomains...), sites.Domains(profiles)...) {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// Profiles returns the enabled site profiles in scrape order.
func Profiles(cfg *config.Config, fetcher httpclient.Fetcher) []sites.Profile {
	var profiles []sites.Profile
	if cfg.Scrapers.MotleyFool {
		profiles = append(profiles, sites.MotleyFool(fetcher))
	}
	if cfg.Scrapers.SeekingAlpha {
		profiles = append(profiles, sites.SeekingAlpha(fetcher))
	}
	if cfg.Scrapers.AlphaStreet {
		profiles = append(profiles, sites.AlphaStreet(fetcher))
	}
	if cfg.Scrapers.OfficialSources && cfg.LLM.Enabled() {
		completer := urls.NewOpenAICompleter(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)
		profiles = append(profiles, sites.OfficialSources(completer))
	}
	return profiles
}

// Prefetch retrieves every request of plan on the worker pool. With
// skipArchived, requests whose key is already archived are not fetched again.
func (s *Service) Prefetch(ctx context.Context, plan worker.Plan, skipArchived bool) (worker.Summary, error) {
	reqs, err := plan.Requests()
	if err != nil {
		return worker.Summary{}, err
	}

	if skipArchived && s.archive != nil {
		reqs, err = s.pending(ctx, reqs)
		if err != nil {
			return worker.Summary{}, fmt.Errorf("failed to check archived transcripts: %w", err)
		}
	}
	if len(reqs) == 0 {
		logger.Log.Info("Prefetch: nothing to do, every request is archived")
		return worker.Summary{}, nil
	}

	logger.Log.Infof("Prefetch: %d requests", len(reqs))
	return s.manager.ProcessRequests(ctx, reqs)
}

// pending drops the requests that already have an archived transcript.
func (s *Service) pending(ctx context.Context, reqs []domain.TranscriptRequest) ([]domain.TranscriptRequest, error) {
	out := make([]domain.TranscriptRequest, 0, len(reqs))
	for _, r := range reqs {
		_, err := s.archive.GetTranscript(ctx, r.Key())
		switch {
		case errors.Is(err, db.ErrNotFound):
			out = append(out, r)
		case err != nil:
			return nil, err
		}
	}
	return out, nil
}
