// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package processor drives the polling cycle: list wanted items from each
// configured tracker, try cached stream candidates for every item not held
// back by the skip-cache, verify triggered downloads, and report outcomes.
package processor

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/streamdarr/streamdarr/internal/arr"
	"github.com/streamdarr/streamdarr/internal/debrid"
	"github.com/streamdarr/streamdarr/internal/domain"
	"github.com/streamdarr/streamdarr/internal/metrics"
	"github.com/streamdarr/streamdarr/internal/streams"
)

// WantedSource lists items needing content for one media kind and can clear
// the wanted flag upstream after a verified success.
type WantedSource interface {
	Kind() arr.MediaKind
	ListWanted(ctx context.Context) ([]arr.WantedItem, error)
	SetMonitored(ctx context.Context, id int64, monitored bool) error
}

// StreamSearcher returns ranked cached candidates for a content identifier.
type StreamSearcher interface {
	SearchMovie(ctx context.Context, imdbID string) ([]streams.Candidate, error)
	SearchEpisode(ctx context.Context, imdbID string, season, episode int) ([]streams.Candidate, error)
}

// Prober triggers a download by probing a playback URL.
type Prober interface {
	Probe(ctx context.Context, playbackURL string) error
}

// DebridLister fetches the debrid account's held files for verification.
// An error result means the listing is unavailable, distinct from empty.
type DebridLister interface {
	ListTorrents(ctx context.Context) ([]debrid.Torrent, error)
}

// Notifier delivers processing outcomes.
type Notifier interface {
	NotifySuccess(ctx context.Context, kind, title string, details domain.SuccessDetails) error
	SendFailureSummary(ctx context.Context, records []domain.FailureRecord) error
}

// Config controls cycle cadence and the per-item retry policy.
type Config struct {
	PollInterval     time.Duration
	RetryFailedAfter time.Duration
	// MaxAttempts bounds how many candidates are tried per item. Results are
	// pre-ranked, so trying past the first few only wastes trigger and
	// listing calls and delays the rest of the cycle.
	MaxAttempts int
	// SettleDelay is how long to wait after a trigger before checking the
	// debrid listing, giving the backend time to register the new item.
	SettleDelay time.Duration
}

// DefaultConfig returns sane defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:     10 * time.Minute,
		RetryFailedAfter: 24 * time.Hour,
		MaxAttempts:      3,
		SettleDelay:      5 * time.Second,
	}
}

// Service runs the polling cycles. All processing is sequential: one cycle
// at a time, sources in configured order, items in tracker order, candidates
// in search order.
type Service struct {
	cfg     Config
	cache   *SkipCache
	sources []WantedSource
	search  StreamSearcher
	prober  Prober
	lister  DebridLister
	notif   Notifier
	metrics *metrics.Metrics

	failures []domain.FailureRecord
	sleep    func(ctx context.Context, d time.Duration) bool
}

// Option configures optional collaborators.
type Option func(*Service)

// WithDebridLister enables post-trigger verification against the account
// listing. Without it the service runs in trigger-only mode.
func WithDebridLister(l DebridLister) Option {
	return func(s *Service) { s.lister = l }
}

// WithNotifier enables outcome notifications.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notif = n }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService constructs a Service. Sources are processed in the given order
// every cycle; callers wire movies before episodes.
func NewService(cfg Config, cache *SkipCache, sources []WantedSource, search StreamSearcher, prober Prober, opts ...Option) *Service {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.RetryFailedAfter <= 0 {
		cfg.RetryFailedAfter = def.RetryFailedAfter
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = def.SettleDelay
	}

	s := &Service{
		cfg:     cfg,
		cache:   cache,
		sources: sources,
		search:  search,
		prober:  prober,
	}
	s.sleep = sleepCtx

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs an immediate cycle and then launches the background polling
// loop. Cancellation is honored between cycles, never mid-cycle.
func (s *Service) Start(ctx context.Context) {
	go func() {
		s.RunCycle(ctx)
		s.loop(ctx)
	}()
}

func (s *Service) loop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Processor stopped")
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle processes every configured media kind once, then flushes the
// accumulated failure summary.
func (s *Service) RunCycle(ctx context.Context) {
	started := time.Now()

	for _, src := range s.sources {
		s.processSource(ctx, src)
	}

	stats := s.cache.Stats()
	log.Info().
		Int("total", stats.Total).
		Int("successful", stats.Successful).
		Int("failed", stats.Failed).
		Msg("Lifetime processing statistics")
	s.metrics.SetSkipCacheSize(stats.Successful, stats.Failed)

	s.flushFailures(ctx)
	s.metrics.RecordCycle(time.Since(started))
}

func (s *Service) processSource(ctx context.Context, src WantedSource) {
	kind := src.Kind()
	log.Info().Str("kind", string(kind)).Msg("Checking for wanted items")

	items, err := src.ListWanted(ctx)
	if err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Msg("Failed to fetch wanted list")
		return
	}
	log.Info().Str("kind", string(kind)).Int("count", len(items)).Msg("Found wanted items")

	for _, item := range items {
		if s.cache.ShouldSkip(item.Key(), s.cfg.RetryFailedAfter) {
			log.Debug().Str("key", item.Key()).Msg("Skipping recently processed item")
			s.metrics.RecordSkip()
			continue
		}

		outcome := s.processItem(ctx, src, item)
		s.cache.MarkProcessed(item.Key(), outcome.Succeeded())
		s.metrics.RecordItem(string(kind), string(outcome.Status))

		if outcome.Succeeded() {
			s.notifySuccess(ctx, item, outcome)
			continue
		}
		s.failures = append(s.failures, domain.FailureRecord{
			Kind:    string(kind),
			Title:   item.DisplayTitle(),
			Reason:  outcome.Reason,
			Details: outcome.Details,
		})
	}
}

func (s *Service) notifySuccess(ctx context.Context, item arr.WantedItem, outcome Outcome) {
	if s.notif == nil {
		return
	}

	details := domain.SuccessDetails{ImdbID: item.ImdbID}
	if outcome.Candidate != nil {
		details.Quality = outcome.Candidate.Quality
		details.StreamTitle = outcome.Candidate.Title
	}

	if err := s.notif.NotifySuccess(ctx, string(item.Kind), item.DisplayTitle(), details); err != nil {
		log.Error().Err(err).Str("title", item.DisplayTitle()).Msg("Failed to send success notification")
	}
}

// flushFailures sends the batched failure summary and clears the list. The
// list never carries over between cycles, even when delivery fails or no
// notifier is configured.
func (s *Service) flushFailures(ctx context.Context) {
	records := s.failures
	s.failures = nil

	if s.notif == nil || len(records) == 0 {
		return
	}

	if err := s.notif.SendFailureSummary(ctx, records); err != nil {
		log.Error().Err(err).Int("failures", len(records)).Msg("Failed to send failure summary")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
