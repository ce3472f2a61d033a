package reminder

import (
	"context"
	"time"

	"github.com/tradefin/cfaam/internal/contracts"
	"github.com/tradefin/cfaam/pkg/logger"
	"github.com/tradefin/cfaam/pkg/redis"
)

// Summary cache key and retention.
const (
	lastRunCacheKey = "reminders:last_run"
	lastRunCacheTTL = 7 * 24 * time.Hour
)

// SummarySink receives completed run summaries, e.g. the websocket feed.
type SummarySink interface {
	Publish(summary *contracts.RunSummary)
}

// Service runs scans for the current calendar day and fans the summary out
// to the cache and any subscribed sinks. The scheduled job and the manual
// trigger endpoint both go through here, so both share the same guards.
type Service struct {
	scanner *Scanner
	cache   *redis.Cache
	sinks   []SummarySink
	log     *logger.Logger
}

// NewService wires the run service.
func NewService(scanner *Scanner, cache *redis.Cache, log *logger.Logger, sinks ...SummarySink) *Service {
	return &Service{
		scanner: scanner,
		cache:   cache,
		sinks:   sinks,
		log:     log,
	}
}

// AddSink registers an additional summary sink. Not safe to call once runs
// have started; sinks are wired during process startup.
func (s *Service) AddSink(sink SummarySink) {
	s.sinks = append(s.sinks, sink)
}

// RunNow performs a scan for today's logical date.
func (s *Service) RunNow(ctx context.Context) (*contracts.RunSummary, error) {
	return s.RunFor(ctx, contracts.DateOf(time.Now().UTC()))
}

// RunFor performs a scan for an explicit logical date. The date is fixed for
// the whole run so every eligibility decision in the batch agrees on "today".
func (s *Service) RunFor(ctx context.Context, today contracts.Date) (*contracts.RunSummary, error) {
	summary, err := s.scanner.Run(ctx, today)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, lastRunCacheKey, summary, lastRunCacheTTL); err != nil {
		s.log.WithError(err).Warn("Failed to cache run summary")
	}

	for _, sink := range s.sinks {
		sink.Publish(summary)
	}

	return summary, nil
}

// LastRun returns the most recent cached run summary, if any.
func (s *Service) LastRun(ctx context.Context) (*contracts.RunSummary, bool, error) {
	var summary contracts.RunSummary
	hit, err := s.cache.Get(ctx, lastRunCacheKey, &summary)
	if err != nil || !hit {
		return nil, false, err
	}
	return &summary, true, nil
}
