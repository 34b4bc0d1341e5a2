package search

import (
	"time"

	"github.com/koenighotze/search-assistant/internal/logger"
	"github.com/robfig/cron/v3"
)

const CleanupSpec = "@every 1h"

// Scheduler periodically evicts expired entries from a Cache.
type Scheduler struct {
	cron  *cron.Cron
	cache *Cache
}

func NewScheduler(cache *Cache) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithLocation(time.UTC)),
		cache: cache,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(CleanupSpec, s.cleanup); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop waits for a running cleanup to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) cleanup() {
	removed := s.cache.Cleanup(s.cache.now())
	logger.Log.Debug("Search cache cleaned up",
		"removed", removed,
		"remaining", s.cache.Len())
}
