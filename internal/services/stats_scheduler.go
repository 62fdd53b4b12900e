package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/studygrouphub/backend/pkg/logger"
)

// StatsScheduler periodically rebuilds every cache row so entries that no
// mutation touched catch up.
type StatsScheduler struct {
	stats         *StatsService
	spec          string
	cronScheduler *cron.Cron
	entryID       cron.EntryID
}

func NewStatsScheduler(stats *StatsService, spec string) *StatsScheduler {
	return &StatsScheduler{stats: stats, spec: spec}
}

// Start registers the job. An empty spec leaves the scheduler off.
func (s *StatsScheduler) Start() error {
	if s.spec == "" {
		logger.Infof("[StatsScheduler] Disabled")
		return nil
	}

	s.cronScheduler = cron.New()
	entryID, err := s.cronScheduler.AddFunc(s.spec, s.run)
	if err != nil {
		s.cronScheduler = nil
		return err
	}
	s.entryID = entryID
	s.cronScheduler.Start()
	logger.Infof("[StatsScheduler] Scheduled (cron: %s)", s.spec)
	return nil
}

func (s *StatsScheduler) Stop() {
	if s.cronScheduler != nil {
		<-s.cronScheduler.Stop().Done()
	}
}

func (s *StatsScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	n, err := s.stats.ReconcileAll(ctx)
	if err != nil {
		logger.Error().Err(err).Int("refreshed", n).Msg("[StatsScheduler] Reconcile aborted")
		return
	}
	logger.Info().Int("refreshed", n).Dur("took", time.Since(start)).Msg("[StatsScheduler] Reconcile finished")
}
