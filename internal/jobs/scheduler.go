package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"moodadmin/api/internal/repository"
	"moodadmin/api/internal/stats"
)

type Scheduler struct {
	cron       *cron.Cron
	aggregator *stats.Aggregator
	categories *repository.CategoryRepository
	log        zerolog.Logger
}

func NewScheduler(aggregator *stats.Aggregator, categories *repository.CategoryRepository, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:       c,
		aggregator: aggregator,
		categories: categories,
		log:        log,
	}
}

func (s *Scheduler) Start() error {
	// Nightly full reload keeps the trend window's date labels current
	// even when no session events arrive over midnight.
	if _, err := s.cron.AddFunc("0 0 0 * * *", s.refreshSnapshot); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 */1 * * *", s.sweepOrphans); err != nil { // hourly sweep
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() context.CancelFunc {
	_, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		s.cron.Stop()
		cancel()
	}()
	return cancel
}

func (s *Scheduler) refreshSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.aggregator.Refresh(ctx)
	s.log.Info().Msg("dashboard snapshot refreshed")
}

// sweepOrphans removes category rows left behind when a version delete
// failed between its two phases.
func (s *Scheduler) sweepOrphans() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.categories.DeleteOrphans(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("orphan sweep failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("orphan categories swept")
	}
}
