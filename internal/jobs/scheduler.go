package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"cartly/api/internal/repository"
)

// Scheduler runs the housekeeping jobs. Today that is one job: purge
// sessions whose refresh token has not been rotated within the
// refresh TTL, since those tokens could no longer pass expiry checks.
type Scheduler struct {
	cron       *cron.Cron
	sessions   *repository.SessionRepository
	refreshTTL time.Duration
	log        zerolog.Logger
}

func NewScheduler(sessions *repository.SessionRepository, refreshTTL time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		sessions:   sessions,
		refreshTTL: refreshTTL,
		log:        log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 * * * *", s.purgeStaleSessions); err != nil { // hourly
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits up to five seconds for a running
// job to finish.
func (s *Scheduler) Stop() {
	select {
	case <-s.cron.Stop().Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) purgeStaleSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-s.refreshTTL)
	count, err := s.sessions.DeleteStale(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("stale session purge failed")
		return
	}
	if count > 0 {
		s.log.Info().Int64("purged", count).Msg("stale sessions removed")
	}
}
