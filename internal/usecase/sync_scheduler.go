package usecase

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	applogger "BrokerSync/pkg/logger"
)

// SyncScheduler re-invokes the full sync pass on a fixed interval. It carries
// no retry logic of its own: SyncAllAccounts is idempotent, so the next tick
// is the retry.
type SyncScheduler struct {
	svc      *SyncService
	interval time.Duration
	logger   *applogger.Logger
	sched    gocron.Scheduler
}

func NewSyncScheduler(svc *SyncService, interval time.Duration, logger *applogger.Logger) *SyncScheduler {
	return &SyncScheduler{svc: svc, interval: interval, logger: logger}
}

// Start launches the periodic job. The ctx bounds each pass, not the
// scheduler lifetime; call Stop to shut down.
func (s *SyncScheduler) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			summary, err := s.svc.SyncAllAccounts(ctx)
			if err != nil {
				s.logger.Error("scheduled sync pass failed", applogger.Error(err))
				return
			}
			s.logger.Debug("scheduled sync pass done",
				applogger.Int("accounts", summary.AccountsAttempted),
				applogger.Int64("inserted", summary.Inserted),
			)
		}),
	)
	if err != nil {
		return err
	}

	s.sched = sched
	sched.Start()
	s.logger.Info("sync scheduler started", applogger.Duration("interval", s.interval))
	return nil
}

// Stop shuts the scheduler down, waiting for a running pass to finish.
func (s *SyncScheduler) Stop() error {
	if s.sched == nil {
		return nil
	}
	return s.sched.Shutdown()
}
