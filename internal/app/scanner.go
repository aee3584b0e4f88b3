package app

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tickerping/tickerping/internal/domain"
	"github.com/tickerping/tickerping/internal/ports"
)

// CheckpointScanner is the job that acts on computed schedules: on each
// tick it picks playing subscribers whose subsequent checkpoint has come
// due, enqueues one dispatch per subscriber, and rolls the schedule forward
// anchored at the due checkpoint. Fan-out is bounded by the limiter.
type CheckpointScanner struct {
	logger     zerolog.Logger
	repo       ports.SubscriptionRepository
	dispatches *DispatchService
	limiter    *DynamicLimiter

	// CronSpec drives the tick cadence.
	CronSpec string

	mu        sync.Mutex
	batchSize int
}

func NewCheckpointScanner(logger zerolog.Logger, repo ports.SubscriptionRepository, dispatches *DispatchService, limiter *DynamicLimiter) *CheckpointScanner {
	return &CheckpointScanner{
		logger:     logger,
		repo:       repo,
		dispatches: dispatches,
		limiter:    limiter,
		CronSpec:   "@every 1m",
		batchSize:  50,
	}
}

// SetBatchSize retunes the per-tick scan limit (settings hook).
func (s *CheckpointScanner) SetBatchSize(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.batchSize = n
	s.mu.Unlock()
}

func (s *CheckpointScanner) BatchSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batchSize
}

func (s *CheckpointScanner) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.CronSpec, func() { s.Tick(ctx) }); err != nil {
		return err
	}
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info().Msg("checkpoint scanner stopped")
	return nil
}

// Tick runs one scan pass. Exported so an admin endpoint or test can force
// a pass outside the cron cadence.
func (s *CheckpointScanner) Tick(ctx context.Context) {
	if s.repo == nil || s.dispatches == nil {
		return
	}

	due, err := s.repo.DueChecks(ctx, time.Now().UTC(), s.BatchSize())
	if err != nil {
		s.logger.Error().Err(err).Msg("due checks query failed")
		return
	}
	if len(due) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, check := range due {
		if s.limiter != nil {
			if err := s.limiter.Acquire(ctx); err != nil {
				break
			}
		}
		wg.Add(1)
		go func(check domain.DueCheck) {
			defer wg.Done()
			if s.limiter != nil {
				defer s.limiter.Release()
			}
			s.process(ctx, check)
		}(check)
	}
	wg.Wait()
}

func (s *CheckpointScanner) process(ctx context.Context, check domain.DueCheck) {
	if _, err := s.dispatches.Enqueue(ctx, check); err != nil {
		s.logger.Error().Err(err).
			Str("subscription_id", check.SubscriptionID).
			Str("subscriber_id", check.SubscriberID).
			Msg("dispatch enqueue failed")
		return
	}

	// Roll the schedule forward anchored at the due checkpoint. The anchor
	// is already grid-aligned, so the new initial equals the old
	// subsequent and the alignment invariant holds without drift.
	cp, err := ComputeCheckpoints(check.NextCheckAt, check.Interval)
	if err != nil {
		s.logger.Error().Err(err).
			Str("subscription_id", check.SubscriptionID).
			Str("subscriber_id", check.SubscriberID).
			Msg("checkpoint recompute failed")
		return
	}

	_, err = s.repo.UpdateSubscriberSchedule(ctx, check.SubscriptionID, check.SubscriberID, ports.ScheduleUpdate{
		Status:                 domain.StatusPlaying,
		Interval:               check.Interval,
		InitialNotification:    cp.InitialLabel,
		SubsequentNotification: cp.SubsequentLabel,
		NextCheckAt:            cp.Subsequent,
	})
	if err != nil {
		// The subscriber may have unsubscribed between the due query and
		// the advance; nothing to do beyond a trace.
		s.logger.Warn().Err(err).
			Str("subscription_id", check.SubscriptionID).
			Str("subscriber_id", check.SubscriberID).
			Msg("schedule advance failed")
	}
}
