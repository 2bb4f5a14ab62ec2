package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/ictsc/ictsc-discord-bot/internal/reconciler"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// sweepSchedule forgets stale redeploy confirmations.
const sweepSchedule = "@every 1m"

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// Scheduler runs full syncs on a cron spec. A run that is still going when
// the next one is due causes that one to be skipped.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler schedules b.Sync on spec. An empty spec only schedules housekeeping.
func NewScheduler(ctx context.Context, b *Bot, spec string) (*Scheduler, error) {
	logger := cronLogger{logger: b.logger.With().Str("component", "scheduler").Logger()}

	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if spec != "" {
		_, err := c.AddFunc(spec, func() {
			err := b.Sync(ctx)

			recordScheduledSync(err)

			switch {
			case errors.Is(err, ErrSyncInProgress), errors.Is(err, reconciler.ErrPassInProgress):
				b.logger.Info().Msg("Skipped scheduled sync, another sync is running")
			case err != nil:
				b.logger.Error().Err(err).Msg("Scheduled sync failed")
			default:
				b.logger.Info().Msg("Scheduled sync finished")
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to schedule sync %q: %w", spec, err)
		}
	}

	_, err := c.AddFunc(sweepSchedule, func() {
		if swept := b.SweepPendingRedeploys(); swept > 0 {
			b.logger.Debug().Int("swept", swept).Msg("Swept stale redeploy confirmations")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule sweep: %w", err)
	}

	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
