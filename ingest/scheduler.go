package ingest

import (
	"context"
	"time"

	"github.com/jrsteele09/store-insights/internal/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const DefaultSchedule = "0 * * * *"

// AllSyncer is the part of Syncer the scheduler drives.
type AllSyncer interface {
	SyncAll(ctx context.Context) ([]*Report, error)
}

// Scheduler runs SyncAll on a cron schedule, skipping a tick while the previous run is still going.
type Scheduler struct {
	syncer       AllSyncer
	schedule     string
	runOnStartup bool
	cron         *cron.Cron
}

func NewScheduler(syncer AllSyncer, schedule string, runOnStartup bool) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "sync schedule %q: %v", schedule, err)
	}
	logger := cronLogger{}
	return &Scheduler{
		syncer:       syncer,
		schedule:     schedule,
		runOnStartup: runOnStartup,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}, nil
}

// Run blocks until ctx is cancelled, then waits for any in-flight sync to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	job := cron.FuncJob(func() { s.runOnce(ctx) })
	id, err := s.cron.AddJob(s.schedule, job)
	if err != nil {
		return errors.Wrapf(err, "schedule sync")
	}
	s.cron.Start()
	log.Info().Str("schedule", s.schedule).Msg("Sync scheduler started")

	if s.runOnStartup {
		// Goes through the same chain so a startup run and the first tick cannot overlap.
		if entry := s.cron.Entry(id); entry.Valid() {
			go entry.WrappedJob.Run()
		}
	}

	<-ctx.Done()
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(30 * time.Second):
		log.Warn().Msg("Timed out waiting for running sync to stop")
	}
	log.Info().Msg("Sync scheduler stopped")
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	started := time.Now()
	reports, err := s.syncer.SyncAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduled sync failed")
		return
	}
	log.Info().Int("tenants", len(reports)).Dur("took", time.Since(started)).Msg("Scheduled sync finished")
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
