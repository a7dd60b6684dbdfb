package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Refresher runs one fetch cycle.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshFunc adapts a function to the Refresher interface.
type RefreshFunc func(ctx context.Context) error

func (f RefreshFunc) Refresh(ctx context.Context) error {
	return f(ctx)
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	ctx       context.Context
	log       zerolog.Logger
}

func New(ctx context.Context, log zerolog.Logger, interval time.Duration, refresher Refresher) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		interval:  interval,
		ctx:       ctx,
		log:       log,
	}
}

// Start schedules a refresh every interval, the first run happens one interval from now.
// A zero or negative interval disables the schedule.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.log.Info().Msg("no refresh interval configured, nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().SingletonMode().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info().Str("interval", s.interval.String()).Msg("scheduled refresh of weather data")

	return nil
}

func (s *Scheduler) run() {
	s.log.Debug().Msg("running scheduled refresh")

	if err := s.refresher.Refresh(s.ctx); err != nil {
		s.log.Error().Err(err).Msg("scheduled refresh failed")
		return
	}

	s.log.Debug().Msg("scheduled refresh completed")
}

func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
