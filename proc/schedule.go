package proc

import (
	"context"
	"time"

	"emperror.dev/errors"
	"github.com/go-co-op/gocron/v2"
	"github.com/leeineian/qotd/sys"
)

// Until returns how long it is from now until the next target wall-clock
// time in loc. The result is always positive: a target equal to now is
// tomorrow's.
func Until(now time.Time, target sys.TimeOfDay, loc *time.Location) time.Duration {
	return NextOccurrence(now, target, loc).Sub(now)
}

// NextOccurrence is the earliest instant after now at target in loc.
func NextOccurrence(now time.Time, target sys.TimeOfDay, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), target.Hour, target.Minute, 0, 0, loc)
	if !next.After(now) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, target.Hour, target.Minute, 0, 0, loc)
	}
	return next
}

// Action is a unit of scheduled work. A returned error is logged and the
// job stays scheduled.
type Action func(ctx context.Context) error

// Scheduler runs actions once a day at fixed wall-clock times.
type Scheduler struct {
	cron gocron.Scheduler
	loc  *time.Location
}

func NewScheduler(loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	cron, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, errors.Wrap(err, "creating scheduler")
	}
	return &Scheduler{cron: cron, loc: loc}, nil
}

// Daily registers action to run every day at target. Runs of one job never
// overlap; a run still going at the next trigger pushes that trigger back.
func (s *Scheduler) Daily(ctx context.Context, name string, target sys.TimeOfDay, action Action) (gocron.Job, error) {
	job, err := s.cron.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(target.Hour), uint(target.Minute), 0))),
		gocron.NewTask(func() { s.run(ctx, name, target, action) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "scheduling %s", name)
	}

	sys.LogScheduler(sys.MsgSchedulerRegistered, name, target, s.loc, NextOccurrence(time.Now(), target, s.loc).Format(time.RFC1123))
	s.logWait(name, target)
	return job, nil
}

func (s *Scheduler) run(ctx context.Context, name string, target sys.TimeOfDay, action Action) {
	defer s.logWait(name, target)
	defer func() {
		if r := recover(); r != nil {
			sys.LogError(sys.MsgSchedulerRunFailed, name, r)
		}
	}()

	if err := action(ctx); err != nil {
		sys.LogError(sys.MsgSchedulerRunFailed, name, err)
	}
}

func (s *Scheduler) logWait(name string, target sys.TimeOfDay) {
	wait := Until(time.Now(), target, s.loc)
	sys.LogScheduler(sys.MsgSchedulerSleeping, wait.Hours(), name, target, s.loc)
}

// Cancel removes a job registered with Daily.
func (s *Scheduler) Cancel(job gocron.Job) error {
	if err := s.cron.RemoveJob(job.ID()); err != nil {
		return errors.Wrapf(err, "cancelling %s", job.Name())
	}
	sys.LogScheduler(sys.MsgSchedulerCancelled, job.Name())
	return nil
}

func (s *Scheduler) Jobs() []gocron.Job {
	return s.cron.Jobs()
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Shutdown() error {
	return s.cron.Shutdown()
}
