// services/scheduler.go
package services

import (
	"context"
	"log"
	"strconv"
	"time"

	"wellness-progression/metrics"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs the periodic progression jobs. Every job runs in singleton mode so a
// slow run is never overlapped by the next tick.
type Scheduler struct {
	sched gocron.Scheduler
	ctx   context.Context
}

func NewScheduler(ctx context.Context, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	sched, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, err
	}
	return &Scheduler{sched: sched, ctx: ctx}, nil
}

// Every registers fn to run at a fixed interval.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(ctx context.Context) error) error {
	return s.add(name, gocron.DurationJob(interval), fn)
}

// Daily registers fn to run once a day at hh:mm in the scheduler's location.
func (s *Scheduler) Daily(name string, hour, minute uint, fn func(ctx context.Context) error) error {
	return s.add(name, gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, minute, 0))), fn)
}

func (s *Scheduler) add(name string, def gocron.JobDefinition, fn func(ctx context.Context) error) error {
	_, err := s.sched.NewJob(
		def,
		gocron.NewTask(func() {
			start := time.Now()
			err := fn(s.ctx)
			metrics.JobRuns.WithLabelValues(name, strconv.FormatBool(err == nil)).Inc()
			if err != nil {
				log.Printf("[SCHEDULER] ❌ %s failed after %s: %v", name, time.Since(start).Round(time.Millisecond), err)
				return
			}
			log.Printf("[SCHEDULER] ✅ %s done in %s", name, time.Since(start).Round(time.Millisecond))
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

func (s *Scheduler) Start() {
	s.sched.Start()
	log.Printf("[SCHEDULER] 🕒 Started with %d job(s)", len(s.sched.Jobs()))
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}

// RegisterProgressionJobs adds the achievement/badge sweep and the benefit expiry job.
func RegisterProgressionJobs(s *Scheduler, sweeper *Sweeper, benefits *BenefitService, interval, lookback time.Duration) error {
	if err := s.Every("progression-sweep", interval, func(ctx context.Context) error {
		report, err := sweeper.SweepUsers(ctx, time.Now().Add(-lookback))
		if err != nil {
			return err
		}
		if report.Achievements > 0 || report.Badges > 0 || report.Failures > 0 {
			log.Printf("[SCHEDULER] 🔎 Sweep: users=%d achievements=%d badges=%d failures=%d",
				report.Users, report.Achievements, report.Badges, report.Failures)
		}
		return nil
	}); err != nil {
		return err
	}

	return s.Every("benefit-expiry", time.Hour, func(ctx context.Context) error {
		_, err := benefits.ExpireStaleBenefits(ctx, time.Now())
		return err
	})
}
