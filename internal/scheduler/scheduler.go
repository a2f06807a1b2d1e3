// Package scheduler runs the periodic jobs of the service: nightly plan
// revalidation and the overdue reminder emails.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/credinica/loan-service/internal/config"
	"github.com/credinica/loan-service/internal/models"
	"github.com/credinica/loan-service/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 10 * time.Minute

// Jobs is the part of the service the scheduled jobs call
type Jobs interface {
	RevalidateActiveCredits(ctx context.Context, actor *models.Session) (int, error)
	OverdueDigests(ctx context.Context) ([]models.OverdueDigest, error)
}

// Notifier delivers overdue digests
type Notifier interface {
	SendOverdueDigest(d models.OverdueDigest, asOf time.Time) error
}

// Scheduler wraps a cron runner in the business time zone
type Scheduler struct {
	cron     *cron.Cron
	jobs     Jobs
	notifier Notifier
	log      *logrus.Logger
	loc      *time.Location
	now      func() time.Time
}

// New registers the jobs. Reminders are only scheduled when notifier is not nil.
func New(cfg *config.Config, jobs Jobs, notifier Notifier, log *logrus.Logger, loc *time.Location) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.PrintfLogger(log)), cron.SkipIfStillRunning(cron.PrintfLogger(log))),
		),
		jobs:     jobs,
		notifier: notifier,
		log:      log,
		loc:      loc,
		now:      time.Now,
	}

	if _, err := s.cron.AddFunc(cfg.CronRevalidate, func() { s.run("revalidate", s.Revalidate) }); err != nil {
		return nil, fmt.Errorf("invalid CRON_REVALIDATE %q: %w", cfg.CronRevalidate, err)
	}
	if notifier != nil {
		if _, err := s.cron.AddFunc(cfg.CronReminders, func() { s.run("reminders", s.SendReminders) }); err != nil {
			return nil, fmt.Errorf("invalid CRON_REMINDERS %q: %w", cfg.CronReminders, err)
		}
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.log.Infof("Scheduler started with %d jobs", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop stops the scheduler and returns a context done once running jobs finish
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) run(name string, job func(ctx context.Context) (int, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := job(ctx)
	entry := s.log.WithFields(logrus.Fields{"job": name, "count": n, "duration": time.Since(start).String()})
	if err != nil {
		entry.WithError(err).Error("Scheduled job failed")
		return
	}
	entry.Info("Scheduled job finished")
}

// Revalidate regenerates the plans of active credits as the system user
func (s *Scheduler) Revalidate(ctx context.Context) (int, error) {
	return s.jobs.RevalidateActiveCredits(ctx, service.SystemSession)
}

// SendReminders emails each collections manager their overdue credits and
// returns how many digests were sent. A failed delivery does not stop the rest.
func (s *Scheduler) SendReminders(ctx context.Context) (int, error) {
	if s.notifier == nil {
		return 0, nil
	}
	digests, err := s.jobs.OverdueDigests(ctx)
	if err != nil {
		return 0, err
	}

	asOf := s.now().In(s.loc)
	sent, failed := 0, 0
	for _, d := range digests {
		if d.ManagerEmail == "" {
			s.log.WithField("manager", d.ManagerName).Warn("No email for collections manager, skipping reminder")
			continue
		}
		if err := s.notifier.SendOverdueDigest(d, asOf); err != nil {
			failed++
			continue
		}
		sent++
	}
	if failed > 0 {
		return sent, fmt.Errorf("%d of %d reminders failed", failed, sent+failed)
	}
	return sent, nil
}
