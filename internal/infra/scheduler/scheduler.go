package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Reminder sends the pending session reminders.
type Reminder interface {
	SendPendingReminders(ctx context.Context) (int, error)
}

// Sweeper drops chat states that have been idle too long.
type Sweeper interface {
	DeleteIdle(ctx context.Context, before time.Time) (int, error)
}

type Scheduler struct {
	cronEngine              *cron.Cron
	reminder                Reminder
	sweeper                 Sweeper
	logger                  *logrus.Entry
	idleAfter               time.Duration
	cronSpecPendingReminder string
	cronSpecSessionSweep    string
	now                     func() time.Time
}

func NewScheduler(
	reminder Reminder,
	sweeper Sweeper,
	logger *logrus.Entry,
	idleAfter time.Duration, // chat states idle for longer are swept
	cronSpecPendingReminder string, // e.g., "0 9 * * *" (9 AM daily)
	cronSpecSessionSweep string, // e.g., "30 3 * * *" (3:30 AM daily)
) *Scheduler {
	return &Scheduler{
		cronEngine:              cron.New(cron.WithLocation(time.Local)),
		reminder:                reminder,
		sweeper:                 sweeper,
		logger:                  logger.WithField("component", "scheduler"),
		idleAfter:               idleAfter,
		cronSpecPendingReminder: cronSpecPendingReminder,
		cronSpecSessionSweep:    cronSpecSessionSweep,
		now:                     time.Now,
	}
}

// Start registers the jobs and starts the cron engine.
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler...")

	if _, err := s.cronEngine.AddFunc(s.cronSpecPendingReminder, s.runPendingReminders); err != nil {
		return fmt.Errorf("could not add pending reminder cron job: %w", err)
	}
	if _, err := s.cronEngine.AddFunc(s.cronSpecSessionSweep, s.runSessionSweep); err != nil {
		return fmt.Errorf("could not add session sweep cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.WithField("jobs", len(s.cronEngine.Entries())).Info("Scheduler started with jobs.")
	return nil
}

func (s *Scheduler) runPendingReminders() {
	s.logger.Info("Cron job triggered for pending session reminders.")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	sent, err := s.reminder.SendPendingReminders(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Error during pending reminder processing")
		return
	}
	s.logger.WithField("sent", sent).Info("Pending reminder processing finished.")
}

func (s *Scheduler) runSessionSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()
	deleted, err := s.sweeper.DeleteIdle(ctx, s.now().Add(-s.idleAfter))
	if err != nil {
		s.logger.WithError(err).Error("Error during idle chat state sweep")
		return
	}
	s.logger.WithField("deleted", deleted).Info("Idle chat states swept.")
}

func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler...")
	ctx := s.cronEngine.Stop() // waits for running jobs
	<-ctx.Done()
	s.logger.Info("Scheduler gracefully stopped.")
}
