package jobs

import (
	"context"
	"log"
	"time"

	"parking_reservation/internal/domain"
)

const monthlyReportHour = 8

// Scheduler enqueues the recurring notification jobs: the daily reminder at
// the configured hour and the monthly report on the first day of each month.
// It only enqueues; the consumer does the actual work, so a missed tick costs
// at most one minute of delay and a restart never double-fires within the
// same window.
type Scheduler struct {
	queue        JobQueue
	reminderHour int

	lastReminderDay string
	lastReportMonth string
}

func NewScheduler(queue JobQueue, reminderHour int) *Scheduler {
	return &Scheduler{queue: queue, reminderHour: reminderHour}
}

func (s *Scheduler) Start(ctx context.Context) {
	log.Printf("Scheduler started: daily reminder at %02d:00, monthly report on day 1 at %02d:00", s.reminderHour, monthlyReportHour)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Scheduler: context cancelled, stopping.")
			return
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	day := now.Format("2006-01-02")
	if now.Hour() == s.reminderHour && s.lastReminderDay != day {
		if _, err := s.queue.Enqueue(ctx, domain.JobDailyReminder, nil); err != nil {
			log.Printf("Scheduler: enqueueing daily reminder failed: %v", err)
		} else {
			s.lastReminderDay = day
		}
	}

	month := now.Format("2006-01")
	if now.Day() == 1 && now.Hour() == monthlyReportHour && s.lastReportMonth != month {
		if _, err := s.queue.Enqueue(ctx, domain.JobMonthlyReport, nil); err != nil {
			log.Printf("Scheduler: enqueueing monthly report failed: %v", err)
		} else {
			s.lastReportMonth = month
		}
	}
}
