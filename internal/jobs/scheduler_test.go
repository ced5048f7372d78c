package jobs

import (
	"context"
	"testing"
	"time"

	"parking_reservation/internal/domain"
)

type recordingQueue struct {
	enqueued []domain.JobType
}

func (q *recordingQueue) Enqueue(ctx context.Context, jobType domain.JobType, payload interface{}) (string, error) {
	q.enqueued = append(q.enqueued, jobType)
	return "job-1", nil
}

func TestSchedulerFiresDailyReminderOncePerDay(t *testing.T) {
	queue := &recordingQueue{}
	s := NewScheduler(queue, 9)
	ctx := context.Background()

	day := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	s.tick(ctx, day)
	s.tick(ctx, day.Add(time.Minute))
	s.tick(ctx, day.Add(30*time.Minute))

	if len(queue.enqueued) != 1 || queue.enqueued[0] != domain.JobDailyReminder {
		t.Fatalf("expected one daily reminder, got %v", queue.enqueued)
	}

	// The next day fires again.
	s.tick(ctx, day.AddDate(0, 0, 1))
	if len(queue.enqueued) != 2 {
		t.Fatalf("expected a second reminder the next day, got %v", queue.enqueued)
	}
}

func TestSchedulerSkipsOffHours(t *testing.T) {
	queue := &recordingQueue{}
	s := NewScheduler(queue, 9)
	ctx := context.Background()

	s.tick(ctx, time.Date(2025, 6, 10, 8, 59, 0, 0, time.UTC))
	s.tick(ctx, time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC))

	if len(queue.enqueued) != 0 {
		t.Fatalf("expected no jobs outside the reminder hour, got %v", queue.enqueued)
	}
}

func TestSchedulerFiresMonthlyReportOnFirstDay(t *testing.T) {
	queue := &recordingQueue{}
	s := NewScheduler(queue, 9)
	ctx := context.Background()

	first := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	s.tick(ctx, first)
	s.tick(ctx, first.Add(time.Minute))

	if len(queue.enqueued) != 1 || queue.enqueued[0] != domain.JobMonthlyReport {
		t.Fatalf("expected one monthly report, got %v", queue.enqueued)
	}

	// Not on any other day of the month.
	s.tick(ctx, time.Date(2025, 7, 2, 8, 0, 0, 0, time.UTC))
	if len(queue.enqueued) != 1 {
		t.Fatalf("expected no report on day 2, got %v", queue.enqueued)
	}

	// The next month fires again.
	s.tick(ctx, time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC))
	if len(queue.enqueued) != 2 {
		t.Fatalf("expected a report the next month, got %v", queue.enqueued)
	}
}
