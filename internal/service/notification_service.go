package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"parking_reservation/internal/domain"
	"parking_reservation/internal/mail"
	"parking_reservation/internal/repository"
)

// NotificationService handles the queued notification jobs. Per-recipient
// delivery failures are logged and skipped so one bad mailbox cannot stall a
// batch; only upstream failures (repository, payload decoding) propagate and
// cause the job to be redelivered.
type NotificationService struct {
	userRepo   repository.UserRepository
	reportRepo repository.ReportingRepository
	mailer     mail.Mailer
	mailDomain string
}

func NewNotificationService(
	userRepo repository.UserRepository,
	reportRepo repository.ReportingRepository,
	mailer mail.Mailer,
	mailDomain string,
) *NotificationService {
	return &NotificationService{
		userRepo:   userRepo,
		reportRepo: reportRepo,
		mailer:     mailer,
		mailDomain: mailDomain,
	}
}

// HandleJob dispatches a dequeued job to its handler. Jobs are delivered
// at least once; every handler is safe to re-run.
func (s *NotificationService) HandleJob(ctx context.Context, job domain.Job) error {
	log.Printf("Processing job %s (%s)", job.ID, job.Type)
	switch job.Type {
	case domain.JobSendEmail:
		var payload domain.SendEmailPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("decoding send_email payload: %w", err)
		}
		return s.SendEmail(payload)
	case domain.JobDailyReminder:
		return s.SendDailyReminder(ctx)
	case domain.JobMonthlyReport:
		return s.SendMonthlyReport(ctx, time.Now())
	case domain.JobCSVExport:
		var payload domain.CSVExportPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("decoding csv_export payload: %w", err)
		}
		return s.ExportReservationsCSV(ctx, payload)
	default:
		// Unknown types are dropped, not redelivered forever.
		log.Printf("Dropping job %s with unknown type '%s'", job.ID, job.Type)
		return nil
	}
}

func (s *NotificationService) SendEmail(payload domain.SendEmailPayload) error {
	return s.mailer.Send(mail.Message{
		To:      payload.Recipient,
		Subject: payload.Subject,
		Body:    payload.Body,
	})
}

// SendDailyReminder mails every regular user a booking reminder.
func (s *NotificationService) SendDailyReminder(ctx context.Context) error {
	users, err := s.userRepo.FindByRole(ctx, domain.RoleUser)
	if err != nil {
		return fmt.Errorf("listing users for daily reminder: %w", err)
	}

	sent := 0
	for _, user := range users {
		msg := mail.Message{
			To:      mail.RecipientAddress(user.Username, s.mailDomain),
			Subject: "Daily Parking Reminder",
			Body: fmt.Sprintf("Hello %s,\n\nDon't forget to book your parking spot for today!\n\nRegards,\nParking App Team",
				user.Username),
		}
		if err := s.mailer.Send(msg); err != nil {
			log.Printf("Daily reminder to %s failed: %v", msg.To, err)
			continue
		}
		sent++
	}
	log.Printf("Daily reminder sent to %d of %d users", sent, len(users))
	return nil
}

// SendMonthlyReport mails every regular user an HTML activity report for the
// current calendar month.
func (s *NotificationService) SendMonthlyReport(ctx context.Context, now time.Time) error {
	users, err := s.userRepo.FindByRole(ctx, domain.RoleUser)
	if err != nil {
		return fmt.Errorf("listing users for monthly report: %w", err)
	}

	year, month, _ := now.UTC().Date()
	sent := 0
	for _, user := range users {
		usage, err := s.reportRepo.UserMonthlyUsage(ctx, user.ID, year, month)
		if err != nil {
			log.Printf("Monthly usage for user %d failed: %v", user.ID, err)
			continue
		}
		msg := mail.Message{
			To:      mail.RecipientAddress(user.Username, s.mailDomain),
			Subject: fmt.Sprintf("Your Parking Report for %s %d", month, year),
			Body:    monthlyReportHTML(user.Username, month, year, usage),
			HTML:    true,
		}
		if err := s.mailer.Send(msg); err != nil {
			log.Printf("Monthly report to %s failed: %v", msg.To, err)
			continue
		}
		sent++
	}
	log.Printf("Monthly report sent to %d of %d users", sent, len(users))
	return nil
}

func monthlyReportHTML(username string, month time.Month, year int, usage *domain.MonthlyUsage) string {
	return fmt.Sprintf(`<html><body>
<h2>Parking Report for %s %d</h2>
<p>Hello %s,</p>
<table border="1" cellpadding="6">
<tr><td>Total bookings</td><td>%d</td></tr>
<tr><td>Total spent</td><td>%.2f</td></tr>
<tr><td>Most used lot</td><td>%s</td></tr>
</table>
<p>Regards,<br>Parking App Team</p>
</body></html>`, month, year, username, usage.Bookings, usage.TotalSpent, usage.MostUsedLot)
}

// ExportReservationsCSV builds the user's full reservation history as CSV and
// mails it as an attachment. Rows whose spot or lot was deleted are skipped.
func (s *NotificationService) ExportReservationsCSV(ctx context.Context, payload domain.CSVExportPayload) error {
	records, err := s.reportRepo.UserReservations(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("listing reservations for csv export: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Lot", "Spot ID", "Start", "End", "Cost"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	rows := 0
	for _, rec := range records {
		if !rec.SpotID.Valid || rec.LotName == domain.DeletedLotName {
			continue
		}
		end, cost := "", ""
		if rec.LeavingTime.Valid {
			end = rec.LeavingTime.Time.Format(time.RFC3339)
		}
		if rec.Cost.Valid {
			cost = strconv.FormatFloat(rec.Cost.Float64, 'f', 2, 64)
		}
		row := []string{
			rec.LotName,
			strconv.FormatInt(rec.SpotID.Int64, 10),
			rec.ParkingTime.Format(time.RFC3339),
			end,
			cost,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
		rows++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	msg := mail.Message{
		To:      mail.RecipientAddress(payload.Username, s.mailDomain),
		Subject: "Your Parking Reservation Export",
		Body:    fmt.Sprintf("Hello %s,\n\nAttached is your reservation history (%d rows).\n\nRegards,\nParking App Team", payload.Username, rows),
		Attachments: []mail.Attachment{{
			Filename:    "reservations.csv",
			ContentType: "text/csv",
			Data:        buf.Bytes(),
		}},
	}
	if err := s.mailer.Send(msg); err != nil {
		return fmt.Errorf("mailing csv export: %w", err)
	}
	log.Printf("CSV export with %d rows mailed to user %d", rows, payload.UserID)
	return nil
}
