package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gopkg.in/guregu/null.v4"

	"parking_reservation/internal/domain"
	"parking_reservation/internal/mail"
	"parking_reservation/internal/repository"
)

type fakeMailer struct {
	mu       sync.Mutex
	messages []mail.Message
	failFor  map[string]bool
}

func (m *fakeMailer) Send(msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[msg.To] {
		return errSendFailed
	}
	m.messages = append(m.messages, msg)
	return nil
}

var errSendFailed = errors.New("send failed")

type fakeUserRepo struct {
	users []domain.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == user.Username {
			return nil, repository.ErrDuplicateEntry
		}
	}
	user.ID = len(f.users) + 1
	f.users = append(f.users, *user)
	return user, nil
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	for i := range f.users {
		if f.users[i].Username == username {
			return &f.users[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id int) (*domain.User, error) {
	for i := range f.users {
		if f.users[i].ID == id {
			return &f.users[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) FindByRole(ctx context.Context, role string) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

// fakeReportingRepo returns canned data; only the methods a test configures
// matter.
type fakeReportingRepo struct {
	usage       map[int]*domain.MonthlyUsage
	userRecords map[int][]domain.ReservationRecord
}

func (f *fakeReportingRepo) LotSummaries(ctx context.Context) ([]domain.LotSummary, error) {
	return nil, nil
}
func (f *fakeReportingRepo) SpotCounts(ctx context.Context) (int, int, int, error) {
	return 0, 0, 0, nil
}
func (f *fakeReportingRepo) CountUsersByRole(ctx context.Context, role string) (int, error) {
	return 0, nil
}
func (f *fakeReportingRepo) TotalRevenue(ctx context.Context) (float64, error) { return 0, nil }
func (f *fakeReportingRepo) RecentReservations(ctx context.Context, limit int) ([]domain.ReservationRecord, error) {
	return nil, nil
}
func (f *fakeReportingRepo) AllReservations(ctx context.Context) ([]domain.ReservationRecord, error) {
	return nil, nil
}
func (f *fakeReportingRepo) UserReservations(ctx context.Context, userID int) ([]domain.ReservationRecord, error) {
	return f.userRecords[userID], nil
}
func (f *fakeReportingRepo) UserActiveReservation(ctx context.Context, userID int) (*domain.ActiveReservationInfo, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeReportingRepo) UserMonthlyUsage(ctx context.Context, userID, year int, month time.Month) (*domain.MonthlyUsage, error) {
	if u, ok := f.usage[userID]; ok {
		return u, nil
	}
	return &domain.MonthlyUsage{MostUsedLot: "N/A"}, nil
}
func (f *fakeReportingRepo) PublicLots(ctx context.Context) ([]domain.PublicLotView, error) {
	return nil, nil
}

func TestSendDailyReminderMailsEveryUser(t *testing.T) {
	mailer := &fakeMailer{}
	users := &fakeUserRepo{users: []domain.User{
		{ID: 1, Username: "alice", Role: domain.RoleUser},
		{ID: 2, Username: "bob", Role: domain.RoleUser},
		{ID: 3, Username: "admin", Role: domain.RoleAdmin},
	}}
	svc := NewNotificationService(users, &fakeReportingRepo{}, mailer, "example.com")

	if err := svc.SendDailyReminder(context.Background()); err != nil {
		t.Fatalf("SendDailyReminder: %v", err)
	}

	if len(mailer.messages) != 2 {
		t.Fatalf("expected 2 reminders (admins excluded), got %d", len(mailer.messages))
	}
	if mailer.messages[0].To != "alice@example.com" {
		t.Fatalf("expected recipient alice@example.com, got %s", mailer.messages[0].To)
	}
}

func TestSendDailyReminderSkipsFailedRecipient(t *testing.T) {
	mailer := &fakeMailer{failFor: map[string]bool{"alice@example.com": true}}
	users := &fakeUserRepo{users: []domain.User{
		{ID: 1, Username: "alice", Role: domain.RoleUser},
		{ID: 2, Username: "bob", Role: domain.RoleUser},
	}}
	svc := NewNotificationService(users, &fakeReportingRepo{}, mailer, "example.com")

	if err := svc.SendDailyReminder(context.Background()); err != nil {
		t.Fatalf("expected partial failure to be swallowed, got %v", err)
	}
	if len(mailer.messages) != 1 || mailer.messages[0].To != "bob@example.com" {
		t.Fatalf("expected only bob to receive mail, got %+v", mailer.messages)
	}
}

func TestSendMonthlyReportContent(t *testing.T) {
	mailer := &fakeMailer{}
	users := &fakeUserRepo{users: []domain.User{
		{ID: 1, Username: "alice", Role: domain.RoleUser},
	}}
	reports := &fakeReportingRepo{usage: map[int]*domain.MonthlyUsage{
		1: {Bookings: 4, TotalSpent: 37.5, MostUsedLot: "Central"},
	}}
	svc := NewNotificationService(users, reports, mailer, "example.com")

	now := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	if err := svc.SendMonthlyReport(context.Background(), now); err != nil {
		t.Fatalf("SendMonthlyReport: %v", err)
	}

	if len(mailer.messages) != 1 {
		t.Fatalf("expected 1 report, got %d", len(mailer.messages))
	}
	msg := mailer.messages[0]
	if !msg.HTML {
		t.Fatalf("expected an HTML body")
	}
	if !strings.Contains(msg.Subject, "June 2025") {
		t.Fatalf("expected subject to name the month, got %q", msg.Subject)
	}
	for _, want := range []string{"4", "37.50", "Central", "alice"} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("expected body to contain %q, body: %s", want, msg.Body)
		}
	}
}

func TestExportReservationsCSVSkipsDeletedLots(t *testing.T) {
	mailer := &fakeMailer{}
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	reports := &fakeReportingRepo{userRecords: map[int][]domain.ReservationRecord{
		7: {
			{
				ReservationID: 1,
				LotName:       "Central",
				SpotID:        null.IntFrom(3),
				ParkingTime:   start,
				LeavingTime:   null.TimeFrom(start.Add(30 * time.Minute)),
				Cost:          null.FloatFrom(5),
			},
			{
				// Lot deleted since: no spot id, placeholder lot name.
				ReservationID: 2,
				LotName:       domain.DeletedLotName,
				ParkingTime:   start,
				LeavingTime:   null.TimeFrom(start.Add(time.Hour)),
				Cost:          null.FloatFrom(10),
			},
			{
				// Still active: end and cost stay empty.
				ReservationID: 3,
				LotName:       "Central",
				SpotID:        null.IntFrom(4),
				ParkingTime:   start,
			},
		},
	}}
	svc := NewNotificationService(&fakeUserRepo{}, reports, mailer, "example.com")

	err := svc.ExportReservationsCSV(context.Background(), domain.CSVExportPayload{UserID: 7, Username: "carol"})
	if err != nil {
		t.Fatalf("ExportReservationsCSV: %v", err)
	}

	if len(mailer.messages) != 1 {
		t.Fatalf("expected 1 export mail, got %d", len(mailer.messages))
	}
	msg := mailer.messages[0]
	if msg.To != "carol@example.com" {
		t.Fatalf("expected recipient carol@example.com, got %s", msg.To)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].ContentType != "text/csv" {
		t.Fatalf("expected one text/csv attachment, got %+v", msg.Attachments)
	}

	lines := strings.Split(strings.TrimSpace(string(msg.Attachments[0].Data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows (deleted-lot row skipped), got %d lines: %v", len(lines), lines)
	}
	if lines[0] != "Lot,Spot ID,Start,End,Cost" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Central,3") || !strings.Contains(lines[1], "5.00") {
		t.Fatalf("unexpected first row: %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], ",,") {
		t.Fatalf("expected empty end/cost for active row, got %q", lines[2])
	}
}

func TestHandleJobDispatch(t *testing.T) {
	mailer := &fakeMailer{}
	svc := NewNotificationService(&fakeUserRepo{}, &fakeReportingRepo{}, mailer, "example.com")

	payload, _ := json.Marshal(domain.SendEmailPayload{
		Subject:   "Hello",
		Recipient: "alice@example.com",
		Body:      "Hi there",
	})
	job := domain.Job{ID: "job-1", Type: domain.JobSendEmail, Payload: payload}
	if err := svc.HandleJob(context.Background(), job); err != nil {
		t.Fatalf("HandleJob: %v", err)
	}
	if len(mailer.messages) != 1 || mailer.messages[0].Subject != "Hello" {
		t.Fatalf("expected the email to be sent, got %+v", mailer.messages)
	}
}

func TestHandleJobUnknownTypeIsDropped(t *testing.T) {
	svc := NewNotificationService(&fakeUserRepo{}, &fakeReportingRepo{}, &fakeMailer{}, "example.com")
	job := domain.Job{ID: "job-2", Type: "mystery"}
	if err := svc.HandleJob(context.Background(), job); err != nil {
		t.Fatalf("expected unknown job types to be dropped without error, got %v", err)
	}
}

func TestHandleJobBadPayload(t *testing.T) {
	svc := NewNotificationService(&fakeUserRepo{}, &fakeReportingRepo{}, &fakeMailer{}, "example.com")
	job := domain.Job{ID: "job-3", Type: domain.JobSendEmail, Payload: json.RawMessage(`{`)}
	if err := svc.HandleJob(context.Background(), job); err == nil {
		t.Fatalf("expected an error for an undecodable payload")
	}
}
