package domain

import "encoding/json"

type JobType string

const (
	JobSendEmail     JobType = "send_email"
	JobDailyReminder JobType = "daily_reminder"
	JobMonthlyReport JobType = "monthly_report"
	JobCSVExport     JobType = "csv_export"
)

// Job is the wire format for queued notification work. Delivery is
// at-least-once and unordered; handlers must tolerate redelivery.
type Job struct {
	ID      string          `json:"id"`
	Type    JobType         `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type SendEmailPayload struct {
	Subject   string `json:"subject" binding:"required"`
	Recipient string `json:"recipient" binding:"required,email"`
	Body      string `json:"body" binding:"required"`
}

type CSVExportPayload struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
}
