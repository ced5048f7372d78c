package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking_reservation/internal/domain"
	"parking_reservation/internal/jobs"
)

// NotificationHandler exposes the admin job-trigger endpoints. Each endpoint
// only enqueues; the SQS consumer does the actual sending.
type NotificationHandler struct {
	jobQueue jobs.JobQueue
}

func NewNotificationHandler(jq jobs.JobQueue) *NotificationHandler {
	return &NotificationHandler{jobQueue: jq}
}

// POST /api/v1/notifications/email
func (h *NotificationHandler) SendEmail(c *gin.Context) {
	var payload domain.SendEmailPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.enqueue(c, domain.JobSendEmail, payload)
}

// POST /api/v1/notifications/daily-reminder
func (h *NotificationHandler) TriggerDailyReminder(c *gin.Context) {
	h.enqueue(c, domain.JobDailyReminder, nil)
}

// POST /api/v1/notifications/monthly-report
func (h *NotificationHandler) TriggerMonthlyReport(c *gin.Context) {
	h.enqueue(c, domain.JobMonthlyReport, nil)
}

func (h *NotificationHandler) enqueue(c *gin.Context, jobType domain.JobType, payload interface{}) {
	if h.jobQueue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "job queue is not configured"})
		return
	}
	jobID, err := h.jobQueue.Enqueue(c.Request.Context(), jobType, payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not queue job"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}
