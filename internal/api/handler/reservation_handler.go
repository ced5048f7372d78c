package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parking_reservation/internal/api/middleware"
	"parking_reservation/internal/domain"
	"parking_reservation/internal/jobs"
	"parking_reservation/internal/repository"
	"parking_reservation/internal/service"
)

type ReservationHandler struct {
	allocationService *service.AllocationService
	reportingService  *service.ReportingService
	jobQueue          jobs.JobQueue
}

func NewReservationHandler(as *service.AllocationService, rs *service.ReportingService, jq jobs.JobQueue) *ReservationHandler {
	return &ReservationHandler{allocationService: as, reportingService: rs, jobQueue: jq}
}

// POST /api/v1/reservations
func (h *ReservationHandler) ReserveSpot(c *gin.Context) {
	userID, _, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var dto domain.ReserveSpotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.allocationService.ReserveSpot(c.Request.Context(), userID, dto.LotID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyReserved):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrNoSpotsAvailable):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reserve spot"})
		}
		return
	}
	c.JSON(http.StatusCreated, domain.ReserveResponseDTO{
		ReservationID: res.ID,
		SpotID:        int(res.SpotID.Int64),
	})
}

// POST /api/v1/reservations/release
func (h *ReservationHandler) ReleaseSpot(c *gin.Context) {
	userID, _, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	res, err := h.allocationService.ReleaseSpot(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveReservation) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not release spot"})
		return
	}
	c.JSON(http.StatusOK, domain.ReleaseResponseDTO{
		ReservationID: res.ID,
		Cost:          res.Cost.Float64,
	})
}

// GET /api/v1/reservations/history
func (h *ReservationHandler) GetHistory(c *gin.Context) {
	userID, _, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	records, err := h.reportingService.UserHistory(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch reservation history"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// POST /api/v1/reservations/export
func (h *ReservationHandler) ExportCSV(c *gin.Context) {
	userID, username, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	if h.jobQueue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "job queue is not configured"})
		return
	}

	jobID, err := h.jobQueue.Enqueue(c.Request.Context(), domain.JobCSVExport, domain.CSVExportPayload{
		UserID:   userID,
		Username: username,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not queue export"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "message": "export queued, you will receive it by email"})
}
