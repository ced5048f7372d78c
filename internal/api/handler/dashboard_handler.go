package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking_reservation/internal/api/middleware"
	"parking_reservation/internal/service"
)

type DashboardHandler struct {
	reportingService *service.ReportingService
}

func NewDashboardHandler(rs *service.ReportingService) *DashboardHandler {
	return &DashboardHandler{reportingService: rs}
}

// GET /api/v1/admin/dashboard
func (h *DashboardHandler) AdminDashboard(c *gin.Context) {
	dashboard, err := h.reportingService.AdminDashboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build dashboard"})
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// GET /api/v1/admin/reservations
func (h *DashboardHandler) AllReservations(c *gin.Context) {
	records, err := h.reportingService.AllReservations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list reservations"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GET /api/v1/user/dashboard
func (h *DashboardHandler) UserDashboard(c *gin.Context) {
	userID, _, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	dashboard, err := h.reportingService.UserDashboard(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build dashboard"})
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
