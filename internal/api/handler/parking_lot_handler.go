package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"parking_reservation/internal/domain"
	"parking_reservation/internal/repository"
	"parking_reservation/internal/service"
)

type ParkingLotHandler struct {
	allocationService *service.AllocationService
	reportingService  *service.ReportingService
}

func NewParkingLotHandler(as *service.AllocationService, rs *service.ReportingService) *ParkingLotHandler {
	return &ParkingLotHandler{allocationService: as, reportingService: rs}
}

// POST /api/v1/parking-lots
func (h *ParkingLotHandler) CreateParkingLot(c *gin.Context) {
	var dto domain.ParkingLotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.allocationService.CreateLot(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create parking lot"})
		return
	}
	c.JSON(http.StatusCreated, lot)
}

// GET /api/v1/parking-lots/:id
func (h *ParkingLotHandler) GetParkingLotByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parking lot id"})
		return
	}

	lot, err := h.allocationService.GetLotByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch parking lot"})
		return
	}
	c.JSON(http.StatusOK, lot)
}

// GET /api/v1/parking-lots
func (h *ParkingLotHandler) GetAllParkingLots(c *gin.Context) {
	lots, err := h.allocationService.GetAllLots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list parking lots"})
		return
	}
	c.JSON(http.StatusOK, lots)
}

// GET /api/v1/parking-lots/:id/spots
func (h *ParkingLotHandler) GetSpotsByLotID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parking lot id"})
		return
	}

	spots, err := h.allocationService.GetSpotsByLotID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list spots"})
		return
	}
	c.JSON(http.StatusOK, spots)
}

// PUT /api/v1/parking-lots/:id
func (h *ParkingLotHandler) UpdateParkingLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parking lot id"})
		return
	}

	var dto domain.ParkingLotUpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.allocationService.UpdateLot(c.Request.Context(), id, dto)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
			return
		}
		if errors.Is(err, repository.ErrDuplicateEntry) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update parking lot"})
		return
	}
	c.JSON(http.StatusOK, lot)
}

// DELETE /api/v1/parking-lots/:id
func (h *ParkingLotHandler) DeleteParkingLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parking lot id"})
		return
	}

	if err := h.allocationService.DeleteLot(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
			return
		}
		if errors.Is(err, repository.ErrLotOccupied) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete parking lot"})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// GET /api/v1/lots
func (h *ParkingLotHandler) GetPublicLots(c *gin.Context) {
	lots, err := h.reportingService.PublicLots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list lots"})
		return
	}
	c.JSON(http.StatusOK, lots)
}
