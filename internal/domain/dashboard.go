package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// DeletedLotName is rendered wherever a reservation outlived its lot.
const DeletedLotName = "Deleted Lot"

type LotSummary struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Address    string  `json:"address,omitempty"`
	PinCode    string  `json:"pin_code,omitempty"`
	Price      float64 `json:"price"`
	TotalSpots int     `json:"total_spots"`
	Available  int     `json:"available"`
	Occupied   int     `json:"occupied"`
}

// ReservationRecord is a reporting row: a reservation joined with its user
// and lot, tolerant of the lot/spot having been deleted since.
type ReservationRecord struct {
	ReservationID int        `json:"reservation_id"`
	Username      string     `json:"username,omitempty"`
	LotName       string     `json:"lot_name"`
	SpotID        null.Int   `json:"spot_id"`
	ParkingTime   time.Time  `json:"start"`
	LeavingTime   null.Time  `json:"end"`
	Cost          null.Float `json:"cost"`
}

type AdminDashboard struct {
	TotalLots      int                 `json:"total_lots"`
	TotalSpots     int                 `json:"total_spots"`
	AvailableSpots int                 `json:"available_spots"`
	OccupiedSpots  int                 `json:"occupied_spots"`
	TotalUsers     int                 `json:"total_users"`
	TotalRevenue   float64             `json:"total_revenue"`
	Lots           []LotSummary        `json:"lots"`
	Reservations   []ReservationRecord `json:"reservations"`
}

type ActiveReservationInfo struct {
	LotName     string    `json:"lot_name"`
	SpotID      int       `json:"spot_id"`
	ParkedSince time.Time `json:"parked_since"`
}

type UserDashboard struct {
	Active            *ActiveReservationInfo `json:"active_reservation"`
	TotalReservations int                    `json:"total_reservations"`
	TotalSpent        float64                `json:"total_amount_spent"`
	Recent            []ReservationRecord    `json:"recent_history"`
}

// MonthlyUsage summarizes a user's closed reservations for one calendar month.
type MonthlyUsage struct {
	Bookings    int     `json:"bookings"`
	TotalSpent  float64 `json:"total_spent"`
	MostUsedLot string  `json:"most_used_lot"`
}
