package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// A reservation is active while leaving_time is null and closed once it is
// set; cost is fixed at close time and never recomputed. SpotID is nullable
// because spots are bulk-deleted with their lot after the reservation closes.
type Reservation struct {
	ID          int        `json:"id"`
	SpotID      null.Int   `json:"spot_id"`
	UserID      int        `json:"user_id"`
	ParkingTime time.Time  `json:"parking_time"`
	LeavingTime null.Time  `json:"leaving_time"`
	Cost        null.Float `json:"cost"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (r *Reservation) Active() bool {
	return !r.LeavingTime.Valid
}

type ReserveSpotDTO struct {
	LotID int `json:"lot_id" binding:"required"`
}

type ReserveResponseDTO struct {
	ReservationID int `json:"reservation_id"`
	SpotID        int `json:"spot_id"`
}

type ReleaseResponseDTO struct {
	ReservationID int     `json:"reservation_id"`
	Cost          float64 `json:"cost"`
}
