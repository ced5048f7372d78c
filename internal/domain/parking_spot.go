package domain

import "time"

type SpotStatus string

const (
	SpotAvailable SpotStatus = "available"
	SpotOccupied  SpotStatus = "occupied"
)

// A spot is never created or deleted on its own: spots come into existence
// with their lot and are removed in bulk when the lot is deleted.
type ParkingSpot struct {
	ID        int        `json:"id"`
	LotID     int        `json:"lot_id"`
	Status    SpotStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// LotOccupancyUpdate is pushed to websocket subscribers after a reserve or
// release commits.
type LotOccupancyUpdate struct {
	LotID  int        `json:"lot_id"`
	SpotID int        `json:"spot_id"`
	Status SpotStatus `json:"status"`
	At     time.Time  `json:"at"`
}
