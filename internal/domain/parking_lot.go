package domain

import "time"

type ParkingLot struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address,omitempty"`
	PinCode    string    `json:"pin_code,omitempty"`
	Price      float64   `json:"price"` // per hour
	TotalSpots int       `json:"total_spots"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ParkingLotDTO struct {
	Name       string  `json:"name" binding:"required"`
	Address    string  `json:"address"`
	PinCode    string  `json:"pin_code"`
	Price      float64 `json:"price" binding:"required,gt=0"`
	TotalSpots int     `json:"total_spots" binding:"required,gt=0"`
}

// Partial update; total_spots is not resizable through this path.
type ParkingLotUpdateDTO struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	PinCode string   `json:"pin_code"`
	Price   *float64 `json:"price"`
}

// PublicLotView is the unauthenticated lot listing with live availability.
type PublicLotView struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Address        string  `json:"address,omitempty"`
	Price          float64 `json:"price"`
	AvailableSpots int     `json:"available_spots"`
}
