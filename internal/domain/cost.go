package domain

import (
	"math"
	"time"
)

// ComputeCost bills a stay by elapsed wall-clock minutes at the lot's hourly
// price (price per minute = price/60), rounded to two decimal places. A
// leaving time earlier than the parking time charges zero; cost is never
// negative.
func ComputeCost(parkingTime, leavingTime time.Time, pricePerHour float64) float64 {
	minutes := leavingTime.Sub(parkingTime).Minutes()
	if minutes < 0 {
		minutes = 0
	}
	return Round2(minutes / 60 * pricePerHour)
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
