package repository

import (
	"context"
	"errors"
	"time"

	"parking_reservation/internal/domain"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicateEntry      = errors.New("record already exists")
	ErrAlreadyReserved     = errors.New("user already has an active reservation")
	ErrNoSpotsAvailable    = errors.New("no available spots in this lot")
	ErrNoActiveReservation = errors.New("no active reservation found")
	ErrLotOccupied         = errors.New("lot has occupied spots")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	FindByRole(ctx context.Context, role string) ([]domain.User, error)
}

type ParkingLotRepository interface {
	FindByID(ctx context.Context, id int) (*domain.ParkingLot, error)
	FindAll(ctx context.Context) ([]domain.ParkingLot, error)
	Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
}

type ParkingSpotRepository interface {
	FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error)
	FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error)
}

// AllocationStore is the transactional core of the entity store. Each method
// is a single atomic unit: it either commits fully or leaves no partial
// state. All spot status and reservation mutations go through here.
type AllocationStore interface {
	// ReserveSpot picks the lowest-id available spot in the lot, flips it to
	// occupied and inserts an active reservation, all in one transaction.
	// Fails with ErrAlreadyReserved if the user holds an active reservation
	// in any lot, ErrNoSpotsAvailable if the lot is full, ErrNotFound if the
	// lot does not exist.
	ReserveSpot(ctx context.Context, userID, lotID int, parkingTime time.Time) (*domain.Reservation, error)

	// ReleaseSpot closes the user's active reservation: sets leaving_time,
	// computes and fixes the cost from the owning lot's hourly price, and
	// flips the spot back to available, all in one transaction. Fails with
	// ErrNoActiveReservation if the user has none (including when a
	// concurrent release already closed it).
	ReleaseSpot(ctx context.Context, userID int, leavingTime time.Time) (*domain.Reservation, error)

	// CreateLotWithSpots inserts the lot and exactly lot.TotalSpots available
	// spot rows as one unit. Fails with ErrDuplicateEntry on a name clash.
	CreateLotWithSpots(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)

	// DeleteLotWithSpots removes the lot and all its spot rows. Fails with
	// ErrLotOccupied while any owned spot is occupied.
	DeleteLotWithSpots(ctx context.Context, lotID int) error
}

// ReportingRepository is the read-only aggregation surface. It enforces no
// invariants and must tolerate lots/spots deleted after reservations closed.
type ReportingRepository interface {
	LotSummaries(ctx context.Context) ([]domain.LotSummary, error)
	SpotCounts(ctx context.Context) (total, available, occupied int, err error)
	CountUsersByRole(ctx context.Context, role string) (int, error)
	TotalRevenue(ctx context.Context) (float64, error)
	RecentReservations(ctx context.Context, limit int) ([]domain.ReservationRecord, error)
	AllReservations(ctx context.Context) ([]domain.ReservationRecord, error)
	UserReservations(ctx context.Context, userID int) ([]domain.ReservationRecord, error)
	UserActiveReservation(ctx context.Context, userID int) (*domain.ActiveReservationInfo, error)
	UserMonthlyUsage(ctx context.Context, userID, year int, month time.Month) (*domain.MonthlyUsage, error)
	PublicLots(ctx context.Context) ([]domain.PublicLotView, error)
}
