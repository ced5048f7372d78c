package service

import (
	"context"
	"log"
	"time"

	"parking_reservation/internal/domain"
	"parking_reservation/internal/repository"
)

// OccupancyNotifier receives occupancy changes after a reserve/release
// commits. Implementations must not block; delivery is best-effort.
type OccupancyNotifier interface {
	BroadcastOccupancy(update domain.LotOccupancyUpdate)
}

// AllocationService is the allocation engine: the only component that
// transitions spot status or creates/closes reservations. All mutations run
// through the store's atomic operations; side effects (occupancy broadcast)
// happen strictly after commit and never fail the operation.
type AllocationService struct {
	store    repository.AllocationStore
	lotRepo  repository.ParkingLotRepository
	spotRepo repository.ParkingSpotRepository
	notifier OccupancyNotifier
}

func NewAllocationService(
	store repository.AllocationStore,
	lotRepo repository.ParkingLotRepository,
	spotRepo repository.ParkingSpotRepository,
	notifier OccupancyNotifier,
) *AllocationService {
	return &AllocationService{
		store:    store,
		lotRepo:  lotRepo,
		spotRepo: spotRepo,
		notifier: notifier,
	}
}

func (s *AllocationService) ReserveSpot(ctx context.Context, userID, lotID int) (*domain.Reservation, error) {
	res, err := s.store.ReserveSpot(ctx, userID, lotID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	log.Printf("User %d reserved spot %d in lot %d (reservation %d)", userID, res.SpotID.Int64, lotID, res.ID)
	s.notifyOccupancy(lotID, int(res.SpotID.Int64), domain.SpotOccupied)
	return res, nil
}

func (s *AllocationService) ReleaseSpot(ctx context.Context, userID int) (*domain.Reservation, error) {
	res, err := s.store.ReleaseSpot(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	log.Printf("User %d released spot %d (reservation %d, cost %.2f)", userID, res.SpotID.Int64, res.ID, res.Cost.Float64)

	spotID := int(res.SpotID.Int64)
	if spot, err := s.spotRepo.FindByID(ctx, spotID); err != nil {
		log.Printf("Could not look up spot %d for occupancy broadcast: %v", spotID, err)
	} else {
		s.notifyOccupancy(spot.LotID, spotID, domain.SpotAvailable)
	}
	return res, nil
}

func (s *AllocationService) CreateLot(ctx context.Context, dto domain.ParkingLotDTO) (*domain.ParkingLot, error) {
	lot := &domain.ParkingLot{
		Name:       dto.Name,
		Address:    dto.Address,
		PinCode:    dto.PinCode,
		Price:      dto.Price,
		TotalSpots: dto.TotalSpots,
	}
	created, err := s.store.CreateLotWithSpots(ctx, lot)
	if err != nil {
		return nil, err
	}
	log.Printf("Created parking lot %d ('%s') with %d spots", created.ID, created.Name, created.TotalSpots)
	return created, nil
}

func (s *AllocationService) UpdateLot(ctx context.Context, id int, dto domain.ParkingLotUpdateDTO) (*domain.ParkingLot, error) {
	lot, err := s.lotRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dto.Name != "" {
		lot.Name = dto.Name
	}
	if dto.Address != "" {
		lot.Address = dto.Address
	}
	if dto.PinCode != "" {
		lot.PinCode = dto.PinCode
	}
	if dto.Price != nil {
		lot.Price = *dto.Price
	}
	return s.lotRepo.Update(ctx, lot)
}

func (s *AllocationService) DeleteLot(ctx context.Context, id int) error {
	if err := s.store.DeleteLotWithSpots(ctx, id); err != nil {
		return err
	}
	log.Printf("Deleted parking lot %d and its spots", id)
	return nil
}

func (s *AllocationService) GetLotByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	return s.lotRepo.FindByID(ctx, id)
}

func (s *AllocationService) GetAllLots(ctx context.Context) ([]domain.ParkingLot, error) {
	return s.lotRepo.FindAll(ctx)
}

func (s *AllocationService) GetSpotsByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	return s.spotRepo.FindByLotID(ctx, lotID)
}

func (s *AllocationService) notifyOccupancy(lotID, spotID int, status domain.SpotStatus) {
	if s.notifier == nil {
		return
	}
	s.notifier.BroadcastOccupancy(domain.LotOccupancyUpdate{
		LotID:  lotID,
		SpotID: spotID,
		Status: status,
		At:     time.Now().UTC(),
	})
}
