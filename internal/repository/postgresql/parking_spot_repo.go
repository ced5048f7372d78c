package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parking_reservation/internal/domain"
	"parking_reservation/internal/repository"
)

type pgParkingSpotRepository struct {
	db *sql.DB
}

func NewPgParkingSpotRepository(db *sql.DB) repository.ParkingSpotRepository {
	return &pgParkingSpotRepository{db: db}
}

func (r *pgParkingSpotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	spot := &domain.ParkingSpot{}
	query := `SELECT id, lot_id, status, created_at, updated_at FROM parking_spots WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&spot.ID, &spot.LotID, &spot.Status, &spot.CreatedAt, &spot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSpotRepository.FindByID: %w", err)
	}
	spot.CreatedAt = spot.CreatedAt.In(time.UTC)
	spot.UpdatedAt = spot.UpdatedAt.In(time.UTC)
	return spot, nil
}

func (r *pgParkingSpotRepository) FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	query := `SELECT id, lot_id, status, created_at, updated_at FROM parking_spots WHERE lot_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.FindByLotID: %w", err)
	}
	defer rows.Close()

	var spots []domain.ParkingSpot
	for rows.Next() {
		var spot domain.ParkingSpot
		if err := rows.Scan(&spot.ID, &spot.LotID, &spot.Status, &spot.CreatedAt, &spot.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ParkingSpotRepository.FindByLotID (scanning row): %w", err)
		}
		spot.CreatedAt = spot.CreatedAt.In(time.UTC)
		spot.UpdatedAt = spot.UpdatedAt.In(time.UTC)
		spots = append(spots, spot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.FindByLotID (rows error): %w", err)
	}
	return spots, nil
}
