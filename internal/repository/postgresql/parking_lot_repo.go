package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"parking_reservation/internal/domain"
	"parking_reservation/internal/repository"
)

type pgParkingLotRepository struct {
	db *sql.DB
}

func NewPgParkingLotRepository(db *sql.DB) repository.ParkingLotRepository {
	return &pgParkingLotRepository{db: db}
}

func (r *pgParkingLotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	lot := &domain.ParkingLot{}
	query := `SELECT id, name, address, pin_code, price, total_spots, created_at, updated_at FROM parking_lots WHERE id = $1`
	var address, pinCode sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(&lot.ID, &lot.Name, &address, &pinCode, &lot.Price, &lot.TotalSpots, &lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.FindByID: %w", err)
	}
	lot.Address = address.String
	lot.PinCode = pinCode.String
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) FindAll(ctx context.Context) ([]domain.ParkingLot, error) {
	query := `SELECT id, name, address, pin_code, price, total_spots, created_at, updated_at FROM parking_lots ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var lots []domain.ParkingLot
	for rows.Next() {
		var lot domain.ParkingLot
		var address, pinCode sql.NullString
		if err := rows.Scan(&lot.ID, &lot.Name, &address, &pinCode, &lot.Price, &lot.TotalSpots, &lot.CreatedAt, &lot.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ParkingLotRepository.FindAll (scanning row): %w", err)
		}
		lot.Address = address.String
		lot.PinCode = pinCode.String
		lot.CreatedAt = lot.CreatedAt.In(time.UTC)
		lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
		lots = append(lots, lot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAll (rows error): %w", err)
	}
	return lots, nil
}

// Update mutates name/address/pin_code/price only; total_spots is fixed at
// creation and spot rows are owned by the allocation store.
func (r *pgParkingLotRepository) Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	query := `UPDATE parking_lots SET name = $1, address = $2, pin_code = $3, price = $4, updated_at = CURRENT_TIMESTAMP WHERE id = $5 RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, lot.Name, lot.Address, lot.PinCode, lot.Price, lot.ID).Scan(&lot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" {
				return nil, fmt.Errorf("%w: parking lot name '%s' already exists", repository.ErrDuplicateEntry, lot.Name)
			}
		}
		return nil, fmt.Errorf("ParkingLotRepository.Update: %w", err)
	}
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}
