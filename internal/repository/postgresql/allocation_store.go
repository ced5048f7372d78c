package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gopkg.in/guregu/null.v4"

	"parking_reservation/internal/domain"
	"parking_reservation/internal/repository"
)

// pgAllocationStore implements the reserve/release critical sections and the
// lot lifecycle as single transactions. Concurrency control: the user row is
// locked to serialize reservation attempts by the same user, and the spot is
// claimed with FOR UPDATE SKIP LOCKED so concurrent reservations for the same
// lot never select the same row. The partial unique index
// reservations_active_user_key backstops the one-active-reservation rule.
type pgAllocationStore struct {
	db *sql.DB
}

func NewPgAllocationStore(db *sql.DB) repository.AllocationStore {
	return &pgAllocationStore{db: db}
}

func (s *pgAllocationStore) ReserveSpot(ctx context.Context, userID, lotID int, parkingTime time.Time) (*domain.Reservation, error) {
	var res *domain.Reservation
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var id int
		err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: user %d", repository.ErrNotFound, userID)
			}
			return fmt.Errorf("AllocationStore.ReserveSpot (locking user): %w", err)
		}

		err = tx.QueryRowContext(ctx, `SELECT id FROM reservations WHERE user_id = $1 AND leaving_time IS NULL`, userID).Scan(&id)
		if err == nil {
			return repository.ErrAlreadyReserved
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("AllocationStore.ReserveSpot (checking active reservation): %w", err)
		}

		err = tx.QueryRowContext(ctx, `SELECT id FROM parking_lots WHERE id = $1`, lotID).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: parking lot %d", repository.ErrNotFound, lotID)
			}
			return fmt.Errorf("AllocationStore.ReserveSpot (checking lot): %w", err)
		}

		var spotID int
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM parking_spots
			WHERE lot_id = $1 AND status = $2
			ORDER BY id
			LIMIT 1
			FOR UPDATE SKIP LOCKED`, lotID, domain.SpotAvailable).Scan(&spotID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return repository.ErrNoSpotsAvailable
			}
			return fmt.Errorf("AllocationStore.ReserveSpot (selecting spot): %w", err)
		}

		if _, err = tx.ExecContext(ctx, `UPDATE parking_spots SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
			domain.SpotOccupied, spotID); err != nil {
			return fmt.Errorf("AllocationStore.ReserveSpot (occupying spot): %w", err)
		}

		r := &domain.Reservation{
			SpotID:      null.IntFrom(int64(spotID)),
			UserID:      userID,
			ParkingTime: parkingTime.UTC(),
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO reservations (spot_id, user_id, parking_time, created_at, updated_at)
			VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			RETURNING id, created_at, updated_at`,
			spotID, userID, r.ParkingTime).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok {
				if pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "reservations_active_user_key" {
					return repository.ErrAlreadyReserved
				}
			}
			return fmt.Errorf("AllocationStore.ReserveSpot (inserting reservation): %w", err)
		}
		r.CreatedAt = r.CreatedAt.In(time.UTC)
		r.UpdatedAt = r.UpdatedAt.In(time.UTC)
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *pgAllocationStore) ReleaseSpot(ctx context.Context, userID int, leavingTime time.Time) (*domain.Reservation, error) {
	var res *domain.Reservation
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		r := &domain.Reservation{UserID: userID}
		var spotID int
		var price float64
		// The lot is guaranteed to exist here: lot deletion is blocked while
		// any owned spot is occupied.
		err := tx.QueryRowContext(ctx, `
			SELECT r.id, r.spot_id, r.parking_time, l.price
			FROM reservations r
			JOIN parking_spots s ON s.id = r.spot_id
			JOIN parking_lots l ON l.id = s.lot_id
			WHERE r.user_id = $1 AND r.leaving_time IS NULL
			FOR UPDATE OF r, s`, userID).Scan(&r.ID, &spotID, &r.ParkingTime, &price)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return repository.ErrNoActiveReservation
			}
			return fmt.Errorf("AllocationStore.ReleaseSpot (finding active reservation): %w", err)
		}
		r.ParkingTime = r.ParkingTime.In(time.UTC)

		r.SpotID = null.IntFrom(int64(spotID))
		r.LeavingTime = null.TimeFrom(leavingTime.UTC())
		r.Cost = null.FloatFrom(domain.ComputeCost(r.ParkingTime, leavingTime, price))

		err = tx.QueryRowContext(ctx, `
			UPDATE reservations SET leaving_time = $1, cost = $2, updated_at = CURRENT_TIMESTAMP
			WHERE id = $3
			RETURNING updated_at`,
			r.LeavingTime.Time, r.Cost.Float64, r.ID).Scan(&r.UpdatedAt)
		if err != nil {
			return fmt.Errorf("AllocationStore.ReleaseSpot (closing reservation): %w", err)
		}
		r.UpdatedAt = r.UpdatedAt.In(time.UTC)

		if _, err = tx.ExecContext(ctx, `UPDATE parking_spots SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
			domain.SpotAvailable, spotID); err != nil {
			return fmt.Errorf("AllocationStore.ReleaseSpot (vacating spot): %w", err)
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *pgAllocationStore) CreateLotWithSpots(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO parking_lots (name, address, pin_code, price, total_spots, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			RETURNING id, created_at, updated_at`,
			lot.Name, lot.Address, lot.PinCode, lot.Price, lot.TotalSpots).Scan(&lot.ID, &lot.CreatedAt, &lot.UpdatedAt)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok {
				if pqErr.Code.Name() == "unique_violation" {
					return fmt.Errorf("%w: parking lot name '%s' already exists", repository.ErrDuplicateEntry, lot.Name)
				}
			}
			return fmt.Errorf("AllocationStore.CreateLotWithSpots (inserting lot): %w", err)
		}

		for i := 0; i < lot.TotalSpots; i++ {
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO parking_spots (lot_id, status, created_at, updated_at)
				VALUES ($1, $2, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
				lot.ID, domain.SpotAvailable); err != nil {
				return fmt.Errorf("AllocationStore.CreateLotWithSpots (inserting spot %d of %d): %w", i+1, lot.TotalSpots, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (s *pgAllocationStore) DeleteLotWithSpots(ctx context.Context, lotID int) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		var id int
		err := tx.QueryRowContext(ctx, `SELECT id FROM parking_lots WHERE id = $1 FOR UPDATE`, lotID).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return repository.ErrNotFound
			}
			return fmt.Errorf("AllocationStore.DeleteLotWithSpots (locking lot): %w", err)
		}

		// Lock every spot in the lot so a concurrent reserve cannot claim one
		// between the occupancy check and the delete.
		rows, err := tx.QueryContext(ctx, `SELECT status FROM parking_spots WHERE lot_id = $1 FOR UPDATE`, lotID)
		if err != nil {
			return fmt.Errorf("AllocationStore.DeleteLotWithSpots (locking spots): %w", err)
		}
		occupied := 0
		for rows.Next() {
			var status domain.SpotStatus
			if err := rows.Scan(&status); err != nil {
				rows.Close()
				return fmt.Errorf("AllocationStore.DeleteLotWithSpots (scanning spot): %w", err)
			}
			if status == domain.SpotOccupied {
				occupied++
			}
		}
		rows.Close()
		if err = rows.Err(); err != nil {
			return fmt.Errorf("AllocationStore.DeleteLotWithSpots (rows error): %w", err)
		}
		if occupied > 0 {
			return fmt.Errorf("%w: %d spot(s) still occupied", repository.ErrLotOccupied, occupied)
		}

		if _, err = tx.ExecContext(ctx, `DELETE FROM parking_spots WHERE lot_id = $1`, lotID); err != nil {
			return fmt.Errorf("AllocationStore.DeleteLotWithSpots (deleting spots): %w", err)
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM parking_lots WHERE id = $1`, lotID); err != nil {
			return fmt.Errorf("AllocationStore.DeleteLotWithSpots (deleting lot): %w", err)
		}
		return nil
	})
}
