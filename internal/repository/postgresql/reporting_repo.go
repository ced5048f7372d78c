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

type pgReportingRepository struct {
	db *sql.DB
}

func NewPgReportingRepository(db *sql.DB) repository.ReportingRepository {
	return &pgReportingRepository{db: db}
}

func (r *pgReportingRepository) LotSummaries(ctx context.Context) ([]domain.LotSummary, error) {
	query := `
		SELECT l.id, l.name, l.address, l.pin_code, l.price, l.total_spots,
		       COUNT(s.id) FILTER (WHERE s.status = $1) AS available,
		       COUNT(s.id) FILTER (WHERE s.status = $2) AS occupied
		FROM parking_lots l
		LEFT JOIN parking_spots s ON s.lot_id = l.id
		GROUP BY l.id
		ORDER BY l.name`
	rows, err := r.db.QueryContext(ctx, query, domain.SpotAvailable, domain.SpotOccupied)
	if err != nil {
		return nil, fmt.Errorf("ReportingRepository.LotSummaries: %w", err)
	}
	defer rows.Close()

	var summaries []domain.LotSummary
	for rows.Next() {
		var ls domain.LotSummary
		var address, pinCode sql.NullString
		if err := rows.Scan(&ls.ID, &ls.Name, &address, &pinCode, &ls.Price, &ls.TotalSpots, &ls.Available, &ls.Occupied); err != nil {
			return nil, fmt.Errorf("ReportingRepository.LotSummaries (scanning row): %w", err)
		}
		ls.Address = address.String
		ls.PinCode = pinCode.String
		summaries = append(summaries, ls)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ReportingRepository.LotSummaries (rows error): %w", err)
	}
	return summaries, nil
}

func (r *pgReportingRepository) SpotCounts(ctx context.Context) (total, available, occupied int, err error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = $1),
		       COUNT(*) FILTER (WHERE status = $2)
		FROM parking_spots`
	err = r.db.QueryRowContext(ctx, query, domain.SpotAvailable, domain.SpotOccupied).Scan(&total, &available, &occupied)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ReportingRepository.SpotCounts: %w", err)
	}
	return total, available, occupied, nil
}

func (r *pgReportingRepository) CountUsersByRole(ctx context.Context, role string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ReportingRepository.CountUsersByRole: %w", err)
	}
	return count, nil
}

func (r *pgReportingRepository) TotalRevenue(ctx context.Context) (float64, error) {
	var revenue float64
	query := `SELECT COALESCE(SUM(cost), 0) FROM reservations WHERE leaving_time IS NOT NULL`
	err := r.db.QueryRowContext(ctx, query).Scan(&revenue)
	if err != nil {
		return 0, fmt.Errorf("ReportingRepository.TotalRevenue: %w", err)
	}
	return domain.Round2(revenue), nil
}

// recordQuery is the common reservation-listing projection. Lots and spots
// may have been deleted since the reservation closed; the lot name falls
// back to the deleted-lot placeholder and spot_id scans as null.
const recordQuery = `
	SELECT r.id, u.username, COALESCE(l.name, $1), r.spot_id, r.parking_time, r.leaving_time, r.cost
	FROM reservations r
	JOIN users u ON u.id = r.user_id
	LEFT JOIN parking_spots s ON s.id = r.spot_id
	LEFT JOIN parking_lots l ON l.id = s.lot_id`

func (r *pgReportingRepository) scanRecords(rows *sql.Rows) ([]domain.ReservationRecord, error) {
	var records []domain.ReservationRecord
	for rows.Next() {
		var rec domain.ReservationRecord
		if err := rows.Scan(&rec.ReservationID, &rec.Username, &rec.LotName, &rec.SpotID, &rec.ParkingTime, &rec.LeavingTime, &rec.Cost); err != nil {
			return nil, fmt.Errorf("scanning reservation record: %w", err)
		}
		rec.ParkingTime = rec.ParkingTime.In(time.UTC)
		if rec.LeavingTime.Valid {
			rec.LeavingTime.Time = rec.LeavingTime.Time.In(time.UTC)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reservation record rows error: %w", err)
	}
	return records, nil
}

func (r *pgReportingRepository) RecentReservations(ctx context.Context, limit int) ([]domain.ReservationRecord, error) {
	rows, err := r.db.QueryContext(ctx, recordQuery+` ORDER BY r.parking_time DESC LIMIT $2`, domain.DeletedLotName, limit)
	if err != nil {
		return nil, fmt.Errorf("ReportingRepository.RecentReservations: %w", err)
	}
	defer rows.Close()
	return r.scanRecords(rows)
}

func (r *pgReportingRepository) AllReservations(ctx context.Context) ([]domain.ReservationRecord, error) {
	rows, err := r.db.QueryContext(ctx, recordQuery+` ORDER BY r.parking_time DESC`, domain.DeletedLotName)
	if err != nil {
		return nil, fmt.Errorf("ReportingRepository.AllReservations: %w", err)
	}
	defer rows.Close()
	return r.scanRecords(rows)
}

func (r *pgReportingRepository) UserReservations(ctx context.Context, userID int) ([]domain.ReservationRecord, error) {
	rows, err := r.db.QueryContext(ctx, recordQuery+` WHERE r.user_id = $2 ORDER BY r.parking_time DESC`, domain.DeletedLotName, userID)
	if err != nil {
		return nil, fmt.Errorf("ReportingRepository.UserReservations: %w", err)
	}
	defer rows.Close()
	return r.scanRecords(rows)
}

func (r *pgReportingRepository) UserActiveReservation(ctx context.Context, userID int) (*domain.ActiveReservationInfo, error) {
	info := &domain.ActiveReservationInfo{}
	// An active reservation's spot and lot always exist (lot deletion is
	// blocked while a spot is occupied), so plain joins are safe here.
	query := `
		SELECT l.name, s.id, r.parking_time
		FROM reservations r
		JOIN parking_spots s ON s.id = r.spot_id
		JOIN parking_lots l ON l.id = s.lot_id
		WHERE r.user_id = $1 AND r.leaving_time IS NULL`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&info.LotName, &info.SpotID, &info.ParkedSince)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ReportingRepository.UserActiveReservation: %w", err)
	}
	info.ParkedSince = info.ParkedSince.In(time.UTC)
	return info, nil
}

func (r *pgReportingRepository) UserMonthlyUsage(ctx context.Context, userID, year int, month time.Month) (*domain.MonthlyUsage, error) {
	usage := &domain.MonthlyUsage{MostUsedLot: "N/A"}
	query := `
		SELECT COUNT(*), COALESCE(SUM(cost), 0)
		FROM reservations
		WHERE user_id = $1 AND leaving_time IS NOT NULL
		  AND EXTRACT(MONTH FROM parking_time) = $2
		  AND EXTRACT(YEAR FROM parking_time) = $3`
	err := r.db.QueryRowContext(ctx, query, userID, int(month), year).Scan(&usage.Bookings, &usage.TotalSpent)
	if err != nil {
		return nil, fmt.Errorf("ReportingRepository.UserMonthlyUsage: %w", err)
	}
	usage.TotalSpent = domain.Round2(usage.TotalSpent)

	// Reservations whose lot was deleted since do not count toward the
	// most-used ranking. Ties resolve to the first lot by name.
	rankQuery := `
		SELECT l.name
		FROM reservations r
		JOIN parking_spots s ON s.id = r.spot_id
		JOIN parking_lots l ON l.id = s.lot_id
		WHERE r.user_id = $1 AND r.leaving_time IS NOT NULL
		  AND EXTRACT(MONTH FROM r.parking_time) = $2
		  AND EXTRACT(YEAR FROM r.parking_time) = $3
		GROUP BY l.name
		ORDER BY COUNT(*) DESC, l.name ASC
		LIMIT 1`
	err = r.db.QueryRowContext(ctx, rankQuery, userID, int(month), year).Scan(&usage.MostUsedLot)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ReportingRepository.UserMonthlyUsage (ranking lots): %w", err)
	}
	return usage, nil
}

func (r *pgReportingRepository) PublicLots(ctx context.Context) ([]domain.PublicLotView, error) {
	query := `
		SELECT l.id, l.name, l.address, l.price,
		       COUNT(s.id) FILTER (WHERE s.status = $1) AS available
		FROM parking_lots l
		LEFT JOIN parking_spots s ON s.lot_id = l.id
		GROUP BY l.id
		ORDER BY l.name`
	rows, err := r.db.QueryContext(ctx, query, domain.SpotAvailable)
	if err != nil {
		return nil, fmt.Errorf("ReportingRepository.PublicLots: %w", err)
	}
	defer rows.Close()

	var lots []domain.PublicLotView
	for rows.Next() {
		var lot domain.PublicLotView
		var address sql.NullString
		if err := rows.Scan(&lot.ID, &lot.Name, &address, &lot.Price, &lot.AvailableSpots); err != nil {
			return nil, fmt.Errorf("ReportingRepository.PublicLots (scanning row): %w", err)
		}
		lot.Address = address.String
		lots = append(lots, lot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ReportingRepository.PublicLots (rows error): %w", err)
	}
	return lots, nil
}
