package service

import (
	"context"
	"errors"
	"log"
	"time"

	"parking_reservation/internal/domain"
	"parking_reservation/internal/repository"
)

const (
	adminDashboardCacheKey  = "dashboard:admin"
	allReservationsCacheKey = "reservations:all"
	reportCacheTTL          = 60 * time.Second

	recentReservationsLimit = 10
	userRecentHistoryLimit  = 5
)

// ReportCache is the optional read cache in front of the admin aggregations.
// Cache failures degrade to a direct read, never to an error.
type ReportCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type ReportingService struct {
	reportRepo repository.ReportingRepository
	cache      ReportCache
}

func NewReportingService(reportRepo repository.ReportingRepository, cache ReportCache) *ReportingService {
	return &ReportingService{reportRepo: reportRepo, cache: cache}
}

// AdminDashboard aggregates the system-wide counters, per-lot occupancy and
// the most recent reservations. Cached for 60 seconds.
func (s *ReportingService) AdminDashboard(ctx context.Context) (*domain.AdminDashboard, error) {
	var cached domain.AdminDashboard
	if s.cacheGet(ctx, adminDashboardCacheKey, &cached) {
		return &cached, nil
	}

	lots, err := s.reportRepo.LotSummaries(ctx)
	if err != nil {
		return nil, err
	}
	total, available, occupied, err := s.reportRepo.SpotCounts(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.reportRepo.CountUsersByRole(ctx, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	revenue, err := s.reportRepo.TotalRevenue(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.reportRepo.RecentReservations(ctx, recentReservationsLimit)
	if err != nil {
		return nil, err
	}

	dashboard := &domain.AdminDashboard{
		TotalLots:      len(lots),
		TotalSpots:     total,
		AvailableSpots: available,
		OccupiedSpots:  occupied,
		TotalUsers:     users,
		TotalRevenue:   revenue,
		Lots:           lots,
		Reservations:   recent,
	}
	s.cacheSet(ctx, adminDashboardCacheKey, dashboard)
	return dashboard, nil
}

// AllReservations lists every reservation, newest first. Cached for 60 seconds.
func (s *ReportingService) AllReservations(ctx context.Context) ([]domain.ReservationRecord, error) {
	var cached []domain.ReservationRecord
	if s.cacheGet(ctx, allReservationsCacheKey, &cached) {
		return cached, nil
	}

	records, err := s.reportRepo.AllReservations(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, allReservationsCacheKey, records)
	return records, nil
}

func (s *ReportingService) UserDashboard(ctx context.Context, userID int) (*domain.UserDashboard, error) {
	active, err := s.reportRepo.UserActiveReservation(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		active = nil
	}

	history, err := s.reportRepo.UserReservations(ctx, userID)
	if err != nil {
		return nil, err
	}

	var spent float64
	for _, rec := range history {
		if rec.Cost.Valid {
			spent += rec.Cost.Float64
		}
	}

	recent := history
	if len(recent) > userRecentHistoryLimit {
		recent = recent[:userRecentHistoryLimit]
	}

	return &domain.UserDashboard{
		Active:            active,
		TotalReservations: len(history),
		TotalSpent:        domain.Round2(spent),
		Recent:            recent,
	}, nil
}

func (s *ReportingService) UserHistory(ctx context.Context, userID int) ([]domain.ReservationRecord, error) {
	return s.reportRepo.UserReservations(ctx, userID)
}

func (s *ReportingService) PublicLots(ctx context.Context) ([]domain.PublicLotView, error) {
	return s.reportRepo.PublicLots(ctx)
}

func (s *ReportingService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		log.Printf("Cache read for %s failed: %v", key, err)
		return false
	}
	return hit
}

func (s *ReportingService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, reportCacheTTL); err != nil {
		log.Printf("Cache write for %s failed: %v", key, err)
	}
}
