package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"gopkg.in/guregu/null.v4"

	"parking_reservation/internal/domain"
	"parking_reservation/internal/repository"
)

// countingReportRepo serves canned aggregates and counts how often the
// expensive queries run, to verify the cache short-circuits them.
type countingReportRepo struct {
	fakeReportingRepo
	lots        []domain.LotSummary
	recent      []domain.ReservationRecord
	all         []domain.ReservationRecord
	active      *domain.ActiveReservationInfo
	dashCalls   int
	listCalls   int
	userRecords map[int][]domain.ReservationRecord
}

func (r *countingReportRepo) LotSummaries(ctx context.Context) ([]domain.LotSummary, error) {
	r.dashCalls++
	return r.lots, nil
}
func (r *countingReportRepo) SpotCounts(ctx context.Context) (int, int, int, error) {
	return 10, 7, 3, nil
}
func (r *countingReportRepo) CountUsersByRole(ctx context.Context, role string) (int, error) {
	return 5, nil
}
func (r *countingReportRepo) TotalRevenue(ctx context.Context) (float64, error) {
	return 123.45, nil
}
func (r *countingReportRepo) RecentReservations(ctx context.Context, limit int) ([]domain.ReservationRecord, error) {
	if len(r.recent) > limit {
		return r.recent[:limit], nil
	}
	return r.recent, nil
}
func (r *countingReportRepo) AllReservations(ctx context.Context) ([]domain.ReservationRecord, error) {
	r.listCalls++
	return r.all, nil
}
func (r *countingReportRepo) UserReservations(ctx context.Context, userID int) ([]domain.ReservationRecord, error) {
	return r.userRecords[userID], nil
}
func (r *countingReportRepo) UserActiveReservation(ctx context.Context, userID int) (*domain.ActiveReservationInfo, error) {
	if r.active == nil {
		return nil, repository.ErrNotFound
	}
	return r.active, nil
}

type mapCache struct {
	entries map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (c *mapCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *mapCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func TestAdminDashboardAggregatesAndCaches(t *testing.T) {
	repo := &countingReportRepo{
		lots: []domain.LotSummary{
			{ID: 1, Name: "Central", Price: 10, TotalSpots: 6, Available: 4, Occupied: 2},
			{ID: 2, Name: "North", Price: 8, TotalSpots: 4, Available: 3, Occupied: 1},
		},
		recent: []domain.ReservationRecord{{ReservationID: 1, LotName: "Central"}},
	}
	svc := NewReportingService(repo, newMapCache())

	dash, err := svc.AdminDashboard(context.Background())
	if err != nil {
		t.Fatalf("AdminDashboard: %v", err)
	}
	if dash.TotalLots != 2 || dash.TotalSpots != 10 || dash.AvailableSpots != 7 || dash.OccupiedSpots != 3 {
		t.Fatalf("unexpected counters: %+v", dash)
	}
	if dash.TotalUsers != 5 || dash.TotalRevenue != 123.45 {
		t.Fatalf("unexpected users/revenue: %+v", dash)
	}
	if len(dash.Reservations) != 1 {
		t.Fatalf("expected 1 recent reservation, got %d", len(dash.Reservations))
	}

	if _, err := svc.AdminDashboard(context.Background()); err != nil {
		t.Fatalf("second AdminDashboard: %v", err)
	}
	if repo.dashCalls != 1 {
		t.Fatalf("expected the second call to hit the cache, repo called %d times", repo.dashCalls)
	}
}

func TestAdminDashboardWithoutCache(t *testing.T) {
	repo := &countingReportRepo{}
	svc := NewReportingService(repo, nil)

	for i := 0; i < 2; i++ {
		if _, err := svc.AdminDashboard(context.Background()); err != nil {
			t.Fatalf("AdminDashboard: %v", err)
		}
	}
	if repo.dashCalls != 2 {
		t.Fatalf("expected direct reads without a cache, repo called %d times", repo.dashCalls)
	}
}

func TestAllReservationsCached(t *testing.T) {
	repo := &countingReportRepo{
		all: []domain.ReservationRecord{{ReservationID: 1, LotName: "Central"}},
	}
	svc := NewReportingService(repo, newMapCache())

	for i := 0; i < 3; i++ {
		records, err := svc.AllReservations(context.Background())
		if err != nil {
			t.Fatalf("AllReservations: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 record, got %d", len(records))
		}
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected one repo read across cached calls, got %d", repo.listCalls)
	}
}

func TestUserDashboard(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	records := []domain.ReservationRecord{
		{ReservationID: 7, LotName: "Central", SpotID: null.IntFrom(1), ParkingTime: start.Add(6 * time.Hour)},
	}
	for i := 0; i < 6; i++ {
		records = append(records, domain.ReservationRecord{
			ReservationID: i + 1,
			LotName:       "Central",
			SpotID:        null.IntFrom(int64(i + 1)),
			ParkingTime:   start.Add(time.Duration(i) * time.Hour),
			LeavingTime:   null.TimeFrom(start.Add(time.Duration(i)*time.Hour + 30*time.Minute)),
			Cost:          null.FloatFrom(5),
		})
	}
	repo := &countingReportRepo{
		active:      &domain.ActiveReservationInfo{LotName: "Central", SpotID: 1, ParkedSince: start},
		userRecords: map[int][]domain.ReservationRecord{42: records},
	}
	svc := NewReportingService(repo, nil)

	dash, err := svc.UserDashboard(context.Background(), 42)
	if err != nil {
		t.Fatalf("UserDashboard: %v", err)
	}
	if dash.Active == nil || dash.Active.LotName != "Central" {
		t.Fatalf("expected an active reservation, got %+v", dash.Active)
	}
	if dash.TotalReservations != 7 {
		t.Fatalf("expected 7 total reservations, got %d", dash.TotalReservations)
	}
	// The open reservation has no cost yet; 6 closed ones at 5 each.
	if dash.TotalSpent != 30 {
		t.Fatalf("expected total spent 30, got %v", dash.TotalSpent)
	}
	if len(dash.Recent) != 5 {
		t.Fatalf("expected recent history capped at 5, got %d", len(dash.Recent))
	}
}

func TestUserDashboardNoActiveReservation(t *testing.T) {
	repo := &countingReportRepo{}
	svc := NewReportingService(repo, nil)

	dash, err := svc.UserDashboard(context.Background(), 42)
	if err != nil {
		t.Fatalf("UserDashboard: %v", err)
	}
	if dash.Active != nil {
		t.Fatalf("expected nil active reservation, got %+v", dash.Active)
	}
	if dash.TotalReservations != 0 || dash.TotalSpent != 0 {
		t.Fatalf("expected empty dashboard, got %+v", dash)
	}
}
