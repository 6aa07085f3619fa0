package services

import (
	"context"
	"fmt"
	"time"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/models"
	"gorm.io/gorm"
)

// DashboardService menghitung ringkasan untuk dashboard admin
type DashboardService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDashboardService membuat instance baru DashboardService
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db, now: time.Now}
}

type SlotOccupancy struct {
	Slot     string `json:"slot"`
	Reserved int64  `json:"reserved"`
	Free     int64  `json:"free"`
}

type DashboardStats struct {
	Date               string           `json:"date"`
	TotalTables        int64            `json:"total_tables"`
	TableStats         map[string]int64 `json:"table_stats"`
	ReservationStats   map[string]int64 `json:"reservation_stats"`
	Slots              []SlotOccupancy  `json:"slots"`
	RefillStats        map[string]int64 `json:"refill_stats"`
	RefillsCompletedOn int64            `json:"refills_completed_on_date"`
	PendingProofs      int64            `json:"pending_payment_proofs"`
}

type statusCount struct {
	Status string
	Total  int64
}

// Stats -> ringkasan untuk satu tanggal (YYYY-MM-DD), kosong berarti hari ini
func (s *DashboardService) Stats(ctx context.Context, date string) (*DashboardStats, error) {
	if date == "" {
		date = s.now().Format(dateLayout)
	}
	if !ValidDate(date) {
		return nil, NewValidationError("date", "must be a valid date (YYYY-MM-DD)")
	}

	db := s.db.WithContext(ctx)
	stats := &DashboardStats{
		Date:             date,
		TableStats:       zeroCounts(models.TableStatuses),
		ReservationStats: zeroCounts(models.ReservationStatuses),
		RefillStats:      zeroCounts(models.RefillStatuses),
	}

	if err := db.Model(&models.Table{}).Count(&stats.TotalTables).Error; err != nil {
		return nil, fmt.Errorf("count tables: %w", err)
	}
	if err := countByStatus(db.Model(&models.Table{}), stats.TableStats); err != nil {
		return nil, fmt.Errorf("table stats: %w", err)
	}
	if err := countByStatus(db.Model(&models.Reservation{}).Where("reservation_date = ?", date), stats.ReservationStats); err != nil {
		return nil, fmt.Errorf("reservation stats: %w", err)
	}
	if err := countByStatus(db.Model(&models.RefillRequest{}), stats.RefillStats); err != nil {
		return nil, fmt.Errorf("refill stats: %w", err)
	}

	day, _ := time.ParseInLocation(dateLayout, date, time.Local)
	err := db.Model(&models.RefillRequest{}).
		Where("status = ? AND completed_at >= ? AND completed_at < ?", models.RefillCompleted, day, day.AddDate(0, 0, 1)).
		Count(&stats.RefillsCompletedOn).Error
	if err != nil {
		return nil, fmt.Errorf("count completed refills: %w", err)
	}

	err = db.Model(&models.Reservation{}).
		Where("status = ? AND payment_proof IS NOT NULL", models.ReservationPending).
		Count(&stats.PendingProofs).Error
	if err != nil {
		return nil, fmt.Errorf("count pending proofs: %w", err)
	}

	var rows []struct {
		Slot     string
		Reserved int64
	}
	err = db.Model(&models.Reservation{}).
		Select(slotExpr+" AS slot, COUNT(DISTINCT table_id) AS reserved").
		Where("reservation_date = ? AND status IN ?", date, slotHoldingStatuses).
		Group(slotExpr).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("slot occupancy: %w", err)
	}
	reserved := make(map[string]int64, len(rows))
	for _, row := range rows {
		reserved[row.Slot] = row.Reserved
	}
	for _, slot := range models.TimeSlots {
		free := stats.TotalTables - reserved[slot]
		if free < 0 {
			free = 0
		}
		stats.Slots = append(stats.Slots, SlotOccupancy{Slot: slot, Reserved: reserved[slot], Free: free})
	}

	return stats, nil
}

func zeroCounts(statuses []string) map[string]int64 {
	counts := make(map[string]int64, len(statuses))
	for _, s := range statuses {
		counts[s] = 0
	}
	return counts
}

func countByStatus(q *gorm.DB, into map[string]int64) error {
	var rows []statusCount
	if err := q.Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		into[row.Status] = row.Total
	}
	return nil
}
