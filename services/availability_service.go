package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/models"
	"gorm.io/gorm"
)

const slotExpr = "SUBSTR(reservation_time, 1, 5)"

var slotHoldingStatuses = []string{models.ReservationPending, models.ReservationConfirmed}

// AvailabilityService menghitung meja kosong per slot dan tanggal yang penuh per bulan
type AvailabilityService struct {
	db *gorm.DB
}

// NewAvailabilityService membuat instance baru AvailabilityService
func NewAvailabilityService(db *gorm.DB) *AvailabilityService {
	return &AvailabilityService{db: db}
}

// GetAvailableTables -> semua meja dikurangi meja yang dipegang reservasi
// pending/confirmed pada tanggal dan slot yang sama
func (s *AvailabilityService) GetAvailableTables(ctx context.Context, date, timeValue string) ([]models.Table, error) {
	if date == "" || timeValue == "" {
		return nil, &ValidationError{Fields: []FieldError{{Field: "date", Message: "Date and time are required"}}}
	}

	verr := &ValidationError{}
	if !ValidDate(date) {
		verr.Add("date", "must be a valid date (YYYY-MM-DD)")
	}
	normalized, ok := NormalizeTime(timeValue)
	if !ok {
		verr.Add("time", "must be a valid time (HH:MM)")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	slot := normalized[:5]

	db := s.db.WithContext(ctx)
	held := db.Model(&models.Reservation{}).
		Select("table_id").
		Where("reservation_date = ? AND "+slotExpr+" = ? AND status IN ?", date, slot, slotHoldingStatuses)

	tables := []models.Table{}
	if err := db.Where("id NOT IN (?)", held).Order("table_number ASC, id ASC").Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("available tables for %s %s: %w", date, slot, err)
	}
	return tables, nil
}

type slotCount struct {
	ReservationDate string
	Slot            string
	Reserved        int64
}

// GetFullyBookedDates -> tanggal dalam bulan di mana setiap slot tetap sudah
// memakai semua meja. Dihitung dengan satu query agregat untuk sebulan penuh.
func (s *AvailabilityService) GetFullyBookedDates(ctx context.Context, year, month int) ([]string, error) {
	verr := &ValidationError{}
	if year < 1970 || year > 9999 {
		verr.Add("year", "must be a valid year")
	}
	if month < 1 || month > 12 {
		verr.Add("month", "must be between 1 and 12")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var totalTables int64
	if err := db.Model(&models.Table{}).Count(&totalTables).Error; err != nil {
		return nil, fmt.Errorf("count tables: %w", err)
	}
	if totalTables == 0 {
		return []string{}, nil
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	var rows []slotCount
	err := db.Model(&models.Reservation{}).
		Select("reservation_date, "+slotExpr+" AS slot, COUNT(DISTINCT table_id) AS reserved").
		Where("reservation_date BETWEEN ? AND ?", first.Format(dateLayout), last.Format(dateLayout)).
		Where("status IN ?", slotHoldingStatuses).
		Where(slotExpr+" IN ?", models.TimeSlots).
		Group("reservation_date, " + slotExpr).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fully booked dates %04d-%02d: %w", year, month, err)
	}

	return fullyBooked(rows, totalTables), nil
}

// fullyBooked -> tanggal yang semua slotnya reserved >= totalTables
func fullyBooked(rows []slotCount, totalTables int64) []string {
	fullSlots := make(map[string]int)
	for _, row := range rows {
		if row.Reserved >= totalTables {
			fullSlots[row.ReservationDate]++
		}
	}

	dates := []string{}
	for date, n := range fullSlots {
		if n == len(models.TimeSlots) {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates
}
