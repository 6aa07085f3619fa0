package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/models"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"gorm.io/gorm"
)

const walkInCustomer = "Walk-in Customer"

// CustomerTimerService menangani catatan timer per meja di server.
// Refill request tidak pernah menulis ke sini.
type CustomerTimerService struct {
	db     *gorm.DB
	tables *TableService
	now    func() time.Time

	// startMu -> baca-lalu-tulis Start berjalan satu per satu dalam proses
	startMu sync.Mutex
}

// NewCustomerTimerService membuat instance baru CustomerTimerService
func NewCustomerTimerService(db *gorm.DB, tables *TableService) *CustomerTimerService {
	return &CustomerTimerService{db: db, tables: tables, now: time.Now}
}

type CustomerTimerFilter struct {
	TableID  *uint
	IsActive *bool
}

type StartTimerInput struct {
	CustomerName string     `json:"customer_name"`
	TableID      *uint      `json:"table_id"`
	TableCode    string     `json:"table_code"`
	OrderID      *uint      `json:"order_id"`
	StartTime    *time.Time `json:"start_time"`
}

type UpdateTimerInput struct {
	IsActive       *bool      `json:"is_active"`
	EndTime        *time.Time `json:"end_time"`
	ElapsedSeconds *int64     `json:"elapsed_seconds"`
}

func (s *CustomerTimerService) List(ctx context.Context, filter CustomerTimerFilter) ([]models.CustomerTimer, error) {
	q := s.db.WithContext(ctx).Preload("Table")
	if filter.TableID != nil {
		q = q.Where("table_id = ?", *filter.TableID)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}

	timers := []models.CustomerTimer{}
	if err := q.Order("created_at DESC, id DESC").Find(&timers).Error; err != nil {
		return nil, fmt.Errorf("list customer timers: %w", err)
	}
	now := s.now()
	for i := range timers {
		timers[i].ComputeElapsed(now)
	}
	return timers, nil
}

// GetActiveByTableCode -> timer aktif terbaru untuk meja
func (s *CustomerTimerService) GetActiveByTableCode(ctx context.Context, code string) (*models.CustomerTimer, error) {
	table, err := s.tables.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	var timer models.CustomerTimer
	err = s.db.WithContext(ctx).Preload("Table").
		Where("table_id = ? AND is_active = ?", table.ID, true).
		Order("created_at DESC, id DESC").
		First(&timer).Error
	if err != nil {
		return nil, notFoundOr(err, "Active timer")
	}
	timer.ComputeElapsed(s.now())
	return &timer, nil
}

// Start -> upsert: timer aktif yang sudah ada diperbarui, selain itu dibuat baru.
// Pola baca-lalu-tulis dalam transaksi, bukan unique constraint.
func (s *CustomerTimerService) Start(ctx context.Context, input StartTimerInput) (*models.CustomerTimer, bool, error) {
	name := strings.TrimSpace(input.CustomerName)
	if name == "" {
		name = walkInCustomer
	}

	var tableID uint
	switch {
	case input.TableID != nil && *input.TableID > 0:
		table, err := s.tables.Get(ctx, *input.TableID)
		if err != nil {
			return nil, false, err
		}
		tableID = table.ID
	case strings.TrimSpace(input.TableCode) != "":
		table, err := s.tables.GetByCode(ctx, input.TableCode)
		if err != nil {
			return nil, false, err
		}
		tableID = table.ID
	default:
		return nil, false, NewValidationError("table_id", "Customer name and table information are required")
	}

	s.startMu.Lock()
	defer s.startMu.Unlock()

	var timerID uint
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.CustomerTimer
		err := tx.Where("table_id = ? AND is_active = ?", tableID, true).First(&existing).Error
		switch {
		case err == nil:
			updates := map[string]interface{}{
				"customer_name": name,
				"order_id":      input.OrderID,
			}
			if input.StartTime != nil {
				updates["start_time"] = *input.StartTime
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("update customer timer: %w", err)
			}
			timerID = existing.ID
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			timer := models.CustomerTimer{
				TableID:      tableID,
				CustomerName: name,
				OrderID:      input.OrderID,
				StartTime:    s.now(),
				IsActive:     true,
			}
			if input.StartTime != nil {
				timer.StartTime = *input.StartTime
			}
			if err := tx.Create(&timer).Error; err != nil {
				return fmt.Errorf("create customer timer: %w", err)
			}
			timerID = timer.ID
			created = true
			return nil
		default:
			return fmt.Errorf("find active timer: %w", err)
		}
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		utils.InfoLogger.WithField("table_id", tableID).Info("Customer timer started")
	}
	timer, err := s.get(ctx, timerID)
	return timer, created, err
}

// Update -> menonaktifkan timer sekaligus memfinalisasi end_time dan elapsed_seconds
func (s *CustomerTimerService) Update(ctx context.Context, id uint, input UpdateTimerInput) (*models.CustomerTimer, error) {
	db := s.db.WithContext(ctx)
	var timer models.CustomerTimer
	if err := db.First(&timer, id).Error; err != nil {
		return nil, notFoundOr(err, "Customer timer")
	}

	now := s.now()
	updates := map[string]interface{}{}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
		if *input.IsActive {
			updates["end_time"] = nil
			updates["elapsed_seconds"] = nil
		} else if input.EndTime == nil {
			updates["end_time"] = now
		}
	}
	if input.EndTime != nil {
		updates["end_time"] = *input.EndTime
	}

	if input.ElapsedSeconds != nil {
		updates["elapsed_seconds"] = *input.ElapsedSeconds
	} else {
		deactivating := input.IsActive != nil && !*input.IsActive && timer.IsActive
		if deactivating || input.EndTime != nil {
			end := now
			if input.EndTime != nil {
				end = *input.EndTime
			}
			updates["elapsed_seconds"] = elapsedBetween(timer.StartTime, end)
		}
	}
	if len(updates) == 0 {
		return nil, NewValidationError("body", "No valid fields to update")
	}

	if err := db.Model(&timer).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update customer timer %d: %w", id, err)
	}
	return s.get(ctx, id)
}

// StopByTableCode -> hentikan timer aktif untuk meja
func (s *CustomerTimerService) StopByTableCode(ctx context.Context, code string) (*models.CustomerTimer, error) {
	table, err := s.tables.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	var timer models.CustomerTimer
	err = s.db.WithContext(ctx).Where("table_id = ? AND is_active = ?", table.ID, true).
		Order("created_at DESC, id DESC").First(&timer).Error
	if err != nil {
		return nil, notFoundOr(err, "Active timer")
	}

	inactive := false
	return s.Update(ctx, timer.ID, UpdateTimerInput{IsActive: &inactive})
}

func (s *CustomerTimerService) get(ctx context.Context, id uint) (*models.CustomerTimer, error) {
	var timer models.CustomerTimer
	if err := s.db.WithContext(ctx).Preload("Table").First(&timer, id).Error; err != nil {
		return nil, notFoundOr(err, "Customer timer")
	}
	timer.ComputeElapsed(s.now())
	return &timer, nil
}

func elapsedBetween(start, end time.Time) int64 {
	secs := int64(end.Sub(start) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}
