package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/models"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/realtime"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"gorm.io/gorm"
)

// TableService menangani registry meja
type TableService struct {
	db        *gorm.DB
	publisher Publisher
}

// NewTableService membuat instance baru TableService
func NewTableService(db *gorm.DB, publisher Publisher) *TableService {
	return &TableService{db: db, publisher: publisherOrNop(publisher)}
}

type CreateTableInput struct {
	TableNumber int     `json:"table_number" validate:"gte=1"`
	TableCode   string  `json:"table_code" validate:"required,min=2,max=50"`
	Capacity    int     `json:"capacity" validate:"omitempty,gte=1"`
	Status      string  `json:"status" validate:"omitempty,oneof=available occupied reserved maintenance"`
	Location    *string `json:"location"`
}

// List -> semua meja, urut berdasarkan table_number
func (s *TableService) List(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := s.db.WithContext(ctx).Order("table_number ASC, id ASC").Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

func (s *TableService) Get(ctx context.Context, id uint) (*models.Table, error) {
	var table models.Table
	if err := s.db.WithContext(ctx).First(&table, id).Error; err != nil {
		return nil, notFoundOr(err, "Table")
	}
	return &table, nil
}

// GetByCode -> lookup meja dari kode yang diketik customer
func (s *TableService) GetByCode(ctx context.Context, code string) (*models.Table, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, NewValidationError("table_code", "is required")
	}
	var table models.Table
	if err := s.db.WithContext(ctx).Where("table_code = ?", code).First(&table).Error; err != nil {
		return nil, notFoundOr(err, "Table")
	}
	return &table, nil
}

func (s *TableService) Create(ctx context.Context, input CreateTableInput) (*models.Table, error) {
	input.TableCode = strings.TrimSpace(input.TableCode)
	if verr := validateStruct(input); verr.OrNil() != nil {
		return nil, verr
	}

	table := models.Table{
		TableNumber: input.TableNumber,
		TableCode:   input.TableCode,
		Capacity:    input.Capacity,
		Status:      input.Status,
		Location:    input.Location,
	}
	if table.Capacity == 0 {
		table.Capacity = 4
	}
	if table.Status == "" {
		table.Status = models.TableStatusAvailable
	}

	if err := s.db.WithContext(ctx).Create(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Message: "table code already exists"}
		}
		return nil, fmt.Errorf("create table: %w", err)
	}

	utils.InfoLogger.WithFields(map[string]interface{}{
		"table_id":   table.ID,
		"table_code": table.TableCode,
	}).Info("Table created")
	emit(s.publisher, realtime.EventTableCreated, table, nil, realtime.RoomAdmin, realtime.RoomPOS)
	return &table, nil
}

// UpdateStatus -> ubah status meja (available, occupied, reserved, maintenance)
func (s *TableService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Table, error) {
	if !models.IsValidTableStatus(status) {
		return nil, NewValidationError("status", "must be one of: "+strings.Join(models.TableStatuses, ", "))
	}

	table, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	table.Status = status
	if err := s.db.WithContext(ctx).Save(table).Error; err != nil {
		return nil, fmt.Errorf("update table status: %w", err)
	}

	utils.InfoLogger.WithFields(map[string]interface{}{
		"table_id": table.ID,
		"status":   table.Status,
	}).Info("Table status changed")
	emit(s.publisher, realtime.EventTableUpdated, table, nil, realtime.RoomAdmin, realtime.RoomPOS)
	return table, nil
}
