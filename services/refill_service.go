package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/metrics"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/models"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/realtime"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TimerProcessor -> nilai processed_by saat refill diselesaikan oleh countdown
const TimerProcessor = "refill-timer"

// RefillService menangani lifecycle refill request
type RefillService struct {
	db        *gorm.DB
	tables    *TableService
	publisher Publisher
	now       func() time.Time
}

// NewRefillService membuat instance baru RefillService
func NewRefillService(db *gorm.DB, tables *TableService, publisher Publisher) *RefillService {
	return &RefillService{
		db:        db,
		tables:    tables,
		publisher: publisherOrNop(publisher),
		now:       time.Now,
	}
}

type CreateRefillInput struct {
	TableCode  string      `json:"table_code"`
	CustomerID FlexibleID  `json:"customer_id"`
	Items      RefillItems `json:"items"`
	// RequestType dari client lama yang sudah menyusun ringkasan sendiri
	RequestType string  `json:"request_type"`
	Notes       *string `json:"notes"`
}

type UpdateRefillStatusInput struct {
	Status      string      `json:"status"`
	ProcessedBy looseString `json:"processed_by"`
	Notes       *string     `json:"notes"`
}

type RefillFilter struct {
	Status    string
	TableID   *uint
	TableCode string
}

// ValidateTableCode -> lookup murni, NotFoundError jika kode tidak dikenal
func (s *RefillService) ValidateTableCode(ctx context.Context, code string) (*models.Table, error) {
	return s.tables.GetByCode(ctx, code)
}

// Create -> refill request baru berstatus pending. Tidak ada fallback meja di sini.
func (s *RefillService) Create(ctx context.Context, input CreateRefillInput) (*models.RefillRequest, error) {
	code := strings.TrimSpace(input.TableCode)
	if code == "" {
		return nil, NewValidationError("table_code", "Table code is required")
	}

	table, err := s.tables.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	selected := input.Items.Selected()
	requestType := input.Items.Summary()
	if input.Items == nil && strings.TrimSpace(input.RequestType) != "" {
		requestType = strings.TrimSpace(input.RequestType)
	}

	notes, err := refillNotes(input.Notes, selected)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	request := models.RefillRequest{
		TableCode:   table.TableCode,
		TableID:     table.ID,
		CustomerID:  s.customerRef(db, input.CustomerID),
		Status:      models.RefillPending,
		RequestType: requestType,
		Notes:       notes,
		RequestedAt: s.now(),
	}
	if err := db.Create(&request).Error; err != nil {
		return nil, fmt.Errorf("create refill request: %w", err)
	}

	created, err := s.Get(ctx, request.ID)
	if err != nil {
		return nil, err
	}

	metrics.RefillRequestsCreated.Inc()
	utils.InfoLogger.WithFields(logrus.Fields{
		"refill_id":    created.ID,
		"table_code":   created.TableCode,
		"request_type": created.RequestType,
	}).Info("Refill request created")

	emit(s.publisher, realtime.EventRefillCreated, created, nil, realtime.RoomAdmin)
	return created, nil
}

// UpdateStatus -> status bebas berpindah (tanpa state machine). completed_at
// hanya terisi selama status completed.
func (s *RefillService) UpdateStatus(ctx context.Context, id uint, input UpdateRefillStatusInput) (*models.RefillRequest, error) {
	status := strings.TrimSpace(input.Status)
	if !models.IsValidRefillStatus(status) {
		return nil, NewValidationError("status", "Invalid status value")
	}

	db := s.db.WithContext(ctx)
	var request models.RefillRequest
	if err := db.First(&request, id).Error; err != nil {
		return nil, notFoundOr(err, "Refill request")
	}

	updates := map[string]interface{}{
		"status":       status,
		"completed_at": nil,
	}
	if status == models.RefillCompleted {
		updates["completed_at"] = s.now()
	}
	if by := strings.TrimSpace(string(input.ProcessedBy)); by != "" {
		updates["processed_by"] = by
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}

	if err := db.Model(&request).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update refill request %d: %w", id, err)
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"refill_id": id,
		"from":      request.Status,
		"to":        status,
	}).Info("Refill request status changed")

	emit(s.publisher, realtime.EventRefillUpdated, updated, updated.CustomerID, realtime.RoomAdmin)
	return updated, nil
}

// CompleteRefill dipanggil countdown saat waktu habis
func (s *RefillService) CompleteRefill(ctx context.Context, id uint) error {
	_, err := s.UpdateStatus(ctx, id, UpdateRefillStatusInput{
		Status:      models.RefillCompleted,
		ProcessedBy: TimerProcessor,
	})
	return err
}

func (s *RefillService) Delete(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)
	var request models.RefillRequest
	if err := db.First(&request, id).Error; err != nil {
		return notFoundOr(err, "Refill request")
	}
	if err := db.Delete(&request).Error; err != nil {
		return fmt.Errorf("delete refill request %d: %w", id, err)
	}

	utils.InfoLogger.WithField("refill_id", id).Info("Refill request deleted")
	emit(s.publisher, realtime.EventRefillDeleted, map[string]uint{"id": id}, nil, realtime.RoomAdmin)
	return nil
}

func (s *RefillService) Get(ctx context.Context, id uint) (*models.RefillRequest, error) {
	var request models.RefillRequest
	err := s.db.WithContext(ctx).Preload("Table").Preload("Customer").First(&request, id).Error
	if err != nil {
		return nil, notFoundOr(err, "Refill request")
	}
	return &request, nil
}

func (s *RefillService) List(ctx context.Context, filter RefillFilter) ([]models.RefillRequest, error) {
	q := s.db.WithContext(ctx).Preload("Table").Preload("Customer")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.TableID != nil {
		q = q.Where("table_id = ?", *filter.TableID)
	}
	if filter.TableCode != "" {
		q = q.Where("table_code = ?", filter.TableCode)
	}

	requests := []models.RefillRequest{}
	if err := q.Order("requested_at DESC, id DESC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("list refill requests: %w", err)
	}
	return requests, nil
}

// customerRef -> customer_id dari body hanya dipakai jika customer terdaftar
func (s *RefillService) customerRef(db *gorm.DB, ref FlexibleID) *uint {
	if !ref.Present() {
		return nil
	}
	id, ok := ref.Resolve()
	if !ok {
		utils.ErrorLogger.WithField("customer_id", ref.String()).Warn("Ignoring unparseable customer_id on refill request")
		return nil
	}
	var count int64
	if err := db.Model(&models.Customer{}).Where("id = ?", id).Count(&count).Error; err != nil || count == 0 {
		utils.ErrorLogger.WithField("customer_id", id).Warn("Ignoring unknown customer_id on refill request")
		return nil
	}
	return &id
}

// refillNotes -> catatan dari client + rincian item terstruktur
func refillNotes(notes *string, selected RefillItems) (*string, error) {
	parts := []string{}
	if n := trimmedOrNil(notes); n != nil {
		parts = append(parts, *n)
	}
	if len(selected) > 0 {
		raw, err := json.Marshal(selected)
		if err != nil {
			return nil, fmt.Errorf("encode refill items: %w", err)
		}
		parts = append(parts, "Requested items: "+string(raw))
	}
	if len(parts) == 0 {
		return nil, nil
	}
	joined := strings.Join(parts, "\n")
	return &joined, nil
}
