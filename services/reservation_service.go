package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/metrics"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/models"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/realtime"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReservationOptions -> perilaku lookup table_id
type ReservationOptions struct {
	// StrictTableLookup menolak table_id yang tidak ada, bukan fallback
	StrictTableLookup bool
	FallbackTableID   uint
}

// ReservationService menangani lifecycle reservasi
type ReservationService struct {
	db        *gorm.DB
	publisher Publisher
	proofs    ProofStore
	opts      ReservationOptions
}

// NewReservationService membuat instance baru ReservationService
func NewReservationService(db *gorm.DB, publisher Publisher, proofs ProofStore, opts ReservationOptions) *ReservationService {
	if opts.FallbackTableID == 0 {
		opts.FallbackTableID = 1
	}
	return &ReservationService{
		db:        db,
		publisher: publisherOrNop(publisher),
		proofs:    proofs,
		opts:      opts,
	}
}

type CreateReservationInput struct {
	CustomerName    string     `json:"customer_name" validate:"required,min=2"`
	Phone           string     `json:"phone" validate:"required,phone"`
	Email           *string    `json:"email" validate:"omitempty,email"`
	TableID         FlexibleID `json:"table_id"`
	Occasion        *string    `json:"occasion"`
	NumberOfGuests  int        `json:"number_of_guests" validate:"gte=1"`
	ReservationDate string     `json:"reservation_date" validate:"required,date"`
	ReservationTime string     `json:"reservation_time" validate:"required,hhmm"`
	DurationHours   *int       `json:"duration_hours" validate:"omitempty,gte=1,lte=12"`
	PaymentAmount   *float64   `json:"payment_amount" validate:"omitempty,gte=0"`
	Notes           *string    `json:"notes"`

	// CustomerID diisi dari token customer, bukan dari body
	CustomerID *uint `json:"-"`
}

type CreateReservationResult struct {
	ID              uint   `json:"id"`
	ReservationCode string `json:"reservation_code"`
}

type ReservationFilter struct {
	Status     string
	Date       string
	CustomerID *uint
}

var reservationCodes = &codeGenerator{now: time.Now}

// codeGenerator -> "RES" + unix millis, selalu naik dalam satu proses
type codeGenerator struct {
	last atomic.Int64
	now  func() time.Time
}

func (g *codeGenerator) Next() string {
	for {
		prev := g.last.Load()
		ms := g.now().UnixMilli()
		if ms <= prev {
			ms = prev + 1
		}
		if g.last.CompareAndSwap(prev, ms) {
			return fmt.Sprintf("RES%d", ms)
		}
	}
}

// Create -> validasi, resolve meja, lalu cek slot + insert dalam satu transaksi
func (s *ReservationService) Create(ctx context.Context, input CreateReservationInput) (*CreateReservationResult, error) {
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Email = trimmedOrNil(input.Email)
	input.ReservationDate = strings.TrimSpace(input.ReservationDate)
	input.ReservationTime = strings.TrimSpace(input.ReservationTime)

	verr := validateStruct(input)
	if !input.TableID.Present() {
		verr.Add("table_id", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	reservationTime, _ := NormalizeTime(input.ReservationTime)

	db := s.db.WithContext(ctx)
	tableID, err := s.resolveTableID(db, input.TableID)
	if err != nil {
		return nil, err
	}

	reservation := models.Reservation{
		CustomerID:      s.knownCustomer(db, input.CustomerID),
		CustomerName:    input.CustomerName,
		Phone:           input.Phone,
		Email:           input.Email,
		TableID:         tableID,
		Occasion:        trimmedOrNil(input.Occasion),
		NumberOfGuests:  input.NumberOfGuests,
		ReservationDate: input.ReservationDate,
		ReservationTime: reservationTime,
		DurationHours:   2,
		PaymentStatus:   models.PaymentPending,
		Status:          models.ReservationPending,
		Notes:           trimmedOrNil(input.Notes),
	}
	if input.DurationHours != nil {
		reservation.DurationHours = *input.DurationHours
	}
	if input.PaymentAmount != nil {
		reservation.PaymentAmount = *input.PaymentAmount
	}
	reservation.RefreshSlotKey()

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := ensureSlotFree(tx, &reservation); err != nil {
			return err
		}
		reservation.ReservationCode = reservationCodes.Next()
		return tx.Create(&reservation).Error
	})
	if err != nil {
		return nil, s.writeError(err, "create reservation")
	}

	metrics.ReservationsCreated.Inc()
	utils.InfoLogger.WithFields(logrus.Fields{
		"reservation_id":   reservation.ID,
		"reservation_code": reservation.ReservationCode,
		"table_id":         reservation.TableID,
		"date":             reservation.ReservationDate,
		"slot":             reservation.Slot(),
	}).Info("Reservation created")

	s.publishReservation(ctx, realtime.EventReservationCreated, reservation.ID, reservation.CustomerID)

	return &CreateReservationResult{ID: reservation.ID, ReservationCode: reservation.ReservationCode}, nil
}

func (s *ReservationService) List(ctx context.Context, filter ReservationFilter) ([]models.Reservation, error) {
	q := s.db.WithContext(ctx).Preload("Table")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("reservation_date = ?", filter.Date)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}

	reservations := []models.Reservation{}
	if err := q.Order("reservation_date DESC, reservation_time ASC, id ASC").Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return reservations, nil
}

func (s *ReservationService) Get(ctx context.Context, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := s.db.WithContext(ctx).Preload("Table").First(&reservation, id).Error; err != nil {
		return nil, notFoundOr(err, "Reservation")
	}
	return &reservation, nil
}

// UpdateStatus -> status harus valid dan transisinya diizinkan
func (s *ReservationService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Reservation, error) {
	status = strings.TrimSpace(status)
	if !models.IsValidReservationStatus(status) {
		return nil, NewValidationError("status", "must be one of: "+strings.Join(models.ReservationStatuses, ", "))
	}

	var reservation models.Reservation
	var from string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reservation, id).Error; err != nil {
			return notFoundOr(err, "Reservation")
		}
		from = reservation.Status
		if !ValidReservationTransition(from, status) {
			return &ConflictError{Message: fmt.Sprintf("cannot change reservation status from %s to %s", from, status)}
		}

		previousKey := reservation.ActiveSlotKey
		reservation.Status = status
		reservation.RefreshSlotKey()
		if slotKeyChanged(previousKey, reservation.ActiveSlotKey) {
			if err := ensureSlotFree(tx, &reservation); err != nil {
				return err
			}
		}
		return tx.Save(&reservation).Error
	})
	if err != nil {
		return nil, s.writeError(err, "update reservation status")
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"reservation_id": reservation.ID,
		"from":           from,
		"to":             status,
	}).Info("Reservation status changed")

	s.publishReservation(ctx, realtime.EventReservationUpdated, reservation.ID, reservation.CustomerID)
	return &reservation, nil
}

var reservationPatchFields = map[string]bool{
	"customer_name":    true,
	"phone":            true,
	"email":            true,
	"table_id":         true,
	"number_of_guests": true,
	"reservation_date": true,
	"reservation_time": true,
	"payment_status":   true,
	"payment_amount":   true,
	"status":           true,
	"occasion":         true,
}

// Update -> patch sebagian field. Key di luar allow-list dibuang dan dicatat di log.
func (s *ReservationService) Update(ctx context.Context, id uint, patch map[string]json.RawMessage) (*models.Reservation, error) {
	fields := make(map[string]json.RawMessage, len(patch))
	dropped := []string{}
	for key, value := range patch {
		if reservationPatchFields[key] {
			fields[key] = value
		} else {
			dropped = append(dropped, key)
		}
	}
	if len(dropped) > 0 {
		sort.Strings(dropped)
		utils.ErrorLogger.WithFields(logrus.Fields{
			"reservation_id": id,
			"fields":         dropped,
		}).Warn("Ignoring fields not allowed in reservation update")
	}
	if len(fields) == 0 {
		return nil, NewValidationError("body", "No valid fields to update")
	}

	var reservation models.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reservation, id).Error; err != nil {
			return notFoundOr(err, "Reservation")
		}

		previousKey := reservation.ActiveSlotKey
		if err := s.applyPatch(tx, &reservation, fields); err != nil {
			return err
		}
		reservation.RefreshSlotKey()
		if slotKeyChanged(previousKey, reservation.ActiveSlotKey) {
			if err := ensureSlotFree(tx, &reservation); err != nil {
				return err
			}
		}
		return tx.Save(&reservation).Error
	})
	if err != nil {
		return nil, s.writeError(err, "update reservation")
	}

	utils.InfoLogger.WithField("reservation_id", reservation.ID).Info("Reservation updated")
	s.publishReservation(ctx, realtime.EventReservationUpdated, reservation.ID, reservation.CustomerID)
	return &reservation, nil
}

func (s *ReservationService) applyPatch(tx *gorm.DB, r *models.Reservation, fields map[string]json.RawMessage) error {
	verr := &ValidationError{}

	if raw, ok := fields["customer_name"]; ok {
		var v string
		if json.Unmarshal(raw, &v) != nil || len(strings.TrimSpace(v)) < 2 {
			verr.Add("customer_name", "must be at least 2 characters")
		} else {
			r.CustomerName = strings.TrimSpace(v)
		}
	}
	if raw, ok := fields["phone"]; ok {
		var v string
		if json.Unmarshal(raw, &v) != nil || !phonePattern.MatchString(strings.TrimSpace(v)) {
			verr.Add("phone", "must be a valid phone number")
		} else {
			r.Phone = strings.TrimSpace(v)
		}
	}
	if raw, ok := fields["email"]; ok {
		var v *string
		if json.Unmarshal(raw, &v) != nil {
			verr.Add("email", "must be a valid email address")
		} else if v = trimmedOrNil(v); v != nil && validate.Var(*v, "email") != nil {
			verr.Add("email", "must be a valid email address")
		} else {
			r.Email = v
		}
	}
	if raw, ok := fields["occasion"]; ok {
		var v *string
		if json.Unmarshal(raw, &v) != nil {
			verr.Add("occasion", "must be a string")
		} else {
			r.Occasion = trimmedOrNil(v)
		}
	}
	if raw, ok := fields["number_of_guests"]; ok {
		var v int
		if json.Unmarshal(raw, &v) != nil || v < 1 {
			verr.Add("number_of_guests", "must be greater than or equal to 1")
		} else {
			r.NumberOfGuests = v
		}
	}
	if raw, ok := fields["reservation_date"]; ok {
		var v string
		if json.Unmarshal(raw, &v) != nil || !ValidDate(strings.TrimSpace(v)) {
			verr.Add("reservation_date", "must be a valid date (YYYY-MM-DD)")
		} else {
			r.ReservationDate = strings.TrimSpace(v)
		}
	}
	if raw, ok := fields["reservation_time"]; ok {
		var v string
		normalized, valid := "", false
		if json.Unmarshal(raw, &v) == nil {
			normalized, valid = NormalizeTime(v)
		}
		if !valid {
			verr.Add("reservation_time", "must be a valid time (HH:MM)")
		} else {
			r.ReservationTime = normalized
		}
	}
	if raw, ok := fields["payment_status"]; ok {
		var v string
		if json.Unmarshal(raw, &v) != nil || !models.IsValidPaymentStatus(v) {
			verr.Add("payment_status", "must be one of: "+strings.Join(models.PaymentStatuses, ", "))
		} else {
			r.PaymentStatus = v
		}
	}
	if raw, ok := fields["payment_amount"]; ok {
		var v float64
		if json.Unmarshal(raw, &v) != nil || v < 0 {
			verr.Add("payment_amount", "must be greater than or equal to 0")
		} else {
			r.PaymentAmount = v
		}
	}
	var nextStatus string
	if raw, ok := fields["status"]; ok {
		if json.Unmarshal(raw, &nextStatus) != nil || !models.IsValidReservationStatus(nextStatus) {
			verr.Add("status", "must be one of: "+strings.Join(models.ReservationStatuses, ", "))
			nextStatus = ""
		}
	}
	var tableRef FlexibleID
	if raw, ok := fields["table_id"]; ok {
		if json.Unmarshal(raw, &tableRef) != nil || !tableRef.Present() {
			verr.Add("table_id", "must be a number or a table reference")
		}
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	if tableRef.Present() {
		tableID, err := s.resolveTableID(tx, tableRef)
		if err != nil {
			return err
		}
		r.TableID = tableID
	}
	if nextStatus != "" {
		if !ValidReservationTransition(r.Status, nextStatus) {
			return &ConflictError{Message: fmt.Sprintf("cannot change reservation status from %s to %s", r.Status, nextStatus)}
		}
		r.Status = nextStatus
	}
	return nil
}

// Delete -> hard delete tanpa cek dependensi
func (s *ReservationService) Delete(ctx context.Context, id uint) error {
	var reservation models.Reservation
	db := s.db.WithContext(ctx)
	if err := db.First(&reservation, id).Error; err != nil {
		return notFoundOr(err, "Reservation")
	}
	if err := db.Delete(&reservation).Error; err != nil {
		return fmt.Errorf("delete reservation %d: %w", id, err)
	}

	if reservation.PaymentProofKey != nil && s.proofs != nil {
		if err := s.proofs.Delete(ctx, *reservation.PaymentProofKey); err != nil {
			utils.ErrorLogger.WithError(err).WithField("reservation_id", id).Warn("Failed to delete payment proof")
		}
	}

	utils.InfoLogger.WithField("reservation_id", id).Info("Reservation deleted")
	emit(s.publisher, realtime.EventReservationDeleted, map[string]uint{"id": id}, reservation.CustomerID, realtime.RoomAdmin)
	return nil
}

// resolveTableID -> table_id yang tidak bisa dibaca atau tidak ada jatuh ke
// FallbackTableID (dengan warning), kecuali StrictTableLookup aktif
func (s *ReservationService) resolveTableID(db *gorm.DB, ref FlexibleID) (uint, error) {
	log := utils.ErrorLogger.WithFields(logrus.Fields{
		"table_id":          ref.String(),
		"fallback_table_id": s.opts.FallbackTableID,
	})

	id, ok := ref.Resolve()
	if !ok {
		if s.opts.StrictTableLookup {
			return 0, NewValidationError("table_id", "must reference an existing table")
		}
		log.Warn("Unparseable table_id, falling back to default table")
		return s.opts.FallbackTableID, nil
	}

	var count int64
	if err := db.Model(&models.Table{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("lookup table %d: %w", id, err)
	}
	if count == 0 {
		if s.opts.StrictTableLookup {
			return 0, &NotFoundError{Resource: "Table"}
		}
		log.Warn("Table not found, falling back to default table")
		return s.opts.FallbackTableID, nil
	}
	return id, nil
}

// knownCustomer -> customer_id dari token hanya dipakai jika customer ada
func (s *ReservationService) knownCustomer(db *gorm.DB, id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	var count int64
	if err := db.Model(&models.Customer{}).Where("id = ?", *id).Count(&count).Error; err != nil || count == 0 {
		utils.ErrorLogger.WithField("customer_id", *id).Warn("Unknown customer on reservation, storing as walk-in")
		return nil
	}
	return id
}

func (s *ReservationService) writeError(err error, op string) error {
	var verr *ValidationError
	var nf *NotFoundError
	var conflict *ConflictError
	switch {
	case errors.As(err, &verr), errors.As(err, &nf):
		return err
	case errors.As(err, &conflict):
		metrics.ReservationConflicts.Inc()
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		metrics.ReservationConflicts.Inc()
		return &ConflictError{Message: "table is already reserved for this date and time"}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *ReservationService) publishReservation(ctx context.Context, event string, id uint, customerID *uint) {
	reservation, err := s.Get(ctx, id)
	if err != nil {
		utils.ErrorLogger.WithError(err).WithField("reservation_id", id).Warn("Failed to load reservation for notification")
		return
	}
	emit(s.publisher, event, reservation, customerID, realtime.RoomAdmin)
}

// ensureSlotFree -> tolak jika meja sudah dipegang reservasi aktif lain pada slot yang sama
func ensureSlotFree(tx *gorm.DB, r *models.Reservation) error {
	if !r.HoldsSlot() {
		return nil
	}
	q := tx.Model(&models.Reservation{}).
		Where("table_id = ? AND reservation_date = ? AND "+slotExpr+" = ? AND status IN ?",
			r.TableID, r.ReservationDate, r.Slot(), slotHoldingStatuses)
	if r.ID != 0 {
		q = q.Where("id <> ?", r.ID)
	}
	var held int64
	if err := q.Count(&held).Error; err != nil {
		return fmt.Errorf("check slot: %w", err)
	}
	if held > 0 {
		return &ConflictError{Message: "table is already reserved for this date and time"}
	}
	return nil
}

func slotKeyChanged(before, after *string) bool {
	if after == nil {
		return false
	}
	return before == nil || *before != *after
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
