package models

import (
	"fmt"
	"time"
)

const (
	ReservationPending    = "pending"
	ReservationConfirmed  = "confirmed"
	ReservationInProgress = "in_progress"
	ReservationCompleted  = "completed"
	ReservationCancelled  = "cancelled"
)

var ReservationStatuses = []string{
	ReservationPending,
	ReservationConfirmed,
	ReservationInProgress,
	ReservationCompleted,
	ReservationCancelled,
}

const (
	PaymentPending   = "pending"
	PaymentPaid      = "paid"
	PaymentCompleted = "completed"
	PaymentCancelled = "cancelled"
	PaymentRefunded  = "refunded"
)

var PaymentStatuses = []string{
	PaymentPending,
	PaymentPaid,
	PaymentCompleted,
	PaymentCancelled,
	PaymentRefunded,
}

// TimeSlots adalah slot reservasi tetap (17:00-18:30, 18:30-20:00, 20:00-21:30)
var TimeSlots = []string{"17:00", "18:30", "20:00"}

type Reservation struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ReservationCode string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"reservation_code"`
	CustomerID      *uint      `gorm:"index" json:"customer_id"`
	Customer        *Customer  `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"customer,omitempty"`
	CustomerName    string     `gorm:"type:varchar(255);not null" json:"customer_name"`
	Phone           string     `gorm:"type:varchar(32);not null" json:"phone"`
	Email           *string    `gorm:"type:varchar(255)" json:"email"`
	TableID         uint       `gorm:"not null;index" json:"table_id"`
	Table           *Table     `gorm:"foreignKey:TableID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table,omitempty"`
	Occasion        *string    `gorm:"type:varchar(100)" json:"occasion"`
	NumberOfGuests  int        `gorm:"not null" json:"number_of_guests"`
	ReservationDate string     `gorm:"type:varchar(10);not null;index" json:"reservation_date"`
	ReservationTime string     `gorm:"type:varchar(8);not null" json:"reservation_time"`
	DurationHours   int        `gorm:"not null;default:2" json:"duration_hours"`
	PaymentAmount   float64    `gorm:"type:decimal(10,2);not null;default:0" json:"payment_amount"`
	PaymentStatus   string     `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	Status          string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Notes           *string    `gorm:"type:text" json:"notes"`
	PaymentProof    *string    `gorm:"type:varchar(512)" json:"payment_proof"`
	PaymentProofKey *string    `gorm:"type:varchar(255)" json:"-"`
	ActiveSlotKey   *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	ProofUploadedAt *time.Time `json:"proof_uploaded_at,omitempty"`
	CreatedAt       time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null" json:"updated_at"`
}

// Slot -> jam reservasi dalam format HH:MM
func (r *Reservation) Slot() string {
	if len(r.ReservationTime) < 5 {
		return r.ReservationTime
	}
	return r.ReservationTime[:5]
}

// HoldsSlot -> reservasi pending/confirmed mengunci meja pada slot tersebut
func (r *Reservation) HoldsSlot() bool {
	return HoldsSlot(r.Status)
}

// RefreshSlotKey mengisi ActiveSlotKey hanya selama reservasi mengunci slot,
// sehingga unique index hanya berlaku untuk reservasi aktif.
func (r *Reservation) RefreshSlotKey() {
	if !r.HoldsSlot() {
		r.ActiveSlotKey = nil
		return
	}
	key := SlotKey(r.TableID, r.ReservationDate, r.Slot())
	r.ActiveSlotKey = &key
}

func SlotKey(tableID uint, date, slot string) string {
	return fmt.Sprintf("%d:%s:%s", tableID, date, slot)
}

func HoldsSlot(status string) bool {
	return status == ReservationPending || status == ReservationConfirmed
}

func IsValidReservationStatus(status string) bool {
	return contains(ReservationStatuses, status)
}

func IsValidPaymentStatus(status string) bool {
	return contains(PaymentStatuses, status)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
