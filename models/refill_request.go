package models

import "time"

const (
	RefillPending    = "pending"
	RefillInProgress = "in_progress"
	RefillCompleted  = "completed"
	RefillCancelled  = "cancelled"
)

var RefillStatuses = []string{
	RefillPending,
	RefillInProgress,
	RefillCompleted,
	RefillCancelled,
}

type RefillRequest struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	TableCode   string     `gorm:"type:varchar(50);not null;index" json:"table_code"`
	TableID     uint       `gorm:"not null;index" json:"table_id"`
	Table       *Table     `gorm:"foreignKey:TableID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table,omitempty"`
	CustomerID  *uint      `gorm:"index" json:"customer_id"`
	Customer    *Customer  `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"customer,omitempty"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RequestType string     `gorm:"type:text;not null" json:"request_type"`
	Notes       *string    `gorm:"type:text" json:"notes"`
	RequestedAt time.Time  `gorm:"not null" json:"requested_at"`
	CompletedAt *time.Time `json:"completed_at"`
	ProcessedBy *string    `gorm:"type:varchar(100)" json:"processed_by"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func IsValidRefillStatus(status string) bool {
	return contains(RefillStatuses, status)
}
