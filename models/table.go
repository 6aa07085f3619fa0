package models

import "time"

// Status meja
const (
	TableStatusAvailable   = "available"
	TableStatusOccupied    = "occupied"
	TableStatusReserved    = "reserved"
	TableStatusMaintenance = "maintenance"
)

var TableStatuses = []string{
	TableStatusAvailable,
	TableStatusOccupied,
	TableStatusReserved,
	TableStatusMaintenance,
}

type Table struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TableNumber int       `gorm:"not null;index" json:"table_number"`
	TableCode   string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"table_code"`
	Capacity    int       `gorm:"not null;default:4" json:"capacity"`
	Status      string    `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	Location    *string   `gorm:"type:varchar(100)" json:"location,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func IsValidTableStatus(status string) bool {
	for _, s := range TableStatuses {
		if s == status {
			return true
		}
	}
	return false
}
