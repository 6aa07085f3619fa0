package models

import "time"

// CustomerTimer -> catatan timer per meja di sisi server
type CustomerTimer struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	TableID        uint       `gorm:"not null;index" json:"table_id"`
	Table          *Table     `gorm:"foreignKey:TableID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table,omitempty"`
	CustomerName   string     `gorm:"type:varchar(255);not null" json:"customer_name"`
	OrderID        *uint      `json:"order_id"`
	StartTime      time.Time  `gorm:"not null" json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	IsActive       bool       `gorm:"not null;default:true;index" json:"is_active"`
	ElapsedSeconds *int64     `json:"elapsed_seconds"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`

	CurrentElapsedSeconds int64 `gorm:"-" json:"current_elapsed_seconds"`
}

// ComputeElapsed mengisi CurrentElapsedSeconds relatif terhadap now
func (t *CustomerTimer) ComputeElapsed(now time.Time) {
	end := now
	if !t.IsActive && t.EndTime != nil {
		end = *t.EndTime
	}
	secs := int64(end.Sub(t.StartTime) / time.Second)
	if secs < 0 {
		secs = 0
	}
	t.CurrentElapsedSeconds = secs
}
