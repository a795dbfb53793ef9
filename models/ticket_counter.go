package models

import (
	"time"
)

// TicketSequenceCounter holds the last issued ticket number for one
// branch and month. Owned exclusively by the sequence allocator, which
// reads and increments it under a row lock; nothing else touches it.
type TicketSequenceCounter struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BranchID   string `gorm:"type:uuid;not null;uniqueIndex:idx_ticket_counter_scope" json:"branch_id"`
	Year       int    `gorm:"not null;uniqueIndex:idx_ticket_counter_scope" json:"year"`
	Month      int    `gorm:"not null;uniqueIndex:idx_ticket_counter_scope" json:"month"`
	LastNumber int    `gorm:"not null;default:0" json:"last_number"`
}

// TableName specifies the table name for TicketSequenceCounter model
func (TicketSequenceCounter) TableName() string {
	return "ticket_sequence_counters"
}
