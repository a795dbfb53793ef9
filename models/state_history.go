package models

import (
	"time"
)

// StateHistoryEntry is one row per status transition of a service.
// Append-only: rows are never updated or deleted. The autoincrement ID
// breaks ordering ties between entries sharing the same ChangedAt.
type StateHistoryEntry struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ServiceID string        `gorm:"type:uuid;not null;index:idx_history_service" json:"service_id"`
	StatusID  string        `gorm:"type:uuid;not null" json:"status_id"`
	Status    ServiceStatus `gorm:"foreignKey:StatusID" json:"status,omitempty"`

	ActingUserID string    `gorm:"type:uuid;not null" json:"acting_user_id"`
	ActingUser   User      `gorm:"foreignKey:ActingUserID" json:"acting_user,omitempty"`
	ChangedAt    time.Time `gorm:"not null;index" json:"changed_at"`
	Comment      string    `gorm:"type:text" json:"comment"`
}

// TableName specifies the table name for StateHistoryEntry model
func (StateHistoryEntry) TableName() string {
	return "state_history_entries"
}
