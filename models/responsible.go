package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResponsibleAssignment is one ownership interval of a service by a
// staff member. Multiple simultaneously-active owners are legal
// (co-assignment); IsActive is denormalized and must equal
// ReleasedAt == nil.
type ResponsibleAssignment struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ServiceID string  `gorm:"type:uuid;not null;index:idx_responsible_service_active" json:"service_id"`
	Service   Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	UserID    string  `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User    `gorm:"foreignKey:UserID" json:"user,omitempty"`

	AssignedAt time.Time  `gorm:"not null" json:"assigned_at"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
	IsActive   bool       `gorm:"not null;default:true;index:idx_responsible_service_active" json:"is_active"`
}

// BeforeCreate hook to generate UUID
func (ra *ResponsibleAssignment) BeforeCreate(tx *gorm.DB) error {
	if ra.ID == "" {
		ra.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for ResponsibleAssignment model
func (ResponsibleAssignment) TableName() string {
	return "responsible_assignments"
}
