package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Derivacion represents a proposed hand-off of a service from one staff
// member to another. Accepted and cancelled are mutually exclusive
// terminal facts; viewed is an independent overlay.
type Derivacion struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ServiceID string  `gorm:"type:uuid;not null;index:idx_derivacion_service" json:"service_id"`
	Service   Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`

	// FromUserID is null only for the system-generated initial self-referral
	FromUserID *string `gorm:"type:uuid;index" json:"from_user_id,omitempty"`
	FromUser   *User   `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	ToUserID   string  `gorm:"type:uuid;not null;index" json:"to_user_id"`
	ToUser     User    `gorm:"foreignKey:ToUserID" json:"to_user,omitempty"`

	Priority string `gorm:"not null;default:NORMAL" json:"priority"`
	Reason   string `gorm:"type:text" json:"reason"`
	Comment  string `gorm:"type:text" json:"comment"`

	// Acceptance
	Accepted   bool       `gorm:"not null;default:false" json:"accepted"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`

	// View tracking
	Viewed   bool       `gorm:"not null;default:false" json:"viewed"`
	ViewedAt *time.Time `json:"viewed_at,omitempty"`

	// Cancellation. IsActive is false once cancelled.
	IsActive           bool       `gorm:"not null;default:true" json:"is_active"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledByUserID  *string    `gorm:"type:uuid" json:"cancelled_by_user_id,omitempty"`
	CancellationReason string     `gorm:"type:text" json:"cancellation_reason"`
}

// BeforeCreate hook to generate UUID
func (d *Derivacion) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Derivacion model
func (Derivacion) TableName() string {
	return "derivaciones"
}

// IsCancelled checks whether the referral was terminated
func (d *Derivacion) IsCancelled() bool {
	return !d.IsActive
}

// IsPending checks whether the referral can still be accepted or cancelled
func (d *Derivacion) IsPending() bool {
	return !d.Accepted && d.IsActive
}

// IsInitial checks whether this is the system-generated self-referral
// created alongside the service itself
func (d *Derivacion) IsInitial() bool {
	return d.FromUserID == nil
}
