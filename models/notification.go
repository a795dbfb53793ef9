package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types
const (
	NotificationTypeDerivacionCreated   = "DERIVACION_CREATED"
	NotificationTypeDerivacionAccepted  = "DERIVACION_ACCEPTED"
	NotificationTypeDerivacionCancelled = "DERIVACION_CANCELLED"
	NotificationTypeServicePaid         = "SERVICE_PAID"
	NotificationTypeStatusChanged       = "STATUS_CHANGED"
)

type Notification struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Targeting
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`

	// Context
	ServiceID    *string `gorm:"type:uuid" json:"service_id,omitempty"`
	DerivacionID *string `gorm:"type:uuid" json:"derivacion_id,omitempty"`

	// Content
	Type    string `gorm:"not null" json:"type"`
	Title   string `gorm:"not null" json:"title"`
	Message string `gorm:"type:text" json:"message"`

	// Read tracking
	ReadAt *time.Time `json:"read_at,omitempty"`

	// Relationships
	User       User        `gorm:"foreignKey:UserID" json:"-"`
	Service    *Service    `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	Derivacion *Derivacion `gorm:"foreignKey:DerivacionID" json:"derivacion,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}
