package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DailyCashClose is the end-of-day reconciliation of cash and bank
// movements for one calendar date. One close per date.
type DailyCashClose struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Date in YYYY-MM-DD form; unique so a day closes exactly once
	Date string `gorm:"not null;uniqueIndex" json:"date"`

	IngressCash decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"ingress_cash"`
	IngressBank decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"ingress_bank"`
	EgressCash  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"egress_cash"`
	EgressBank  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"egress_bank"`

	// ClosingBalance = IngressCash + IngressBank - EgressCash - EgressBank
	ClosingBalance decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"closing_balance"`

	ClosedByUserID *string    `gorm:"type:uuid" json:"closed_by_user_id,omitempty"`
	ClosedBy       *User      `gorm:"foreignKey:ClosedByUserID" json:"closed_by,omitempty"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
}

// BeforeCreate hook to generate UUID
func (dc *DailyCashClose) BeforeCreate(tx *gorm.DB) error {
	if dc.ID == "" {
		dc.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for DailyCashClose model
func (DailyCashClose) TableName() string {
	return "daily_cash_closes"
}
