package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment method constants
const (
	PaymentMethodCash     = "CASH"
	PaymentMethodDeposit  = "DEPOSIT"
	PaymentMethodTransfer = "TRANSFER"
	PaymentMethodCard     = "CARD"
)

// Receipt type constants
const (
	ReceiptTypeBoleta  = "BOLETA"
	ReceiptTypeFactura = "FACTURA"
	ReceiptTypeRecibo  = "RECIBO"
)

// PaymentLedgerEntry is one income movement. Entries are immutable;
// corrections happen outside this core.
type PaymentLedgerEntry struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// ServiceID is null for ad-hoc income unrelated to a case
	ServiceID *string  `gorm:"type:uuid;index" json:"service_id,omitempty"`
	Service   *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`

	Amount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method string          `gorm:"not null" json:"method"`

	// AccountID set means a bank movement; nil means cash
	AccountID *string      `gorm:"type:uuid" json:"account_id,omitempty"`
	Account   *BankAccount `gorm:"foreignKey:AccountID" json:"account,omitempty"`

	ReceiptType   string `gorm:"not null" json:"receipt_type"`
	ReceiptNumber string `gorm:"not null" json:"receipt_number"`
	Concept       string `gorm:"type:text" json:"concept"`

	RegisteredByID string    `gorm:"type:uuid;not null" json:"registered_by_id"`
	RegisteredBy   User      `gorm:"foreignKey:RegisteredByID" json:"registered_by,omitempty"`
	RegisteredAt   time.Time `gorm:"not null;index" json:"registered_at"`
}

// BeforeCreate hook to generate UUID
func (p *PaymentLedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for PaymentLedgerEntry model
func (PaymentLedgerEntry) TableName() string {
	return "payment_ledger_entries"
}

// IsBank checks whether the payment went into a bank account
func (p *PaymentLedgerEntry) IsBank() bool {
	return p.AccountID != nil
}

// IsValidPaymentMethod checks if the method is valid
func IsValidPaymentMethod(method string) bool {
	validMethods := []string{
		PaymentMethodCash,
		PaymentMethodDeposit,
		PaymentMethodTransfer,
		PaymentMethodCard,
	}
	for _, m := range validMethods {
		if m == method {
			return true
		}
	}
	return false
}

// EgressLedgerEntry is one outgoing movement (expenses, supplier
// payments). Mirrors the income ledger; consumed by the daily close.
type EgressLedgerEntry struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Amount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method string          `gorm:"not null" json:"method"`

	AccountID *string      `gorm:"type:uuid" json:"account_id,omitempty"`
	Account   *BankAccount `gorm:"foreignKey:AccountID" json:"account,omitempty"`

	Concept string `gorm:"type:text;not null" json:"concept"`

	RegisteredByID string    `gorm:"type:uuid;not null" json:"registered_by_id"`
	RegisteredBy   User      `gorm:"foreignKey:RegisteredByID" json:"registered_by,omitempty"`
	RegisteredAt   time.Time `gorm:"not null;index" json:"registered_at"`
}

// BeforeCreate hook to generate UUID
func (e *EgressLedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for EgressLedgerEntry model
func (EgressLedgerEntry) TableName() string {
	return "egress_ledger_entries"
}

// IsBank checks whether the egress came out of a bank account
func (e *EgressLedgerEntry) IsBank() bool {
	return e.AccountID != nil
}
