package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service priority constants (workflow states - must remain fixed)
const (
	ServicePriorityLow    = "LOW"
	ServicePriorityNormal = "NORMAL"
	ServicePriorityHigh   = "HIGH"
	ServicePriorityUrgent = "URGENT"
)

// Service represents one notarial case tracked from intake to closure
type Service struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Identification
	TicketCode string `gorm:"not null;uniqueIndex" json:"ticket_code"` // e.g., SC-2601-00001

	// Classification (catalog references)
	ClientID        string        `gorm:"type:uuid;not null;index" json:"client_id"`
	Client          Client        `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	DocumentTypeID  string        `gorm:"type:uuid;not null" json:"document_type_id"`
	DocumentType    DocumentType  `gorm:"foreignKey:DocumentTypeID" json:"document_type,omitempty"`
	ProcedureTypeID string        `gorm:"type:uuid;not null" json:"procedure_type_id"`
	ProcedureType   ProcedureType `gorm:"foreignKey:ProcedureTypeID" json:"procedure_type,omitempty"`
	BranchID        string        `gorm:"type:uuid;not null;index:idx_service_branch_status" json:"branch_id"`
	Branch          Branch        `gorm:"foreignKey:BranchID" json:"branch,omitempty"`

	// Lifecycle
	CurrentStatusID *string        `gorm:"type:uuid;index:idx_service_branch_status" json:"current_status_id,omitempty"`
	CurrentStatus   *ServiceStatus `gorm:"foreignKey:CurrentStatusID" json:"current_status,omitempty"`
	StartedAt       time.Time      `gorm:"not null" json:"started_at"`
	FinishedAt      *time.Time     `json:"finished_at,omitempty"`
	EstimatedDueAt  *time.Time     `json:"estimated_due_at,omitempty"`
	DueDays         int            `gorm:"not null;default:0" json:"due_days"`

	// Money. Invariant: OutstandingBalance = TotalAmount - sum of applied payments.
	TotalAmount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	OutstandingBalance decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"outstanding_balance"`

	// Flags
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
	Priority string `gorm:"not null;default:NORMAL" json:"priority"`

	Observations string `gorm:"type:text" json:"observations"`

	// Ownership
	CreatedByID     string  `gorm:"type:uuid;not null;index" json:"created_by_id"`
	CreatedBy       User    `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	LastUpdatedByID *string `gorm:"type:uuid" json:"last_updated_by_id,omitempty"`

	// Relationships
	History      []StateHistoryEntry     `gorm:"foreignKey:ServiceID" json:"history,omitempty"`
	Derivaciones []Derivacion            `gorm:"foreignKey:ServiceID" json:"derivaciones,omitempty"`
	Responsibles []ResponsibleAssignment `gorm:"foreignKey:ServiceID" json:"responsibles,omitempty"`
	Payments     []PaymentLedgerEntry    `gorm:"foreignKey:ServiceID" json:"payments,omitempty"`
}

// BeforeCreate hook to generate UUID
func (s *Service) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Service model
func (Service) TableName() string {
	return "services"
}

// IsPaid checks whether the outstanding balance has reached zero
func (s *Service) IsPaid() bool {
	return s.OutstandingBalance.IsZero()
}

// IsValidServicePriority checks if the priority is valid
func IsValidServicePriority(priority string) bool {
	validPriorities := []string{
		ServicePriorityLow,
		ServicePriorityNormal,
		ServicePriorityHigh,
		ServicePriorityUrgent,
	}
	for _, p := range validPriorities {
		if p == priority {
			return true
		}
	}
	return false
}

// GetServicePriorityDisplayName returns human-readable priority name
func GetServicePriorityDisplayName(priority string) string {
	names := map[string]string{
		ServicePriorityLow:    "Low",
		ServicePriorityNormal: "Normal",
		ServicePriorityHigh:   "High",
		ServicePriorityUrgent: "Urgent",
	}
	if name, ok := names[priority]; ok {
		return name
	}
	return priority
}
