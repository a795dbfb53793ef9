package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workflow role tags for service statuses. Statuses themselves are
// branch-configured catalog rows; the role tag is what the workflow
// engine resolves against instead of matching display names.
const (
	StatusRoleIntake   = "INTAKE"
	StatusRolePaid     = "PAID"
	StatusRoleTerminal = "TERMINAL"
)

// Branch represents a notary office location
type Branch struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name         string `gorm:"not null" json:"name"`
	Abbreviation string `gorm:"not null;uniqueIndex" json:"abbreviation"` // e.g., "SC", used in ticket codes
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	IsActive     bool   `gorm:"not null;default:true" json:"is_active"`
}

// BeforeCreate hook to generate UUID
func (b *Branch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Branch model
func (Branch) TableName() string {
	return "branches"
}

// DocumentType represents a notarial document type (escritura, poder, etc.)
type DocumentType struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name     string `gorm:"not null" json:"name"`
	Code     string `gorm:"not null" json:"code"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}

// BeforeCreate hook to generate UUID
func (dt *DocumentType) BeforeCreate(tx *gorm.DB) error {
	if dt.ID == "" {
		dt.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for DocumentType model
func (DocumentType) TableName() string {
	return "document_types"
}

// ProcedureType represents a tramite offered by one specific branch.
// A procedure type scoped to branch A cannot open a service at branch B.
type ProcedureType struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	BranchID string `gorm:"type:uuid;not null;index" json:"branch_id"`
	Branch   Branch `gorm:"foreignKey:BranchID" json:"branch,omitempty"`

	Name     string `gorm:"not null" json:"name"`
	DueDays  int    `gorm:"not null;default:0" json:"due_days"` // Default turnaround in days
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}

// BeforeCreate hook to generate UUID
func (pt *ProcedureType) BeforeCreate(tx *gorm.DB) error {
	if pt.ID == "" {
		pt.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for ProcedureType model
func (ProcedureType) TableName() string {
	return "procedure_types"
}

// ServiceStatus represents a branch-configured workflow status row.
// Display names are free text; WorkflowRole is the fixed tag the engine
// resolves by.
type ServiceStatus struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name         string  `gorm:"not null" json:"name"` // e.g., "Iniciado", "Pagado"
	WorkflowRole *string `gorm:"index" json:"workflow_role,omitempty"`
	SortOrder    int     `gorm:"not null;default:0" json:"sort_order"`
	IsActive     bool    `gorm:"not null;default:true" json:"is_active"`
}

// BeforeCreate hook to generate UUID
func (ss *ServiceStatus) BeforeCreate(tx *gorm.DB) error {
	if ss.ID == "" {
		ss.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for ServiceStatus model
func (ServiceStatus) TableName() string {
	return "service_statuses"
}

// HasRole checks whether the status carries the given workflow role tag
func (ss *ServiceStatus) HasRole(role string) bool {
	return ss.WorkflowRole != nil && *ss.WorkflowRole == role
}

// BankAccount represents a bank account payments can be deposited into
type BankAccount struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	BankName      string `gorm:"not null" json:"bank_name"`
	AccountNumber string `gorm:"not null" json:"account_number"`
	IsActive      bool   `gorm:"not null;default:true" json:"is_active"`
}

// BeforeCreate hook to generate UUID
func (ba *BankAccount) BeforeCreate(tx *gorm.DB) error {
	if ba.ID == "" {
		ba.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for BankAccount model
func (BankAccount) TableName() string {
	return "bank_accounts"
}

// Client represents the person or entity requesting a notarial service
type Client struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	FullName       string `gorm:"not null" json:"full_name"`
	IdentityNumber string `gorm:"index" json:"identity_number"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	IsActive       bool   `gorm:"not null;default:true" json:"is_active"`
}

// BeforeCreate hook to generate UUID
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Client model
func (Client) TableName() string {
	return "clients"
}
