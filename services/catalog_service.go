package services

import (
	"errors"
	"fmt"

	"notary_flow_go/models"

	"gorm.io/gorm"
)

// Catalog-related errors
var (
	ErrBranchNotFound        = fmt.Errorf("%w: branch", ErrNotFound)
	ErrClientNotFound        = fmt.Errorf("%w: client", ErrNotFound)
	ErrDocumentTypeNotFound  = fmt.Errorf("%w: document type", ErrNotFound)
	ErrProcedureTypeNotFound = fmt.Errorf("%w: procedure type", ErrNotFound)
	ErrStatusNotFound        = fmt.Errorf("%w: service status", ErrNotFound)
	ErrUserNotFound          = fmt.Errorf("%w: user", ErrNotFound)
	ErrBankAccountNotFound   = fmt.Errorf("%w: bank account", ErrNotFound)
)

// Default name-heuristic candidates, used only for status rows that
// carry no workflow role tag. Order matters: first match wins.
var (
	IntakeStatusNames = []string{"Iniciado", "Registrado", "Pendiente"}
	PaidStatusNames   = []string{"Pagado", "En Proceso"}
)

// GetBranch retrieves a branch by ID
func GetBranch(db *gorm.DB, branchID string) (*models.Branch, error) {
	var branch models.Branch
	if err := db.First(&branch, "id = ?", branchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBranchNotFound
		}
		return nil, err
	}
	return &branch, nil
}

// GetClient retrieves a client by ID
func GetClient(db *gorm.DB, clientID string) (*models.Client, error) {
	var client models.Client
	if err := db.First(&client, "id = ?", clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return &client, nil
}

// GetDocumentType retrieves a document type by ID
func GetDocumentType(db *gorm.DB, documentTypeID string) (*models.DocumentType, error) {
	var dt models.DocumentType
	if err := db.First(&dt, "id = ?", documentTypeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentTypeNotFound
		}
		return nil, err
	}
	return &dt, nil
}

// GetProcedureType retrieves a procedure type by ID
func GetProcedureType(db *gorm.DB, procedureTypeID string) (*models.ProcedureType, error) {
	var pt models.ProcedureType
	if err := db.First(&pt, "id = ?", procedureTypeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProcedureTypeNotFound
		}
		return nil, err
	}
	return &pt, nil
}

// GetStatus retrieves a service status by ID
func GetStatus(db *gorm.DB, statusID string) (*models.ServiceStatus, error) {
	var status models.ServiceStatus
	if err := db.First(&status, "id = ?", statusID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatusNotFound
		}
		return nil, err
	}
	return &status, nil
}

// GetUser retrieves a user by ID
func GetUser(db *gorm.DB, userID string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetBankAccount retrieves a bank account by ID
func GetBankAccount(db *gorm.DB, accountID string) (*models.BankAccount, error) {
	var account models.BankAccount
	if err := db.First(&account, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBankAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindStatusByNameHeuristic returns the first active status whose name
// matches one of the candidates, trying candidates in the given order
// and breaking ties by configured sort order. Returns ErrStatusNotFound
// when nothing matches.
func FindStatusByNameHeuristic(db *gorm.DB, candidates []string) (*models.ServiceStatus, error) {
	for _, name := range candidates {
		var status models.ServiceStatus
		err := db.Where("name = ? AND is_active = ?", name, true).
			Order("sort_order ASC").
			First(&status).Error
		if err == nil {
			return &status, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, ErrStatusNotFound
}

// ResolveStatusByRole resolves a workflow status by its role tag,
// falling back to the name heuristic for catalogs that predate role
// tags. Returns ErrStatusNotFound when neither resolves; callers that
// treat the resolution as best-effort skip on that error.
func ResolveStatusByRole(db *gorm.DB, role string, fallbackNames []string) (*models.ServiceStatus, error) {
	var status models.ServiceStatus
	err := db.Where("workflow_role = ? AND is_active = ?", role, true).
		Order("sort_order ASC").
		First(&status).Error
	if err == nil {
		return &status, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return FindStatusByNameHeuristic(db, fallbackNames)
}
