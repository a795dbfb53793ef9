package services

import (
	"errors"
	"fmt"
	"time"

	"notary_flow_go/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service-related errors
var (
	ErrServiceNotFound      = fmt.Errorf("%w: service", ErrNotFound)
	ErrServiceHasLedgerRows = fmt.Errorf("%w: service has payments or referrals and cannot be deleted", ErrConflict)
)

// Ordering selects the sort column and direction of a listing. The
// zero value falls back to the listing's default order.
type Ordering struct {
	Field string
	Desc  bool
}

// orderClause validates the requested field against the listing's
// sortable columns and renders the SQL order clause. Unknown fields are
// rejected, never silently replaced by the default.
func orderClause(o Ordering, sortable map[string]bool, fallback string) (string, error) {
	if o.Field == "" {
		return fallback, nil
	}
	if !sortable[o.Field] {
		return "", NewValidationError("order_by", "cannot order by: "+o.Field)
	}
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	return o.Field + " " + dir, nil
}

var serviceSortableFields = map[string]bool{
	"created_at":       true,
	"started_at":       true,
	"estimated_due_at": true,
	"ticket_code":      true,
	"priority":         true,
}

// ServiceFilters holds the closed set of filter predicates for querying
// services. No dynamic where-maps: every predicate is typed.
type ServiceFilters struct {
	BranchID      string
	ClientID      string
	StatusID      string
	ResponsibleID string
	Priority      string
	OnlyActive    bool
	Keyword       string
	DateFrom      *time.Time
	DateTo        *time.Time
	Order         Ordering
}

// CreateServiceInput carries the service creation workflow inputs
type CreateServiceInput struct {
	ClientID        string
	DocumentTypeID  string
	ProcedureTypeID string
	BranchID        string
	TotalAmount     decimal.Decimal
	InitialStatusID string // optional; resolved by workflow role when empty
	EstimatedDueAt  *time.Time
	DueDays         int
	Priority        string
	Observations    string
}

// validateCreateService checks every precondition before any write.
// All failures are collected into one field-level message map.
func validateCreateService(db *gorm.DB, input *CreateServiceInput) (*models.Branch, *models.ServiceStatus, error) {
	ve := &ValidationError{}

	if input.TotalAmount.IsNegative() {
		ve.Add("total_amount", "must be zero or greater")
	}
	if input.DueDays < 0 {
		ve.Add("due_days", "must be zero or greater")
	}
	if input.Priority == "" {
		input.Priority = models.ServicePriorityNormal
	} else if !models.IsValidServicePriority(input.Priority) {
		ve.Add("priority", "invalid priority: "+input.Priority)
	}

	branch, err := GetBranch(db, input.BranchID)
	if errors.Is(err, ErrBranchNotFound) {
		ve.Add("branch_id", "branch does not exist")
	} else if err != nil {
		return nil, nil, err
	}

	if _, err := GetClient(db, input.ClientID); errors.Is(err, ErrClientNotFound) {
		ve.Add("client_id", "client does not exist")
	} else if err != nil {
		return nil, nil, err
	}

	if _, err := GetDocumentType(db, input.DocumentTypeID); errors.Is(err, ErrDocumentTypeNotFound) {
		ve.Add("document_type_id", "document type does not exist")
	} else if err != nil {
		return nil, nil, err
	}

	procedureType, err := GetProcedureType(db, input.ProcedureTypeID)
	if errors.Is(err, ErrProcedureTypeNotFound) {
		ve.Add("procedure_type_id", "procedure type does not exist")
	} else if err != nil {
		return nil, nil, err
	} else if procedureType.BranchID != input.BranchID {
		ve.Add("procedure_type_id", "procedure type does not belong to the given branch")
	}

	// Resolve the initial status: explicit id wins, otherwise the
	// branch-configured intake role. Absence of an intake status is
	// legal; the service starts without one.
	var initialStatus *models.ServiceStatus
	if input.InitialStatusID != "" {
		initialStatus, err = GetStatus(db, input.InitialStatusID)
		if errors.Is(err, ErrStatusNotFound) {
			ve.Add("initial_status_id", "status does not exist")
		} else if err != nil {
			return nil, nil, err
		}
	} else {
		initialStatus, err = ResolveStatusByRole(db, models.StatusRoleIntake, IntakeStatusNames)
		if errors.Is(err, ErrStatusNotFound) {
			initialStatus = nil
		} else if err != nil {
			return nil, nil, err
		}
	}

	if ve.HasErrors() {
		return nil, nil, ve
	}
	return branch, initialStatus, nil
}

// CreateService runs the full creation workflow in one transaction:
// ticket allocation, service insert, pre-accepted initial referral,
// first history entry, and the creator's responsible assignment. Any
// precondition failure aborts with no partial writes.
func CreateService(db *gorm.DB, input CreateServiceInput, actingUserID string) (*models.Service, error) {
	branch, initialStatus, err := validateCreateService(db, &input)
	if err != nil {
		return nil, err
	}
	if _, err := GetUser(db, actingUserID); err != nil {
		return nil, err
	}

	// The creation transaction is retried the way AllocateTicketNumber
	// retries: a busy or serialization abort re-runs the whole unit, so
	// no ticket number is burned. Domain errors surface immediately.
	var service models.Service
	var lastErr error
	for attempt := 0; attempt < maxAllocationRetries; attempt++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			ticketCode, err := NextTicketNumber(tx, branch.ID, branch.Abbreviation)
			if err != nil {
				return err
			}

			now := time.Now()
			service = models.Service{
				TicketCode:         ticketCode,
				ClientID:           input.ClientID,
				DocumentTypeID:     input.DocumentTypeID,
				ProcedureTypeID:    input.ProcedureTypeID,
				BranchID:           branch.ID,
				StartedAt:          now,
				EstimatedDueAt:     input.EstimatedDueAt,
				DueDays:            input.DueDays,
				TotalAmount:        input.TotalAmount,
				OutstandingBalance: input.TotalAmount,
				IsActive:           true,
				Priority:           input.Priority,
				Observations:       input.Observations,
				CreatedByID:        actingUserID,
			}
			if initialStatus != nil {
				service.CurrentStatusID = &initialStatus.ID
			}
			if err := tx.Create(&service).Error; err != nil {
				return err
			}

			// The creator starts as their own addressee: the initial
			// referral is born accepted and viewed.
			initial := models.Derivacion{
				ServiceID:  service.ID,
				FromUserID: nil,
				ToUserID:   actingUserID,
				Priority:   input.Priority,
				Reason:     "Registro inicial del servicio",
				Accepted:   true,
				AcceptedAt: &now,
				Viewed:     true,
				ViewedAt:   &now,
				IsActive:   true,
			}
			if err := tx.Create(&initial).Error; err != nil {
				return err
			}

			if initialStatus != nil {
				if _, err := AppendStateHistory(tx, service.ID, initialStatus.ID, actingUserID, "Servicio registrado"); err != nil {
					return err
				}
			}

			if _, err := AssignResponsible(tx, service.ID, actingUserID); err != nil {
				return err
			}
			return nil
		})
		if err == nil {
			return GetServiceByID(db, service.ID)
		}
		if _, ok := IsValidationError(err); ok ||
			errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrNotAuthorized) {
			return nil, err
		}
		lastErr = err
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	return nil, fmt.Errorf("%w: %v", ErrTicketAllocationFailed, lastErr)
}

// GetServiceByID retrieves a service with its relationships preloaded
func GetServiceByID(db *gorm.DB, serviceID string) (*models.Service, error) {
	var service models.Service
	err := db.Where("id = ?", serviceID).
		Preload("Client").
		Preload("DocumentType").
		Preload("ProcedureType").
		Preload("Branch").
		Preload("CurrentStatus").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("changed_at ASC, id ASC")
		}).
		Preload("Derivaciones", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Responsibles", "is_active = ?", true).
		First(&service).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &service, nil
}

// GetServices retrieves services with filters, ordering, and pagination
func GetServices(db *gorm.DB, filters ServiceFilters, page, limit int) ([]models.Service, int64, error) {
	order, err := orderClause(filters.Order, serviceSortableFields, "created_at DESC")
	if err != nil {
		return nil, 0, err
	}

	var services []models.Service
	var total int64

	query := db.Model(&models.Service{})

	if filters.BranchID != "" {
		query = query.Where("branch_id = ?", filters.BranchID)
	}
	if filters.ClientID != "" {
		query = query.Where("client_id = ?", filters.ClientID)
	}
	if filters.StatusID != "" {
		query = query.Where("current_status_id = ?", filters.StatusID)
	}
	if filters.Priority != "" && models.IsValidServicePriority(filters.Priority) {
		query = query.Where("priority = ?", filters.Priority)
	}
	if filters.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filters.ResponsibleID != "" {
		query = query.Where(
			"id IN (?)",
			db.Model(&models.ResponsibleAssignment{}).
				Select("service_id").
				Where("user_id = ? AND is_active = ?", filters.ResponsibleID, true),
		)
	}
	if filters.Keyword != "" {
		kw := "%" + filters.Keyword + "%"
		query = query.Where(
			db.Where("ticket_code LIKE ?", kw).Or("observations LIKE ?", kw),
		)
	}
	if filters.DateFrom != nil {
		query = query.Where("started_at >= ?", filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("started_at <= ?", filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit
	err = query.
		Preload("Client").
		Preload("CurrentStatus").
		Preload("Branch").
		Order(order).
		Limit(limit).
		Offset(offset).
		Find(&services).Error

	return services, total, err
}

// UpdateServiceStatus moves a service to a new status and appends the
// transition to the history ledger in one transaction. The creator is
// notified fire-and-forget after commit.
func UpdateServiceStatus(db *gorm.DB, notifier *Notifier, serviceID, statusID, actingUserID, comment string) error {
	status, err := GetStatus(db, statusID)
	if err != nil {
		return err
	}

	var service models.Service
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&service, "id = ?", serviceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrServiceNotFound
			}
			return err
		}

		updates := map[string]interface{}{
			"current_status_id":  status.ID,
			"last_updated_by_id": actingUserID,
		}
		if status.HasRole(models.StatusRoleTerminal) {
			now := time.Now()
			updates["finished_at"] = now
			updates["is_active"] = false
		}
		if err := tx.Model(&models.Service{}).
			Where("id = ?", serviceID).
			Updates(updates).Error; err != nil {
			return err
		}

		_, err := AppendStateHistory(tx, serviceID, status.ID, actingUserID, comment)
		return err
	})
	if err != nil {
		return err
	}

	if notifier != nil {
		notifier.NotifyStatusChanged(&service, status, actingUserID)
	}
	return nil
}

// UpdateServiceDetails applies administrative edits. Contention on the
// same case resolves last-writer-wins after the existence check.
func UpdateServiceDetails(db *gorm.DB, serviceID, actingUserID string, priority string, dueDays *int, estimatedDueAt *time.Time, observations *string) error {
	if priority != "" && !models.IsValidServicePriority(priority) {
		return NewValidationError("priority", "invalid priority: "+priority)
	}
	if dueDays != nil && *dueDays < 0 {
		return NewValidationError("due_days", "must be zero or greater")
	}

	var service models.Service
	if err := db.First(&service, "id = ?", serviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrServiceNotFound
		}
		return err
	}

	updates := map[string]interface{}{
		"last_updated_by_id": actingUserID,
	}
	if priority != "" {
		updates["priority"] = priority
	}
	if dueDays != nil {
		updates["due_days"] = *dueDays
	}
	if estimatedDueAt != nil {
		updates["estimated_due_at"] = estimatedDueAt
	}
	if observations != nil {
		updates["observations"] = *observations
	}

	return db.Model(&models.Service{}).Where("id = ?", serviceID).Updates(updates).Error
}

// DeleteService soft-deletes a service. Deletion is blocked while any
// payment or referral references it, preserving ledger integrity. The
// system-generated initial referral does not count against deletion.
func DeleteService(db *gorm.DB, serviceID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var service models.Service
		if err := tx.First(&service, "id = ?", serviceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrServiceNotFound
			}
			return err
		}

		var paymentCount int64
		if err := tx.Model(&models.PaymentLedgerEntry{}).
			Where("service_id = ?", serviceID).
			Count(&paymentCount).Error; err != nil {
			return err
		}
		var referralCount int64
		if err := tx.Model(&models.Derivacion{}).
			Where("service_id = ? AND from_user_id IS NOT NULL", serviceID).
			Count(&referralCount).Error; err != nil {
			return err
		}
		if paymentCount > 0 || referralCount > 0 {
			return ErrServiceHasLedgerRows
		}

		return tx.Delete(&service).Error
	})
}
