package services

import (
	"errors"
	"fmt"
	"time"

	"notary_flow_go/models"

	"gorm.io/gorm"
)

// Derivacion-related errors
var (
	ErrDerivacionNotFound         = fmt.Errorf("%w: derivacion", ErrNotFound)
	ErrDerivacionAlreadyAccepted  = fmt.Errorf("%w: derivacion already accepted", ErrConflict)
	ErrDerivacionAlreadyCancelled = fmt.Errorf("%w: derivacion already cancelled", ErrConflict)
	ErrServiceInactive            = fmt.Errorf("%w: service is not active", ErrConflict)
	ErrNotResponsible             = fmt.Errorf("%w: acting user is not an active responsible for this service", ErrNotAuthorized)
	ErrNotAddressee               = fmt.Errorf("%w: only the addressed user may perform this action", ErrNotAuthorized)
	ErrNotSenderNorAddressee      = fmt.Errorf("%w: only the sender or the addressed user may cancel", ErrNotAuthorized)
)

// DerivacionFilters holds the closed filter set for referral listings
type DerivacionFilters struct {
	ServiceID string
	Priority  string
	DateFrom  *time.Time
	DateTo    *time.Time
	Order     Ordering
}

var derivacionSortableFields = map[string]bool{
	"created_at": true,
	"priority":   true,
}

// CreateDerivacionInput carries a hand-off proposal
type CreateDerivacionInput struct {
	ServiceID string
	ToUserID  string
	Priority  string
	Reason    string
	Comment   string
}

// CreateDerivacion proposes a hand-off of the service to another user.
// The acting user must currently own the case; the target must be an
// active user other than the actor; the service must be active. The
// addressee is notified fire-and-forget after commit.
func CreateDerivacion(db *gorm.DB, notifier *Notifier, input CreateDerivacionInput, actingUserID string) (*models.Derivacion, error) {
	if input.ToUserID == actingUserID {
		return nil, NewValidationError("to_user_id", "cannot refer a service to yourself")
	}
	if input.Priority == "" {
		input.Priority = models.ServicePriorityNormal
	} else if !models.IsValidServicePriority(input.Priority) {
		return nil, NewValidationError("priority", "invalid priority: "+input.Priority)
	}

	var derivacion models.Derivacion
	err := db.Transaction(func(tx *gorm.DB) error {
		var service models.Service
		if err := tx.First(&service, "id = ?", input.ServiceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrServiceNotFound
			}
			return err
		}
		if !service.IsActive {
			return ErrServiceInactive
		}

		owns, err := IsActiveResponsible(tx, input.ServiceID, actingUserID)
		if err != nil {
			return err
		}
		if !owns {
			return ErrNotResponsible
		}

		target, err := GetUser(tx, input.ToUserID)
		if err != nil {
			return err
		}
		if !target.IsActive {
			return NewValidationError("to_user_id", "target user is not active")
		}

		fromID := actingUserID
		derivacion = models.Derivacion{
			ServiceID:  input.ServiceID,
			FromUserID: &fromID,
			ToUserID:   input.ToUserID,
			Priority:   input.Priority,
			Reason:     input.Reason,
			Comment:    input.Comment,
			IsActive:   true,
		}
		return tx.Create(&derivacion).Error
	})
	if err != nil {
		return nil, err
	}

	if notifier != nil {
		notifier.NotifyDerivacionCreated(&derivacion)
	}
	return &derivacion, nil
}

// AcceptDerivacion marks a pending referral as accepted by its
// addressee. The terminal flags are re-read inside the transaction so a
// concurrent cancel cannot slip in between check and write. Accepting
// does not release prior owners: ownership transfer is a separate,
// deliberate AssignResponsible/ReleaseResponsible pair. The sender is
// notified fire-and-forget after commit.
func AcceptDerivacion(db *gorm.DB, notifier *Notifier, derivacionID, actingUserID string) (*models.Derivacion, error) {
	var derivacion models.Derivacion
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&derivacion, "id = ?", derivacionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDerivacionNotFound
			}
			return err
		}
		if derivacion.ToUserID != actingUserID {
			return ErrNotAddressee
		}
		if derivacion.IsCancelled() {
			return ErrDerivacionAlreadyCancelled
		}
		if derivacion.Accepted {
			return ErrDerivacionAlreadyAccepted
		}

		now := time.Now()
		derivacion.Accepted = true
		derivacion.AcceptedAt = &now
		return tx.Model(&models.Derivacion{}).
			Where("id = ?", derivacion.ID).
			Updates(map[string]interface{}{
				"accepted":    true,
				"accepted_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	if notifier != nil {
		notifier.NotifyDerivacionAccepted(&derivacion)
	}
	return &derivacion, nil
}

// CancelDerivacion terminates a pending referral. The addressee rejects,
// the sender retracts; anyone else is refused. A reason is required and
// an already-accepted referral stays accepted. The counterparty is
// notified fire-and-forget after commit.
func CancelDerivacion(db *gorm.DB, notifier *Notifier, derivacionID, actingUserID, reason string) (*models.Derivacion, error) {
	if reason == "" {
		return nil, NewValidationError("reason", "a cancellation reason is required")
	}

	var derivacion models.Derivacion
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&derivacion, "id = ?", derivacionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDerivacionNotFound
			}
			return err
		}

		isSender := derivacion.FromUserID != nil && *derivacion.FromUserID == actingUserID
		isAddressee := derivacion.ToUserID == actingUserID
		if !isSender && !isAddressee {
			return ErrNotSenderNorAddressee
		}
		if derivacion.Accepted {
			return ErrDerivacionAlreadyAccepted
		}
		if derivacion.IsCancelled() {
			return ErrDerivacionAlreadyCancelled
		}

		now := time.Now()
		derivacion.IsActive = false
		derivacion.CancelledAt = &now
		derivacion.CancelledByUserID = &actingUserID
		derivacion.CancellationReason = reason
		return tx.Model(&models.Derivacion{}).
			Where("id = ?", derivacion.ID).
			Updates(map[string]interface{}{
				"is_active":            false,
				"cancelled_at":         now,
				"cancelled_by_user_id": actingUserID,
				"cancellation_reason":  reason,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	if notifier != nil {
		notifier.NotifyDerivacionCancelled(&derivacion)
	}
	return &derivacion, nil
}

// MarkDerivacionViewed records that the addressee has seen the referral.
// Idempotent: a second call keeps the first timestamp and is a no-op.
func MarkDerivacionViewed(db *gorm.DB, derivacionID, actingUserID string) (*models.Derivacion, error) {
	var derivacion models.Derivacion
	if err := db.First(&derivacion, "id = ?", derivacionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDerivacionNotFound
		}
		return nil, err
	}
	if derivacion.ToUserID != actingUserID {
		return nil, ErrNotAddressee
	}
	if derivacion.Viewed {
		return &derivacion, nil
	}

	now := time.Now()
	derivacion.Viewed = true
	derivacion.ViewedAt = &now
	err := db.Model(&models.Derivacion{}).
		Where("id = ? AND viewed = ?", derivacion.ID, false).
		Updates(map[string]interface{}{
			"viewed":    true,
			"viewed_at": now,
		}).Error
	if err != nil {
		return nil, err
	}
	return &derivacion, nil
}

// GetDerivacionByID retrieves a referral with its parties preloaded
func GetDerivacionByID(db *gorm.DB, derivacionID string) (*models.Derivacion, error) {
	var derivacion models.Derivacion
	err := db.Preload("FromUser").
		Preload("ToUser").
		Preload("Service").
		First(&derivacion, "id = ?", derivacionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDerivacionNotFound
		}
		return nil, err
	}
	return &derivacion, nil
}

func applyDerivacionFilters(query *gorm.DB, filters DerivacionFilters) *gorm.DB {
	if filters.ServiceID != "" {
		query = query.Where("service_id = ?", filters.ServiceID)
	}
	if filters.Priority != "" && models.IsValidServicePriority(filters.Priority) {
		query = query.Where("priority = ?", filters.Priority)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", filters.DateTo)
	}
	return query
}

// GetPendingDerivacionesForUser lists referrals addressed to the user
// that are still open to acceptance, oldest first.
func GetPendingDerivacionesForUser(db *gorm.DB, userID string, filters DerivacionFilters, page, limit int) ([]models.Derivacion, int64, error) {
	order, err := orderClause(filters.Order, derivacionSortableFields, "created_at ASC")
	if err != nil {
		return nil, 0, err
	}

	query := db.Model(&models.Derivacion{}).
		Where("to_user_id = ? AND accepted = ? AND is_active = ?", userID, false, true)
	query = applyDerivacionFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	var derivaciones []models.Derivacion
	err = query.
		Preload("FromUser").
		Preload("Service").
		Order(order).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&derivaciones).Error
	return derivaciones, total, err
}

// GetDerivacionesSentByUser lists referrals the user proposed
func GetDerivacionesSentByUser(db *gorm.DB, userID string, filters DerivacionFilters, page, limit int) ([]models.Derivacion, int64, error) {
	order, err := orderClause(filters.Order, derivacionSortableFields, "created_at ASC")
	if err != nil {
		return nil, 0, err
	}

	query := db.Model(&models.Derivacion{}).Where("from_user_id = ?", userID)
	query = applyDerivacionFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	var derivaciones []models.Derivacion
	err = query.
		Preload("ToUser").
		Preload("Service").
		Order(order).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&derivaciones).Error
	return derivaciones, total, err
}

// GetDerivacionesByService returns the full referral history of a case,
// including the system-generated initial one, oldest first.
func GetDerivacionesByService(db *gorm.DB, serviceID string) ([]models.Derivacion, error) {
	var derivaciones []models.Derivacion
	err := db.Where("service_id = ?", serviceID).
		Preload("FromUser").
		Preload("ToUser").
		Order("created_at ASC").
		Find(&derivaciones).Error
	return derivaciones, err
}
