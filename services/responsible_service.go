package services

import (
	"fmt"
	"time"

	"notary_flow_go/models"

	"gorm.io/gorm"
)

// Responsible-assignment errors
var (
	ErrAssignmentNotFound = fmt.Errorf("%w: active responsible assignment", ErrNotFound)
	ErrAlreadyResponsible = fmt.Errorf("%w: user already has an active assignment on this service", ErrConflict)
)

// AssignResponsible opens a new ownership interval for the user on the
// service. Prior active assignments are left untouched: co-ownership is
// legal and releasing is a deliberate separate call.
func AssignResponsible(tx *gorm.DB, serviceID, userID string) (*models.ResponsibleAssignment, error) {
	var count int64
	if err := tx.Model(&models.ResponsibleAssignment{}).
		Where("service_id = ? AND user_id = ? AND is_active = ?", serviceID, userID, true).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyResponsible
	}

	assignment := models.ResponsibleAssignment{
		ServiceID:  serviceID,
		UserID:     userID,
		AssignedAt: time.Now(),
		IsActive:   true,
	}
	if err := tx.Create(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ReleaseResponsible closes the user's active ownership interval.
// Releasing a missing or already-released assignment is an error, not a
// silent no-op.
func ReleaseResponsible(db *gorm.DB, serviceID, userID string) error {
	now := time.Now()
	result := db.Model(&models.ResponsibleAssignment{}).
		Where("service_id = ? AND user_id = ? AND is_active = ?", serviceID, userID, true).
		Updates(map[string]interface{}{
			"released_at": now,
			"is_active":   false,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// GetActiveResponsibles returns the current owners of a service
func GetActiveResponsibles(db *gorm.DB, serviceID string) ([]models.ResponsibleAssignment, error) {
	var assignments []models.ResponsibleAssignment
	err := db.Where("service_id = ? AND is_active = ?", serviceID, true).
		Preload("User").
		Order("assigned_at ASC").
		Find(&assignments).Error
	return assignments, err
}

// IsActiveResponsible checks whether the user currently owns the service
func IsActiveResponsible(db *gorm.DB, serviceID, userID string) (bool, error) {
	var count int64
	err := db.Model(&models.ResponsibleAssignment{}).
		Where("service_id = ? AND user_id = ? AND is_active = ?", serviceID, userID, true).
		Count(&count).Error
	return count > 0, err
}
