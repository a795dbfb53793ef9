package services

import (
	"time"

	"notary_flow_go/models"

	"gorm.io/gorm"
)

// AppendStateHistory records one status transition for a service. The
// ledger is append-only: nothing in this core updates or deletes rows.
func AppendStateHistory(tx *gorm.DB, serviceID, statusID, actingUserID, comment string) (*models.StateHistoryEntry, error) {
	entry := models.StateHistoryEntry{
		ServiceID:    serviceID,
		StatusID:     statusID,
		ActingUserID: actingUserID,
		ChangedAt:    time.Now(),
		Comment:      comment,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetStateHistory returns all transitions for a service, oldest first.
// Entries sharing a timestamp keep insertion order via the sequence ID.
func GetStateHistory(db *gorm.DB, serviceID string) ([]models.StateHistoryEntry, error) {
	var entries []models.StateHistoryEntry
	err := db.Where("service_id = ?", serviceID).
		Preload("Status").
		Preload("ActingUser").
		Order("changed_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}
