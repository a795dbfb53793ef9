package services

import (
	"errors"
	"fmt"
	"time"

	"notary_flow_go/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxAllocationRetries bounds how often a failed counter transaction is
// retried before the conflict is surfaced to the caller.
const maxAllocationRetries = 5

var ErrTicketAllocationFailed = fmt.Errorf("%w: ticket allocation failed after retries", ErrConflict)

// nowFunc supplies counter and ledger timestamps; swapped in tests that
// depend on the calendar (month boundaries, daily close windows)
var nowFunc = time.Now

// FormatTicketCode renders a ticket code as {ABBREV}-{YY}{MM}-{NNNNN},
// e.g. SC-2601-00001.
func FormatTicketCode(abbreviation string, year int, month time.Month, number int) string {
	return fmt.Sprintf("%s-%02d%02d-%05d", abbreviation, year%100, int(month), number)
}

// NextTicketNumber increments and returns the counter for the branch and
// current month inside the given transaction. The counter row is read
// under a row lock so no two concurrent callers observe the same
// pre-increment value.
func NextTicketNumber(tx *gorm.DB, branchID, abbreviation string) (string, error) {
	now := nowFunc()
	year, month := now.Year(), now.Month()

	var counter models.TicketSequenceCounter
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("branch_id = ? AND year = ? AND month = ?", branchID, year, int(month)).
		First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		counter = models.TicketSequenceCounter{
			BranchID:   branchID,
			Year:       year,
			Month:      int(month),
			LastNumber: 0,
		}
		if err := tx.Create(&counter).Error; err != nil {
			return "", fmt.Errorf("failed to create ticket counter: %w", err)
		}
	} else if err != nil {
		return "", fmt.Errorf("failed to lock ticket counter: %w", err)
	}

	counter.LastNumber++
	if err := tx.Model(&models.TicketSequenceCounter{}).
		Where("id = ?", counter.ID).
		Update("last_number", counter.LastNumber).Error; err != nil {
		return "", fmt.Errorf("failed to increment ticket counter: %w", err)
	}

	return FormatTicketCode(abbreviation, year, month, counter.LastNumber), nil
}

// AllocateTicketNumber runs NextTicketNumber in its own transaction,
// retrying the whole allocation when the transaction aborts (busy
// database, serialization conflict). A partially-read number is never
// reused: every retry starts a fresh transaction.
func AllocateTicketNumber(db *gorm.DB, branchID, abbreviation string) (string, error) {
	var lastErr error
	for i := 0; i < maxAllocationRetries; i++ {
		var code string
		err := db.Transaction(func(tx *gorm.DB) error {
			var txErr error
			code, txErr = NextTicketNumber(tx, branchID, abbreviation)
			return txErr
		})
		if err == nil {
			return code, nil
		}
		lastErr = err
		time.Sleep(time.Duration(i+1) * 10 * time.Millisecond)
	}
	return "", fmt.Errorf("%w: %v", ErrTicketAllocationFailed, lastErr)
}
