package services

import (
	"errors"
	"fmt"
	"time"

	"notary_flow_go/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment-related errors
var (
	ErrPaymentNotFound  = fmt.Errorf("%w: payment", ErrNotFound)
	ErrDayAlreadyClosed = fmt.Errorf("%w: daily cash close already exists for this date", ErrConflict)
)

// ApplyPaymentInput carries a payment registration
type ApplyPaymentInput struct {
	ServiceID     string // empty for ad-hoc income unrelated to a case
	Amount        decimal.Decimal
	Method        string
	AccountID     string // empty means cash
	ReceiptType   string
	ReceiptNumber string
	Concept       string
}

// validateApplyPayment checks the inputs and, for service payments,
// loads the service whose balance will be decremented.
func validateApplyPayment(db *gorm.DB, input ApplyPaymentInput) error {
	ve := &ValidationError{}

	if !input.Amount.IsPositive() {
		ve.Add("amount", "must be greater than zero")
	}
	if !models.IsValidPaymentMethod(input.Method) {
		ve.Add("method", "invalid payment method: "+input.Method)
	}
	if input.ReceiptType == "" {
		ve.Add("receipt_type", "receipt type is required")
	}
	if input.AccountID != "" {
		if _, err := GetBankAccount(db, input.AccountID); errors.Is(err, ErrBankAccountNotFound) {
			ve.Add("account_id", "bank account does not exist")
		} else if err != nil {
			return err
		}
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}

// ApplyPayment registers an income entry and, when tied to a service,
// decrements its outstanding balance in the same transaction.
// Over-payment is rejected, never clamped. When the balance reaches
// exactly zero the service flips to the paid-role status if one is
// configured; absence of one silently skips the flip.
func ApplyPayment(db *gorm.DB, notifier *Notifier, input ApplyPaymentInput, actingUserID string) (*models.PaymentLedgerEntry, error) {
	if err := validateApplyPayment(db, input); err != nil {
		return nil, err
	}
	if _, err := GetUser(db, actingUserID); err != nil {
		return nil, err
	}

	var entry models.PaymentLedgerEntry
	var paidService *models.Service
	err := db.Transaction(func(tx *gorm.DB) error {
		entry = models.PaymentLedgerEntry{
			Amount:         input.Amount,
			Method:         input.Method,
			ReceiptType:    input.ReceiptType,
			ReceiptNumber:  input.ReceiptNumber,
			Concept:        input.Concept,
			RegisteredByID: actingUserID,
			RegisteredAt:   nowFunc(),
		}
		if input.AccountID != "" {
			entry.AccountID = &input.AccountID
		}

		if input.ServiceID != "" {
			var service models.Service
			if err := tx.First(&service, "id = ?", input.ServiceID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrServiceNotFound
				}
				return err
			}
			if input.Amount.GreaterThan(service.OutstandingBalance) {
				return NewValidationError("amount", fmt.Sprintf(
					"payment of %s exceeds outstanding balance of %s",
					input.Amount.StringFixed(2), service.OutstandingBalance.StringFixed(2)))
			}

			entry.ServiceID = &service.ID
			newBalance := service.OutstandingBalance.Sub(input.Amount)
			if err := tx.Model(&models.Service{}).
				Where("id = ?", service.ID).
				Updates(map[string]interface{}{
					"outstanding_balance": newBalance,
					"last_updated_by_id":  actingUserID,
				}).Error; err != nil {
				return err
			}

			if newBalance.IsZero() {
				status, err := ResolveStatusByRole(tx, models.StatusRolePaid, PaidStatusNames)
				if err == nil {
					if err := tx.Model(&models.Service{}).
						Where("id = ?", service.ID).
						Update("current_status_id", status.ID).Error; err != nil {
						return err
					}
					if _, err := AppendStateHistory(tx, service.ID, status.ID, actingUserID, "Pago completado"); err != nil {
						return err
					}
				} else if !errors.Is(err, ErrStatusNotFound) {
					return err
				}
				paidService = &service
			}
		}

		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	if paidService != nil && notifier != nil {
		notifier.NotifyServicePaid(paidService)
	}
	return &entry, nil
}

// RegisterEgress records an outgoing movement for the daily close
func RegisterEgress(db *gorm.DB, amount decimal.Decimal, method, accountID, concept, actingUserID string) (*models.EgressLedgerEntry, error) {
	ve := &ValidationError{}
	if !amount.IsPositive() {
		ve.Add("amount", "must be greater than zero")
	}
	if !models.IsValidPaymentMethod(method) {
		ve.Add("method", "invalid payment method: "+method)
	}
	if concept == "" {
		ve.Add("concept", "a concept is required")
	}
	if ve.HasErrors() {
		return nil, ve
	}
	if _, err := GetUser(db, actingUserID); err != nil {
		return nil, err
	}

	entry := models.EgressLedgerEntry{
		Amount:         amount,
		Method:         method,
		Concept:        concept,
		RegisteredByID: actingUserID,
		RegisteredAt:   nowFunc(),
	}
	if accountID != "" {
		if _, err := GetBankAccount(db, accountID); err != nil {
			return nil, err
		}
		entry.AccountID = &accountID
	}
	if err := db.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetPaymentsByService lists all payments applied to a service
func GetPaymentsByService(db *gorm.DB, serviceID string) ([]models.PaymentLedgerEntry, error) {
	var entries []models.PaymentLedgerEntry
	err := db.Where("service_id = ?", serviceID).
		Preload("RegisteredBy").
		Preload("Account").
		Order("registered_at ASC").
		Find(&entries).Error
	return entries, err
}

// dayBounds returns the [start, end) window of one calendar date
func dayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.Add(24 * time.Hour)
}

// GetPaymentsByDate lists the income entries of one calendar date
func GetPaymentsByDate(db *gorm.DB, date time.Time) ([]models.PaymentLedgerEntry, error) {
	start, end := dayBounds(date)
	var entries []models.PaymentLedgerEntry
	err := db.Where("registered_at >= ? AND registered_at < ?", start, end).
		Preload("Service").
		Preload("Account").
		Order("registered_at ASC").
		Find(&entries).Error
	return entries, err
}

// sumLedger aggregates one ledger model over a day window, split by
// cash (account_id null) versus bank.
func sumLedger(tx *gorm.DB, model interface{}, start, end time.Time) (cash, bank decimal.Decimal, err error) {
	type row struct {
		IsBank bool
		Total  decimal.Decimal
	}
	var rows []row
	err = tx.Model(model).
		Where("registered_at >= ? AND registered_at < ?", start, end).
		Select("account_id IS NOT NULL AS is_bank, COALESCE(SUM(amount), 0) AS total").
		Group("account_id IS NOT NULL").
		Scan(&rows).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	cash, bank = decimal.Zero, decimal.Zero
	for _, r := range rows {
		if r.IsBank {
			bank = r.Total
		} else {
			cash = r.Total
		}
	}
	return cash, bank, nil
}

// CloseDay aggregates the date's ledgers into a DailyCashClose. A date
// closes exactly once; a second attempt is rejected.
func CloseDay(db *gorm.DB, date time.Time, actingUserID string) (*models.DailyCashClose, error) {
	if _, err := GetUser(db, actingUserID); err != nil {
		return nil, err
	}

	start, end := dayBounds(date)
	dateKey := start.Format("2006-01-02")

	var dayClose models.DailyCashClose
	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.DailyCashClose{}).
			Where("date = ?", dateKey).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDayAlreadyClosed
		}

		inCash, inBank, err := sumLedger(tx, &models.PaymentLedgerEntry{}, start, end)
		if err != nil {
			return err
		}
		outCash, outBank, err := sumLedger(tx, &models.EgressLedgerEntry{}, start, end)
		if err != nil {
			return err
		}

		now := time.Now()
		dayClose = models.DailyCashClose{
			Date:           dateKey,
			IngressCash:    inCash,
			IngressBank:    inBank,
			EgressCash:     outCash,
			EgressBank:     outBank,
			ClosingBalance: inCash.Add(inBank).Sub(outCash).Sub(outBank),
			ClosedByUserID: &actingUserID,
			ClosedAt:       &now,
		}
		return tx.Create(&dayClose).Error
	})
	if err != nil {
		return nil, err
	}
	return &dayClose, nil
}

// GetDailyCashClose retrieves the close for one date, if any
func GetDailyCashClose(db *gorm.DB, date time.Time) (*models.DailyCashClose, error) {
	dateKey := date.Format("2006-01-02")
	var dayClose models.DailyCashClose
	err := db.Preload("ClosedBy").First(&dayClose, "date = ?", dateKey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: daily cash close", ErrNotFound)
		}
		return nil, err
	}
	return &dayClose, nil
}
