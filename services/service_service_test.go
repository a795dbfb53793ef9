package services

import (
	"sync"
	"testing"
	"time"

	"notary_flow_go/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCreateService(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	pinClock(t, time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC))

	baseInput := func() CreateServiceInput {
		return CreateServiceInput{
			ClientID:        fx.Client.ID,
			DocumentTypeID:  fx.DocType.ID,
			ProcedureTypeID: fx.ProcType.ID,
			BranchID:        fx.Branch.ID,
			TotalAmount:     decimal.RequireFromString("1500.00"),
		}
	}

	t.Run("Full Workflow", func(t *testing.T) {
		service, err := CreateService(db, baseInput(), fx.UserA.ID)
		assert.NoError(t, err)
		assert.Equal(t, "SC-2601-00001", service.TicketCode)
		assert.Equal(t, "1500.00", service.TotalAmount.StringFixed(2))
		assert.Equal(t, "1500.00", service.OutstandingBalance.StringFixed(2))
		assert.True(t, service.IsActive)
		assert.Equal(t, models.ServicePriorityNormal, service.Priority)

		// Intake status resolved by role tag
		assert.NotNil(t, service.CurrentStatusID)
		assert.Equal(t, fx.IntakeStatus.ID, *service.CurrentStatusID)

		// First history entry
		assert.Len(t, service.History, 1)
		assert.Equal(t, fx.IntakeStatus.ID, service.History[0].StatusID)

		// Initial self-referral, pre-accepted and pre-viewed
		assert.Len(t, service.Derivaciones, 1)
		initial := service.Derivaciones[0]
		assert.Nil(t, initial.FromUserID)
		assert.Equal(t, fx.UserA.ID, initial.ToUserID)
		assert.True(t, initial.Accepted)
		assert.True(t, initial.Viewed)
		assert.True(t, initial.IsInitial())

		// Creator is the active responsible
		assert.Len(t, service.Responsibles, 1)
		assert.Equal(t, fx.UserA.ID, service.Responsibles[0].UserID)
		assert.True(t, service.Responsibles[0].IsActive)
	})

	t.Run("Procedure Type Must Belong To Branch", func(t *testing.T) {
		input := baseInput()
		input.BranchID = fx.OtherBranch.ID
		_, err := CreateService(db, input, fx.UserA.ID)
		ve, ok := IsValidationError(err)
		assert.True(t, ok)
		assert.Contains(t, ve.Fields, "procedure_type_id")
	})

	t.Run("Negative Amount Rejected", func(t *testing.T) {
		input := baseInput()
		input.TotalAmount = decimal.RequireFromString("-1.00")
		_, err := CreateService(db, input, fx.UserA.ID)
		ve, ok := IsValidationError(err)
		assert.True(t, ok)
		assert.Contains(t, ve.Fields, "total_amount")
	})

	t.Run("Failed Precondition Leaves No Orphans", func(t *testing.T) {
		var countersBefore, servicesBefore int64
		db.Model(&models.TicketSequenceCounter{}).Count(&countersBefore)
		db.Model(&models.Service{}).Count(&servicesBefore)
		var counterBefore models.TicketSequenceCounter
		db.First(&counterBefore, "branch_id = ?", fx.Branch.ID)

		input := baseInput()
		input.ClientID = "nonexistent-client"
		_, err := CreateService(db, input, fx.UserA.ID)
		ve, ok := IsValidationError(err)
		assert.True(t, ok)
		assert.Contains(t, ve.Fields, "client_id")

		var countersAfter, servicesAfter int64
		db.Model(&models.TicketSequenceCounter{}).Count(&countersAfter)
		db.Model(&models.Service{}).Count(&servicesAfter)
		assert.Equal(t, countersBefore, countersAfter)
		assert.Equal(t, servicesBefore, servicesAfter)

		// Counter value untouched: no ticket number burned
		var counterAfter models.TicketSequenceCounter
		db.First(&counterAfter, "branch_id = ?", fx.Branch.ID)
		assert.Equal(t, counterBefore.LastNumber, counterAfter.LastNumber)
	})

	t.Run("Explicit Initial Status Is Honored", func(t *testing.T) {
		input := baseInput()
		input.InitialStatusID = fx.PaidStatus.ID
		service, err := CreateService(db, input, fx.UserA.ID)
		assert.NoError(t, err)
		assert.Equal(t, fx.PaidStatus.ID, *service.CurrentStatusID)
	})

	t.Run("No Intake Status Configured Is Legal", func(t *testing.T) {
		// Strip role tags and rename so neither lookup path resolves
		db.Model(&models.ServiceStatus{}).Where("1 = 1").Updates(map[string]interface{}{
			"workflow_role": nil,
			"name":          "Otro",
		})
		t.Cleanup(func() {
			intake := models.StatusRoleIntake
			paid := models.StatusRolePaid
			db.Model(&models.ServiceStatus{}).Where("id = ?", fx.IntakeStatus.ID).
				Updates(map[string]interface{}{"workflow_role": intake, "name": "Iniciado"})
			db.Model(&models.ServiceStatus{}).Where("id = ?", fx.PaidStatus.ID).
				Updates(map[string]interface{}{"workflow_role": paid, "name": "Pagado"})
		})

		service, err := CreateService(db, baseInput(), fx.UserA.ID)
		assert.NoError(t, err)
		assert.Nil(t, service.CurrentStatusID)
		assert.Empty(t, service.History)
	})
}

func TestServiceQueriesAndLifecycle(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	pinClock(t, time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC))

	input := CreateServiceInput{
		ClientID:        fx.Client.ID,
		DocumentTypeID:  fx.DocType.ID,
		ProcedureTypeID: fx.ProcType.ID,
		BranchID:        fx.Branch.ID,
		TotalAmount:     decimal.RequireFromString("200.00"),
		Priority:        models.ServicePriorityHigh,
		Observations:    "urgente para cliente frecuente",
	}
	service, err := CreateService(db, input, fx.UserA.ID)
	assert.NoError(t, err)

	t.Run("Filter By Priority", func(t *testing.T) {
		items, total, err := GetServices(db, ServiceFilters{Priority: models.ServicePriorityHigh}, 1, 10)
		assert.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Len(t, items, 1)

		_, total, err = GetServices(db, ServiceFilters{Priority: models.ServicePriorityLow}, 1, 10)
		assert.NoError(t, err)
		assert.EqualValues(t, 0, total)
	})

	t.Run("Filter By Responsible", func(t *testing.T) {
		_, total, err := GetServices(db, ServiceFilters{ResponsibleID: fx.UserA.ID}, 1, 10)
		assert.NoError(t, err)
		assert.EqualValues(t, 1, total)

		_, total, err = GetServices(db, ServiceFilters{ResponsibleID: fx.UserB.ID}, 1, 10)
		assert.NoError(t, err)
		assert.EqualValues(t, 0, total)
	})

	t.Run("Keyword Matches Ticket Code", func(t *testing.T) {
		_, total, err := GetServices(db, ServiceFilters{Keyword: service.TicketCode}, 1, 10)
		assert.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})

	t.Run("Ordering Override", func(t *testing.T) {
		second, err := CreateService(db, CreateServiceInput{
			ClientID:        fx.Client.ID,
			DocumentTypeID:  fx.DocType.ID,
			ProcedureTypeID: fx.ProcType.ID,
			BranchID:        fx.Branch.ID,
			TotalAmount:     decimal.RequireFromString("50.00"),
		}, fx.UserA.ID)
		assert.NoError(t, err)

		items, _, err := GetServices(db, ServiceFilters{
			Order: Ordering{Field: "ticket_code"},
		}, 1, 10)
		assert.NoError(t, err)
		assert.Equal(t, service.ID, items[0].ID)

		items, _, err = GetServices(db, ServiceFilters{
			Order: Ordering{Field: "ticket_code", Desc: true},
		}, 1, 10)
		assert.NoError(t, err)
		assert.Equal(t, second.ID, items[0].ID)
	})

	t.Run("Unknown Order Field Rejected", func(t *testing.T) {
		_, _, err := GetServices(db, ServiceFilters{
			Order: Ordering{Field: "observations"},
		}, 1, 10)
		ve, ok := IsValidationError(err)
		assert.True(t, ok)
		assert.Contains(t, ve.Fields, "order_by")
	})

	t.Run("Status Update Appends History", func(t *testing.T) {
		err := UpdateServiceStatus(db, nil, service.ID, fx.PaidStatus.ID, fx.UserA.ID, "pago verificado")
		assert.NoError(t, err)

		entries, err := GetStateHistory(db, service.ID)
		assert.NoError(t, err)
		assert.Len(t, entries, 2)
		assert.Equal(t, "pago verificado", entries[1].Comment)

		updated, _ := GetServiceByID(db, service.ID)
		assert.Equal(t, fx.PaidStatus.ID, *updated.CurrentStatusID)
	})

	t.Run("Administrative Edit", func(t *testing.T) {
		days := 10
		obs := "plazo ampliado"
		err := UpdateServiceDetails(db, service.ID, fx.UserB.ID, models.ServicePriorityUrgent, &days, nil, &obs)
		assert.NoError(t, err)

		updated, _ := GetServiceByID(db, service.ID)
		assert.Equal(t, models.ServicePriorityUrgent, updated.Priority)
		assert.Equal(t, 10, updated.DueDays)
		assert.Equal(t, "plazo ampliado", updated.Observations)
		assert.Equal(t, fx.UserB.ID, *updated.LastUpdatedByID)
	})

	t.Run("Delete Blocked By Referrals", func(t *testing.T) {
		_, err := CreateDerivacion(db, nil, CreateDerivacionInput{
			ServiceID: service.ID,
			ToUserID:  fx.UserB.ID,
			Reason:    "revisión",
		}, fx.UserA.ID)
		assert.NoError(t, err)

		err = DeleteService(db, service.ID)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("Delete Allowed Without Ledger Rows", func(t *testing.T) {
		fresh, err := CreateService(db, CreateServiceInput{
			ClientID:        fx.Client.ID,
			DocumentTypeID:  fx.DocType.ID,
			ProcedureTypeID: fx.ProcType.ID,
			BranchID:        fx.Branch.ID,
			TotalAmount:     decimal.Zero,
		}, fx.UserA.ID)
		assert.NoError(t, err)

		assert.NoError(t, DeleteService(db, fresh.ID))
		_, err = GetServiceByID(db, fresh.ID)
		assert.ErrorIs(t, err, ErrServiceNotFound)
	})

	t.Run("Delete Missing Service", func(t *testing.T) {
		assert.ErrorIs(t, DeleteService(db, "nope"), ErrServiceNotFound)
	})
}

// Concurrent creations share one WAL-mode file database; the creation
// transaction must retry through counter contention so every service
// ends up with its own ticket code.
func TestCreateServiceConcurrent(t *testing.T) {
	db := setupFileTestDB(t)
	fx := seedFixture(t, db)
	pinClock(t, time.Date(2026, time.January, 20, 9, 0, 0, 0, time.UTC))

	const n = 10
	codes := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			service, err := CreateService(db, CreateServiceInput{
				ClientID:        fx.Client.ID,
				DocumentTypeID:  fx.DocType.ID,
				ProcedureTypeID: fx.ProcType.ID,
				BranchID:        fx.Branch.ID,
				TotalAmount:     decimal.RequireFromString("100.00"),
			}, fx.UserA.ID)
			assert.NoError(t, err)
			if err == nil {
				codes <- service.TicketCode
			}
		}()
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]bool)
	for code := range codes {
		assert.False(t, seen[code], "duplicate ticket code %s", code)
		seen[code] = true
	}
	assert.Len(t, seen, n)

	var counter models.TicketSequenceCounter
	assert.NoError(t, db.First(&counter, "branch_id = ?", fx.Branch.ID).Error)
	assert.Equal(t, n, counter.LastNumber)
}
