package services

import (
	"testing"
	"time"

	"notary_flow_go/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func createTestService(t *testing.T, db *gorm.DB, fx fixture, creatorID string) *models.Service {
	t.Helper()
	service, err := CreateService(db, CreateServiceInput{
		ClientID:        fx.Client.ID,
		DocumentTypeID:  fx.DocType.ID,
		ProcedureTypeID: fx.ProcType.ID,
		BranchID:        fx.Branch.ID,
		TotalAmount:     decimal.RequireFromString("100.00"),
	}, creatorID)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service
}

func TestCreateDerivacion(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	service := createTestService(t, db, fx, fx.UserA.ID)

	t.Run("Only A Responsible May Refer", func(t *testing.T) {
		_, err := CreateDerivacion(db, nil, CreateDerivacionInput{
			ServiceID: service.ID,
			ToUserID:  fx.UserA.ID,
			Reason:    "toma este caso",
		}, fx.UserB.ID)
		assert.ErrorIs(t, err, ErrNotResponsible)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("No Self Referral", func(t *testing.T) {
		_, err := CreateDerivacion(db, nil, CreateDerivacionInput{
			ServiceID: service.ID,
			ToUserID:  fx.UserA.ID,
			Reason:    "yo mismo",
		}, fx.UserA.ID)
		ve, ok := IsValidationError(err)
		assert.True(t, ok)
		assert.Contains(t, ve.Fields, "to_user_id")
	})

	t.Run("Inactive Target Rejected", func(t *testing.T) {
		db.Model(&models.User{}).Where("id = ?", fx.UserB.ID).Update("is_active", false)
		_, err := CreateDerivacion(db, nil, CreateDerivacionInput{
			ServiceID: service.ID,
			ToUserID:  fx.UserB.ID,
			Reason:    "revisión",
		}, fx.UserA.ID)
		_, ok := IsValidationError(err)
		assert.True(t, ok)
		db.Model(&models.User{}).Where("id = ?", fx.UserB.ID).Update("is_active", true)
	})

	t.Run("Successful Hand-Off Proposal", func(t *testing.T) {
		d, err := CreateDerivacion(db, nil, CreateDerivacionInput{
			ServiceID: service.ID,
			ToUserID:  fx.UserB.ID,
			Priority:  models.ServicePriorityHigh,
			Reason:    "especialista en compraventas",
			Comment:   "cliente espera esta semana",
		}, fx.UserA.ID)
		assert.NoError(t, err)
		assert.Equal(t, fx.UserA.ID, *d.FromUserID)
		assert.Equal(t, fx.UserB.ID, d.ToUserID)
		assert.True(t, d.IsPending())
		assert.False(t, d.Viewed)
	})

	t.Run("Inactive Service Rejected", func(t *testing.T) {
		db.Model(&models.Service{}).Where("id = ?", service.ID).Update("is_active", false)
		_, err := CreateDerivacion(db, nil, CreateDerivacionInput{
			ServiceID: service.ID,
			ToUserID:  fx.UserB.ID,
			Reason:    "tarde",
		}, fx.UserA.ID)
		assert.ErrorIs(t, err, ErrServiceInactive)
		db.Model(&models.Service{}).Where("id = ?", service.ID).Update("is_active", true)
	})
}

func TestDerivacionStateMachine(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	service := createTestService(t, db, fx, fx.UserA.ID)

	newReferral := func(t *testing.T) *models.Derivacion {
		d, err := CreateDerivacion(db, nil, CreateDerivacionInput{
			ServiceID: service.ID,
			ToUserID:  fx.UserB.ID,
			Reason:    "derivación de prueba",
		}, fx.UserA.ID)
		assert.NoError(t, err)
		return d
	}

	t.Run("Accept By Addressee", func(t *testing.T) {
		d := newReferral(t)
		accepted, err := AcceptDerivacion(db, nil, d.ID, fx.UserB.ID)
		assert.NoError(t, err)
		assert.True(t, accepted.Accepted)
		assert.NotNil(t, accepted.AcceptedAt)

		// Prior owner keeps the case until explicitly released
		owners, _ := GetActiveResponsibles(db, service.ID)
		assert.Len(t, owners, 1)
		assert.Equal(t, fx.UserA.ID, owners[0].UserID)
	})

	t.Run("Only Addressee May Accept", func(t *testing.T) {
		d := newReferral(t)
		_, err := AcceptDerivacion(db, nil, d.ID, fx.UserA.ID)
		assert.ErrorIs(t, err, ErrNotAddressee)
	})

	t.Run("Accepted Cannot Be Cancelled", func(t *testing.T) {
		d := newReferral(t)
		_, err := AcceptDerivacion(db, nil, d.ID, fx.UserB.ID)
		assert.NoError(t, err)

		_, err = CancelDerivacion(db, nil, d.ID, fx.UserB.ID, "cambié de opinión")
		assert.ErrorIs(t, err, ErrDerivacionAlreadyAccepted)

		reloaded, _ := GetDerivacionByID(db, d.ID)
		assert.True(t, reloaded.Accepted)
		assert.False(t, reloaded.IsCancelled())
	})

	t.Run("Cancelled Cannot Be Accepted", func(t *testing.T) {
		d := newReferral(t)
		cancelled, err := CancelDerivacion(db, nil, d.ID, fx.UserB.ID, "busy")
		assert.NoError(t, err)
		assert.True(t, cancelled.IsCancelled())
		assert.Equal(t, "busy", cancelled.CancellationReason)
		assert.Equal(t, fx.UserB.ID, *cancelled.CancelledByUserID)

		_, err = AcceptDerivacion(db, nil, d.ID, fx.UserB.ID)
		assert.ErrorIs(t, err, ErrDerivacionAlreadyCancelled)

		reloaded, _ := GetDerivacionByID(db, d.ID)
		assert.False(t, reloaded.Accepted)
		assert.True(t, reloaded.IsCancelled())
	})

	t.Run("Sender May Retract", func(t *testing.T) {
		d := newReferral(t)
		_, err := CancelDerivacion(db, nil, d.ID, fx.UserA.ID, "enviada por error")
		assert.NoError(t, err)
	})

	t.Run("Stranger May Not Cancel", func(t *testing.T) {
		d := newReferral(t)
		stranger := models.User{FirstName: "Carla", LastName: "Muñoz", Email: "carla@notaria.test", IsActive: true}
		db.Create(&stranger)
		_, err := CancelDerivacion(db, nil, d.ID, stranger.ID, "no es mi caso")
		assert.ErrorIs(t, err, ErrNotSenderNorAddressee)
	})

	t.Run("Cancel Requires Reason", func(t *testing.T) {
		d := newReferral(t)
		_, err := CancelDerivacion(db, nil, d.ID, fx.UserB.ID, "")
		ve, ok := IsValidationError(err)
		assert.True(t, ok)
		assert.Contains(t, ve.Fields, "reason")
	})

	t.Run("Double Accept Reports Conflict", func(t *testing.T) {
		d := newReferral(t)
		_, err := AcceptDerivacion(db, nil, d.ID, fx.UserB.ID)
		assert.NoError(t, err)
		_, err = AcceptDerivacion(db, nil, d.ID, fx.UserB.ID)
		assert.ErrorIs(t, err, ErrDerivacionAlreadyAccepted)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("Mark Viewed Is Idempotent", func(t *testing.T) {
		d := newReferral(t)
		first, err := MarkDerivacionViewed(db, d.ID, fx.UserB.ID)
		assert.NoError(t, err)
		assert.True(t, first.Viewed)
		firstAt := *first.ViewedAt

		time.Sleep(5 * time.Millisecond)
		second, err := MarkDerivacionViewed(db, d.ID, fx.UserB.ID)
		assert.NoError(t, err)
		assert.True(t, second.ViewedAt.Equal(firstAt))
	})

	t.Run("Viewed Overlay Works On Terminal States", func(t *testing.T) {
		d := newReferral(t)
		_, err := CancelDerivacion(db, nil, d.ID, fx.UserB.ID, "ocupado")
		assert.NoError(t, err)
		viewed, err := MarkDerivacionViewed(db, d.ID, fx.UserB.ID)
		assert.NoError(t, err)
		assert.True(t, viewed.Viewed)
	})
}

func TestDerivacionQueries(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	service := createTestService(t, db, fx, fx.UserA.ID)

	d1, _ := CreateDerivacion(db, nil, CreateDerivacionInput{
		ServiceID: service.ID, ToUserID: fx.UserB.ID, Reason: "primera",
	}, fx.UserA.ID)
	d2, _ := CreateDerivacion(db, nil, CreateDerivacionInput{
		ServiceID: service.ID, ToUserID: fx.UserB.ID, Reason: "segunda",
	}, fx.UserA.ID)
	_, err := AcceptDerivacion(db, nil, d1.ID, fx.UserB.ID)
	assert.NoError(t, err)

	t.Run("Pending For User Excludes Terminal", func(t *testing.T) {
		items, total, err := GetPendingDerivacionesForUser(db, fx.UserB.ID, DerivacionFilters{}, 1, 10)
		assert.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, d2.ID, items[0].ID)
	})

	t.Run("Sent By User", func(t *testing.T) {
		_, total, err := GetDerivacionesSentByUser(db, fx.UserA.ID, DerivacionFilters{}, 1, 10)
		assert.NoError(t, err)
		assert.EqualValues(t, 2, total)
	})

	t.Run("Service History Includes Initial Referral", func(t *testing.T) {
		items, err := GetDerivacionesByService(db, service.ID)
		assert.NoError(t, err)
		assert.Len(t, items, 3)
		assert.True(t, items[0].IsInitial())
	})

	t.Run("Pagination Envelope", func(t *testing.T) {
		items, total, err := GetDerivacionesSentByUser(db, fx.UserA.ID, DerivacionFilters{}, 1, 1)
		assert.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, items, 1)
	})

	t.Run("Ordering Override", func(t *testing.T) {
		d3, err := CreateDerivacion(db, nil, CreateDerivacionInput{
			ServiceID: service.ID,
			ToUserID:  fx.UserB.ID,
			Priority:  models.ServicePriorityUrgent,
			Reason:    "tercera",
		}, fx.UserA.ID)
		assert.NoError(t, err)

		items, _, err := GetDerivacionesSentByUser(db, fx.UserA.ID, DerivacionFilters{
			Order: Ordering{Field: "priority", Desc: true},
		}, 1, 10)
		assert.NoError(t, err)
		assert.Equal(t, d3.ID, items[0].ID)
	})

	t.Run("Unknown Order Field Rejected", func(t *testing.T) {
		_, _, err := GetPendingDerivacionesForUser(db, fx.UserB.ID, DerivacionFilters{
			Order: Ordering{Field: "reason"},
		}, 1, 10)
		ve, ok := IsValidationError(err)
		assert.True(t, ok)
		assert.Contains(t, ve.Fields, "order_by")
	})
}
