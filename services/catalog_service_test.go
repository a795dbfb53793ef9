package services

import (
	"testing"

	"notary_flow_go/models"

	"github.com/stretchr/testify/assert"
)

func TestStatusResolution(t *testing.T) {
	db := setupTestDB(t)

	t.Run("Role Tag Wins Over Names", func(t *testing.T) {
		intake := models.StatusRoleIntake
		tagged := models.ServiceStatus{Name: "Recepción", WorkflowRole: &intake, SortOrder: 5, IsActive: true}
		byName := models.ServiceStatus{Name: "Iniciado", SortOrder: 1, IsActive: true}
		db.Create(&tagged)
		db.Create(&byName)

		status, err := ResolveStatusByRole(db, models.StatusRoleIntake, IntakeStatusNames)
		assert.NoError(t, err)
		assert.Equal(t, tagged.ID, status.ID)

		db.Unscoped().Delete(&tagged)
		db.Unscoped().Delete(&byName)
	})

	t.Run("Heuristic Fallback Honors Candidate Order", func(t *testing.T) {
		// "Pagado" must beat "En Proceso" even with a worse sort order
		enProceso := models.ServiceStatus{Name: "En Proceso", SortOrder: 1, IsActive: true}
		pagado := models.ServiceStatus{Name: "Pagado", SortOrder: 9, IsActive: true}
		db.Create(&enProceso)
		db.Create(&pagado)

		status, err := ResolveStatusByRole(db, models.StatusRolePaid, PaidStatusNames)
		assert.NoError(t, err)
		assert.Equal(t, pagado.ID, status.ID)

		db.Unscoped().Delete(&pagado)
		status, err = ResolveStatusByRole(db, models.StatusRolePaid, PaidStatusNames)
		assert.NoError(t, err)
		assert.Equal(t, enProceso.ID, status.ID)

		db.Unscoped().Delete(&enProceso)
	})

	t.Run("Sort Order Breaks Name Ties", func(t *testing.T) {
		second := models.ServiceStatus{Name: "Iniciado", SortOrder: 2, IsActive: true}
		first := models.ServiceStatus{Name: "Iniciado", SortOrder: 1, IsActive: true}
		db.Create(&second)
		db.Create(&first)

		status, err := FindStatusByNameHeuristic(db, IntakeStatusNames)
		assert.NoError(t, err)
		assert.Equal(t, first.ID, status.ID)

		db.Unscoped().Delete(&first)
		db.Unscoped().Delete(&second)
	})

	t.Run("Inactive Statuses Ignored", func(t *testing.T) {
		inactive := models.ServiceStatus{Name: "Iniciado", SortOrder: 1, IsActive: false}
		db.Create(&inactive)

		_, err := ResolveStatusByRole(db, models.StatusRoleIntake, IntakeStatusNames)
		assert.ErrorIs(t, err, ErrStatusNotFound)

		db.Unscoped().Delete(&inactive)
	})

	t.Run("Nothing Matches", func(t *testing.T) {
		_, err := ResolveStatusByRole(db, models.StatusRolePaid, PaidStatusNames)
		assert.ErrorIs(t, err, ErrStatusNotFound)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCatalogLookups(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)

	t.Run("Existing Rows Resolve", func(t *testing.T) {
		branch, err := GetBranch(db, fx.Branch.ID)
		assert.NoError(t, err)
		assert.Equal(t, "SC", branch.Abbreviation)

		pt, err := GetProcedureType(db, fx.ProcType.ID)
		assert.NoError(t, err)
		assert.Equal(t, fx.Branch.ID, pt.BranchID)
	})

	t.Run("Missing Rows Report Kind", func(t *testing.T) {
		_, err := GetBranch(db, "nope")
		assert.ErrorIs(t, err, ErrBranchNotFound)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = GetUser(db, "nope")
		assert.ErrorIs(t, err, ErrUserNotFound)

		_, err = GetBankAccount(db, "nope")
		assert.ErrorIs(t, err, ErrBankAccountNotFound)
	})
}
