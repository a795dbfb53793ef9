package services

import (
	"path/filepath"
	"testing"

	"notary_flow_go/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	return openTestDB(t, ":memory:")
}

// setupFileTestDB backs the database with a WAL-mode file so multiple
// connections (concurrent writers, async notification delivery) see the
// same data. An in-memory DSN gives every pooled connection its own
// empty database.
func setupFileTestDB(t *testing.T) *gorm.DB {
	path := filepath.Join(t.TempDir(), "notaria.db")
	return openTestDB(t, path+"?_journal_mode=WAL&_busy_timeout=10000")
}

func openTestDB(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Branch{},
		&models.DocumentType{},
		&models.ProcedureType{},
		&models.ServiceStatus{},
		&models.BankAccount{},
		&models.Client{},
		&models.User{},
		&models.Service{},
		&models.StateHistoryEntry{},
		&models.Derivacion{},
		&models.ResponsibleAssignment{},
		&models.TicketSequenceCounter{},
		&models.PaymentLedgerEntry{},
		&models.EgressLedgerEntry{},
		&models.DailyCashClose{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

// fixture is the minimal catalog a service creation needs
type fixture struct {
	Branch       models.Branch
	OtherBranch  models.Branch
	DocType      models.DocumentType
	ProcType     models.ProcedureType
	IntakeStatus models.ServiceStatus
	PaidStatus   models.ServiceStatus
	Client       models.Client
	UserA        models.User
	UserB        models.User
	Account      models.BankAccount
}

func seedFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	fx := fixture{}

	fx.Branch = models.Branch{Name: "Sucursal Centro", Abbreviation: "SC", IsActive: true}
	fx.OtherBranch = models.Branch{Name: "Sucursal Norte", Abbreviation: "SN", IsActive: true}
	db.Create(&fx.Branch)
	db.Create(&fx.OtherBranch)

	fx.DocType = models.DocumentType{Name: "Escritura Pública", Code: "EP", IsActive: true}
	db.Create(&fx.DocType)

	fx.ProcType = models.ProcedureType{Name: "Compraventa", BranchID: fx.Branch.ID, DueDays: 5, IsActive: true}
	db.Create(&fx.ProcType)

	intake := models.StatusRoleIntake
	paid := models.StatusRolePaid
	fx.IntakeStatus = models.ServiceStatus{Name: "Iniciado", WorkflowRole: &intake, SortOrder: 1, IsActive: true}
	fx.PaidStatus = models.ServiceStatus{Name: "Pagado", WorkflowRole: &paid, SortOrder: 3, IsActive: true}
	db.Create(&fx.IntakeStatus)
	db.Create(&fx.PaidStatus)

	fx.Client = models.Client{FullName: "María Pérez", IdentityNumber: "12345678", IsActive: true}
	db.Create(&fx.Client)

	fx.UserA = models.User{FirstName: "Ana", LastName: "García", Email: "ana@notaria.test", IsActive: true}
	fx.UserB = models.User{FirstName: "Bruno", LastName: "López", Email: "bruno@notaria.test", IsActive: true}
	db.Create(&fx.UserA)
	db.Create(&fx.UserB)

	fx.Account = models.BankAccount{BankName: "Banco Unión", AccountNumber: "100200300", IsActive: true}
	db.Create(&fx.Account)

	return fx
}
