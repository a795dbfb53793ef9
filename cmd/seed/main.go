package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"notary_flow_go/config"
	"notary_flow_go/db"
	"notary_flow_go/models"
)

// Seeds a branch with its default workflow statuses plus a first staff
// user, so a fresh install can open services immediately.
func main() {
	cfg := config.Load()

	if err := db.Initialize(cfg.DBPath, cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(
		&models.Branch{},
		&models.DocumentType{},
		&models.ProcedureType{},
		&models.ServiceStatus{},
		&models.User{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Seed Branch & First User ===")
	fmt.Println()

	fmt.Print("Branch name: ")
	branchName, _ := reader.ReadString('\n')
	branchName = strings.TrimSpace(branchName)

	fmt.Print("Branch abbreviation (used in ticket codes, e.g. SC): ")
	abbrev, _ := reader.ReadString('\n')
	abbrev = strings.ToUpper(strings.TrimSpace(abbrev))

	fmt.Print("User first name: ")
	firstName, _ := reader.ReadString('\n')
	firstName = strings.TrimSpace(firstName)

	fmt.Print("User last name: ")
	lastName, _ := reader.ReadString('\n')
	lastName = strings.TrimSpace(lastName)

	fmt.Print("User email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	if branchName == "" || abbrev == "" || email == "" {
		log.Fatal("Branch name, abbreviation, and user email are required")
	}

	branch := models.Branch{Name: branchName, Abbreviation: abbrev, IsActive: true}
	if err := db.DB.Create(&branch).Error; err != nil {
		log.Fatalf("Failed to create branch: %v", err)
	}

	intake := models.StatusRoleIntake
	paid := models.StatusRolePaid
	terminal := models.StatusRoleTerminal
	statuses := []models.ServiceStatus{
		{Name: "Iniciado", WorkflowRole: &intake, SortOrder: 1, IsActive: true},
		{Name: "En Proceso", SortOrder: 2, IsActive: true},
		{Name: "Pagado", WorkflowRole: &paid, SortOrder: 3, IsActive: true},
		{Name: "Entregado", WorkflowRole: &terminal, SortOrder: 4, IsActive: true},
	}
	for i := range statuses {
		if err := db.DB.Create(&statuses[i]).Error; err != nil {
			log.Fatalf("Failed to create status %s: %v", statuses[i].Name, err)
		}
	}

	user := models.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		BranchID:  &branch.ID,
		IsActive:  true,
	}
	if err := db.DB.Create(&user).Error; err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Println()
	fmt.Printf("Branch %s (%s) created with %d statuses.\n", branch.Name, branch.Abbreviation, len(statuses))
	fmt.Printf("User %s <%s> created with id %s\n", user.FullName(), user.Email, user.ID)
}
