package main

import (
	"log"

	"notary_flow_go/config"
	"notary_flow_go/db"
	"notary_flow_go/handlers"
	"notary_flow_go/middleware"
	"notary_flow_go/models"
	"notary_flow_go/services"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(cfg.DBPath, cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
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
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Notification sink: persisted rows plus fire-and-forget email
	handlers.Notifier = services.NewNotifier(db.DB, services.NewEmailSender(cfg))

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Printf("%d %s %s", v.Status, c.Request().Method, v.URI)
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
	}))

	// All routes require a resolved acting user
	api := e.Group("/api", middleware.RequireActor())

	// Services
	api.POST("/services", handlers.CreateServiceHandler)
	api.GET("/services", handlers.GetServicesHandler)
	api.GET("/services/:id", handlers.GetServiceHandler)
	api.PUT("/services/:id", handlers.UpdateServiceDetailsHandler)
	api.PUT("/services/:id/status", handlers.UpdateServiceStatusHandler)
	api.DELETE("/services/:id", handlers.DeleteServiceHandler)
	api.GET("/services/:id/history", handlers.GetServiceHistoryHandler)
	api.GET("/services/:id/derivaciones", handlers.GetServiceDerivacionesHandler)
	api.GET("/services/:id/payments", handlers.GetServicePaymentsHandler)

	// Responsible parties
	api.POST("/services/:id/responsibles", handlers.AssignResponsibleHandler)
	api.DELETE("/services/:id/responsibles", handlers.ReleaseResponsibleHandler)
	api.GET("/services/:id/responsibles", handlers.GetActiveResponsiblesHandler)

	// Derivaciones
	api.POST("/derivaciones", handlers.CreateDerivacionHandler)
	api.GET("/derivaciones/pending", handlers.GetPendingDerivacionesHandler)
	api.GET("/derivaciones/sent", handlers.GetSentDerivacionesHandler)
	api.PUT("/derivaciones/:id/accept", handlers.AcceptDerivacionHandler)
	api.PUT("/derivaciones/:id/cancel", handlers.CancelDerivacionHandler)
	api.PUT("/derivaciones/:id/view", handlers.MarkDerivacionViewedHandler)

	// Payments and daily close
	api.POST("/payments", handlers.ApplyPaymentHandler)
	api.POST("/egresses", handlers.RegisterEgressHandler)
	api.POST("/cash-close/:date", handlers.CloseDayHandler)
	api.GET("/cash-close/:date", handlers.GetDailyCashCloseHandler)
	api.GET("/cash-close/:date/export", handlers.ExportDailyCashCloseHandler)

	// Notifications
	api.GET("/notifications", handlers.GetNotificationsHandler)
	api.PUT("/notifications/:id/read", handlers.MarkNotificationReadHandler)

	log.Printf("Starting server on port %s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
