package handlers

import (
	"net/http"
	"time"

	"notary_flow_go/db"
	"notary_flow_go/middleware"
	"notary_flow_go/services"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// CreateServiceRequest is the JSON body for service creation
type CreateServiceRequest struct {
	ClientID        string  `json:"client_id"`
	DocumentTypeID  string  `json:"document_type_id"`
	ProcedureTypeID string  `json:"procedure_type_id"`
	BranchID        string  `json:"branch_id"`
	TotalAmount     string  `json:"total_amount"`
	InitialStatusID string  `json:"initial_status_id"`
	EstimatedDueAt  *string `json:"estimated_due_at"`
	DueDays         int     `json:"due_days"`
	Priority        string  `json:"priority"`
	Observations    string  `json:"observations"`
}

// CreateServiceHandler opens a new notarial service
func CreateServiceHandler(c echo.Context) error {
	actor := middleware.GetActingUser(c)

	var req CreateServiceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	amount, err := decimal.NewFromString(req.TotalAmount)
	if err != nil {
		return writeServiceError(c, services.NewValidationError("total_amount", "invalid decimal amount"))
	}

	input := services.CreateServiceInput{
		ClientID:        req.ClientID,
		DocumentTypeID:  req.DocumentTypeID,
		ProcedureTypeID: req.ProcedureTypeID,
		BranchID:        req.BranchID,
		TotalAmount:     amount,
		InitialStatusID: req.InitialStatusID,
		DueDays:         req.DueDays,
		Priority:        req.Priority,
		Observations:    req.Observations,
	}
	if req.EstimatedDueAt != nil {
		t, err := time.Parse("2006-01-02", *req.EstimatedDueAt)
		if err != nil {
			return writeServiceError(c, services.NewValidationError("estimated_due_at", "expected YYYY-MM-DD"))
		}
		input.EstimatedDueAt = &t
	}

	service, err := services.CreateService(db.DB, input, actor.ID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, service)
}

// GetServiceHandler returns one service with its relationships
func GetServiceHandler(c echo.Context) error {
	service, err := services.GetServiceByID(db.DB, c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, service)
}

// GetServicesHandler lists services with filters, ordering, and pagination
func GetServicesHandler(c echo.Context) error {
	dateFrom, err := parseDateParam(c, "date_from")
	if err != nil {
		return writeServiceError(c, err)
	}
	dateTo, err := parseDateParam(c, "date_to")
	if err != nil {
		return writeServiceError(c, err)
	}

	filters := services.ServiceFilters{
		BranchID:      c.QueryParam("branch_id"),
		ClientID:      c.QueryParam("client_id"),
		StatusID:      c.QueryParam("status_id"),
		ResponsibleID: c.QueryParam("responsible_id"),
		Priority:      c.QueryParam("priority"),
		OnlyActive:    c.QueryParam("only_active") == "true",
		Keyword:       c.QueryParam("keyword"),
		DateFrom:      dateFrom,
		DateTo:        dateTo,
		Order:         parseOrdering(c),
	}

	page, limit := parsePagination(c)
	items, total, err := services.GetServices(db.DB, filters, page, limit)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, ListResponse{Items: items, Total: total, Page: page, Size: limit})
}

// UpdateServiceStatusRequest is the JSON body for a status transition
type UpdateServiceStatusRequest struct {
	StatusID string `json:"status_id"`
	Comment  string `json:"comment"`
}

// UpdateServiceStatusHandler moves a service to a new status
func UpdateServiceStatusHandler(c echo.Context) error {
	actor := middleware.GetActingUser(c)

	var req UpdateServiceStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := services.UpdateServiceStatus(db.DB, Notifier, c.Param("id"), req.StatusID, actor.ID, req.Comment); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "status updated"})
}

// UpdateServiceDetailsRequest is the JSON body for administrative edits
type UpdateServiceDetailsRequest struct {
	Priority       string  `json:"priority"`
	DueDays        *int    `json:"due_days"`
	EstimatedDueAt *string `json:"estimated_due_at"`
	Observations   *string `json:"observations"`
}

// UpdateServiceDetailsHandler applies administrative edits to a service
func UpdateServiceDetailsHandler(c echo.Context) error {
	actor := middleware.GetActingUser(c)

	var req UpdateServiceDetailsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	var dueAt *time.Time
	if req.EstimatedDueAt != nil {
		t, err := time.Parse("2006-01-02", *req.EstimatedDueAt)
		if err != nil {
			return writeServiceError(c, services.NewValidationError("estimated_due_at", "expected YYYY-MM-DD"))
		}
		dueAt = &t
	}

	err := services.UpdateServiceDetails(db.DB, c.Param("id"), actor.ID, req.Priority, req.DueDays, dueAt, req.Observations)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "service updated"})
}

// DeleteServiceHandler soft-deletes a service without ledger rows
func DeleteServiceHandler(c echo.Context) error {
	if err := services.DeleteService(db.DB, c.Param("id")); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "service deleted"})
}

// GetServiceHistoryHandler returns the status transition ledger
func GetServiceHistoryHandler(c echo.Context) error {
	if _, err := services.GetServiceByID(db.DB, c.Param("id")); err != nil {
		return writeServiceError(c, err)
	}
	entries, err := services.GetStateHistory(db.DB, c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}
