package handlers

import (
	"fmt"
	"net/http"
	"time"

	"notary_flow_go/db"
	"notary_flow_go/middleware"
	"notary_flow_go/services"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// ApplyPaymentRequest is the JSON body for registering income
type ApplyPaymentRequest struct {
	ServiceID     string `json:"service_id"`
	Amount        string `json:"amount"`
	Method        string `json:"method"`
	AccountID     string `json:"account_id"`
	ReceiptType   string `json:"receipt_type"`
	ReceiptNumber string `json:"receipt_number"`
	Concept       string `json:"concept"`
}

// ApplyPaymentHandler registers a payment, decrementing the service
// balance when one is referenced
func ApplyPaymentHandler(c echo.Context) error {
	actor := middleware.GetActingUser(c)

	var req ApplyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return writeServiceError(c, services.NewValidationError("amount", "invalid decimal amount"))
	}

	entry, err := services.ApplyPayment(db.DB, Notifier, services.ApplyPaymentInput{
		ServiceID:     req.ServiceID,
		Amount:        amount,
		Method:        req.Method,
		AccountID:     req.AccountID,
		ReceiptType:   req.ReceiptType,
		ReceiptNumber: req.ReceiptNumber,
		Concept:       req.Concept,
	}, actor.ID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, entry)
}

// RegisterEgressRequest is the JSON body for an outgoing movement
type RegisterEgressRequest struct {
	Amount    string `json:"amount"`
	Method    string `json:"method"`
	AccountID string `json:"account_id"`
	Concept   string `json:"concept"`
}

// RegisterEgressHandler records an expense for the daily close
func RegisterEgressHandler(c echo.Context) error {
	actor := middleware.GetActingUser(c)

	var req RegisterEgressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return writeServiceError(c, services.NewValidationError("amount", "invalid decimal amount"))
	}

	entry, err := services.RegisterEgress(db.DB, amount, req.Method, req.AccountID, req.Concept, actor.ID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, entry)
}

// GetServicePaymentsHandler lists payments applied to one service
func GetServicePaymentsHandler(c echo.Context) error {
	if _, err := services.GetServiceByID(db.DB, c.Param("id")); err != nil {
		return writeServiceError(c, err)
	}
	entries, err := services.GetPaymentsByService(db.DB, c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

func parseDatePathParam(c echo.Context) (time.Time, error) {
	return time.Parse("2006-01-02", c.Param("date"))
}

// CloseDayHandler closes one calendar date
func CloseDayHandler(c echo.Context) error {
	actor := middleware.GetActingUser(c)

	date, err := parseDatePathParam(c)
	if err != nil {
		return writeServiceError(c, services.NewValidationError("date", "expected YYYY-MM-DD"))
	}

	dayClose, err := services.CloseDay(db.DB, date, actor.ID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dayClose)
}

// GetDailyCashCloseHandler returns the close for one date
func GetDailyCashCloseHandler(c echo.Context) error {
	date, err := parseDatePathParam(c)
	if err != nil {
		return writeServiceError(c, services.NewValidationError("date", "expected YYYY-MM-DD"))
	}

	dayClose, err := services.GetDailyCashClose(db.DB, date)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dayClose)
}

// ExportDailyCashCloseHandler downloads the close as a spreadsheet
func ExportDailyCashCloseHandler(c echo.Context) error {
	date, err := parseDatePathParam(c)
	if err != nil {
		return writeServiceError(c, services.NewValidationError("date", "expected YYYY-MM-DD"))
	}

	buf, err := services.ExportDailyCashCloseXLSX(db.DB, date)
	if err != nil {
		return writeServiceError(c, err)
	}

	filename := fmt.Sprintf("arqueo-%s.xlsx", date.Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}
