package handlers

import (
	"errors"
	"net/http"

	"notary_flow_go/db"
	"notary_flow_go/middleware"
	"notary_flow_go/services"

	"github.com/labstack/echo/v4"
)

// Notifier is shared by the handlers that emit notifications; wired at
// startup.
var Notifier *services.Notifier

// CreateDerivacionRequest is the JSON body for a hand-off proposal
type CreateDerivacionRequest struct {
	ServiceID string `json:"service_id"`
	ToUserID  string `json:"to_user_id"`
	Priority  string `json:"priority"`
	Reason    string `json:"reason"`
	Comment   string `json:"comment"`
}

// CreateDerivacionHandler proposes a hand-off to another staff member
func CreateDerivacionHandler(c echo.Context) error {
	actor := middleware.GetActingUser(c)

	var req CreateDerivacionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	derivacion, err := services.CreateDerivacion(db.DB, Notifier, services.CreateDerivacionInput{
		ServiceID: req.ServiceID,
		ToUserID:  req.ToUserID,
		Priority:  req.Priority,
		Reason:    req.Reason,
		Comment:   req.Comment,
	}, actor.ID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, derivacion)
}

// AcceptDerivacionRequest optionally chains the ownership transfer
type AcceptDerivacionRequest struct {
	TakeOwnership bool `json:"take_ownership"`
}

// AcceptDerivacionHandler accepts a pending referral. With
// take_ownership set the addressee is also assigned as an active
// responsible; prior owners are never released implicitly.
func AcceptDerivacionHandler(c echo.Context) error {
	actor := middleware.GetActingUser(c)

	var req AcceptDerivacionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	derivacion, err := services.AcceptDerivacion(db.DB, Notifier, c.Param("id"), actor.ID)
	if err != nil {
		return writeServiceError(c, err)
	}

	if req.TakeOwnership {
		if _, err := services.AssignResponsible(db.DB, derivacion.ServiceID, actor.ID); err != nil &&
			!errors.Is(err, services.ErrAlreadyResponsible) {
			return writeServiceError(c, err)
		}
	}
	return c.JSON(http.StatusOK, derivacion)
}

// CancelDerivacionRequest is the JSON body for reject/cancel
type CancelDerivacionRequest struct {
	Reason string `json:"reason"`
}

// CancelDerivacionHandler terminates a pending referral
func CancelDerivacionHandler(c echo.Context) error {
	actor := middleware.GetActingUser(c)

	var req CancelDerivacionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	derivacion, err := services.CancelDerivacion(db.DB, Notifier, c.Param("id"), actor.ID, req.Reason)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, derivacion)
}

// MarkDerivacionViewedHandler records that the addressee saw the referral
func MarkDerivacionViewedHandler(c echo.Context) error {
	actor := middleware.GetActingUser(c)

	derivacion, err := services.MarkDerivacionViewed(db.DB, c.Param("id"), actor.ID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, derivacion)
}

func derivacionFiltersFromQuery(c echo.Context) (services.DerivacionFilters, error) {
	dateFrom, err := parseDateParam(c, "date_from")
	if err != nil {
		return services.DerivacionFilters{}, err
	}
	dateTo, err := parseDateParam(c, "date_to")
	if err != nil {
		return services.DerivacionFilters{}, err
	}
	return services.DerivacionFilters{
		ServiceID: c.QueryParam("service_id"),
		Priority:  c.QueryParam("priority"),
		DateFrom:  dateFrom,
		DateTo:    dateTo,
		Order:     parseOrdering(c),
	}, nil
}

// GetPendingDerivacionesHandler lists referrals awaiting the actor
func GetPendingDerivacionesHandler(c echo.Context) error {
	actor := middleware.GetActingUser(c)

	filters, err := derivacionFiltersFromQuery(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	page, limit := parsePagination(c)
	items, total, err := services.GetPendingDerivacionesForUser(db.DB, actor.ID, filters, page, limit)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, ListResponse{Items: items, Total: total, Page: page, Size: limit})
}

// GetSentDerivacionesHandler lists referrals the actor proposed
func GetSentDerivacionesHandler(c echo.Context) error {
	actor := middleware.GetActingUser(c)

	filters, err := derivacionFiltersFromQuery(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	page, limit := parsePagination(c)
	items, total, err := services.GetDerivacionesSentByUser(db.DB, actor.ID, filters, page, limit)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, ListResponse{Items: items, Total: total, Page: page, Size: limit})
}

// GetServiceDerivacionesHandler returns a case's full referral history
func GetServiceDerivacionesHandler(c echo.Context) error {
	if _, err := services.GetServiceByID(db.DB, c.Param("id")); err != nil {
		return writeServiceError(c, err)
	}
	items, err := services.GetDerivacionesByService(db.DB, c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}
