package handlers

import (
	"net/http"

	"notary_flow_go/db"
	"notary_flow_go/services"

	"github.com/labstack/echo/v4"
)

// AssignResponsibleRequest is the JSON body for opening an assignment
type AssignResponsibleRequest struct {
	UserID string `json:"user_id"`
}

// AssignResponsibleHandler adds an active owner to a service
func AssignResponsibleHandler(c echo.Context) error {
	var req AssignResponsibleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if _, err := services.GetServiceByID(db.DB, c.Param("id")); err != nil {
		return writeServiceError(c, err)
	}
	if _, err := services.GetUser(db.DB, req.UserID); err != nil {
		return writeServiceError(c, err)
	}

	assignment, err := services.AssignResponsible(db.DB, c.Param("id"), req.UserID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, assignment)
}

// ReleaseResponsibleHandler closes a user's active assignment
func ReleaseResponsibleHandler(c echo.Context) error {
	var req AssignResponsibleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := services.ReleaseResponsible(db.DB, c.Param("id"), req.UserID); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "assignment released"})
}

// GetActiveResponsiblesHandler lists the current owners of a service
func GetActiveResponsiblesHandler(c echo.Context) error {
	if _, err := services.GetServiceByID(db.DB, c.Param("id")); err != nil {
		return writeServiceError(c, err)
	}
	assignments, err := services.GetActiveResponsibles(db.DB, c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, assignments)
}
