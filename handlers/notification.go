package handlers

import (
	"net/http"

	"notary_flow_go/db"
	"notary_flow_go/middleware"
	"notary_flow_go/services"

	"github.com/labstack/echo/v4"
)

// GetNotificationsHandler lists the actor's unread notifications
func GetNotificationsHandler(c echo.Context) error {
	actor := middleware.GetActingUser(c)

	notifications, err := services.GetUnreadNotifications(db.DB, actor.ID, 20)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, notifications)
}

// MarkNotificationReadHandler marks one notification as read
func MarkNotificationReadHandler(c echo.Context) error {
	actor := middleware.GetActingUser(c)

	if err := services.MarkNotificationRead(db.DB, c.Param("id"), actor.ID); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "notification read"})
}
