package middleware

import (
	"net/http"

	"notary_flow_go/db"
	"notary_flow_go/models"
	"notary_flow_go/services"

	"github.com/labstack/echo/v4"
)

const (
	// ActingUserHeader carries the authenticated user id resolved by the
	// identity provider at the edge. This core trusts the id it is given.
	ActingUserHeader = "X-Acting-User"
	// ContextKeyUser is the context key for the acting user
	ContextKeyUser = "user"
)

// RequireActor is middleware that requires an authenticated acting user
func RequireActor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := c.Request().Header.Get(ActingUserHeader)
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing acting user")
			}

			user, err := services.GetUser(db.DB, userID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown acting user")
			}
			if !user.IsActive {
				return echo.NewHTTPError(http.StatusForbidden, "acting user is not active")
			}

			c.Set(ContextKeyUser, user)
			return next(c)
		}
	}
}

// GetActingUser retrieves the acting user from context
func GetActingUser(c echo.Context) *models.User {
	user, ok := c.Get(ContextKeyUser).(*models.User)
	if !ok {
		return nil
	}
	return user
}
