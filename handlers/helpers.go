package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"notary_flow_go/services"

	"github.com/labstack/echo/v4"
)

// ListResponse is the envelope every listing endpoint returns
type ListResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
}

// parsePagination reads page/limit query params with sane bounds
func parsePagination(c echo.Context) (page, limit int) {
	page = 1
	limit = 20
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	return page, limit
}

// parseDateParam reads an optional YYYY-MM-DD query param. A malformed
// value is an error, not an absent filter.
func parseDateParam(c echo.Context, name string) (*time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, services.NewValidationError(name, "expected YYYY-MM-DD")
	}
	return &t, nil
}

// parseOrdering reads the order_by/order_dir query params. The field is
// validated against the listing's sortable columns downstream.
func parseOrdering(c echo.Context) services.Ordering {
	return services.Ordering{
		Field: c.QueryParam("order_by"),
		Desc:  strings.EqualFold(c.QueryParam("order_dir"), "desc"),
	}
}

// writeServiceError maps the core error taxonomy onto HTTP statuses:
// validation 422 with the field map, not-found 404, conflict 409,
// authorization 403.
func writeServiceError(c echo.Context, err error) error {
	if ve, ok := services.IsValidationError(err); ok {
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation failed",
			"fields": ve.Fields,
		})
	}
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrNotAuthorized):
		return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}
}
