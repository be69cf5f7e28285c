package adminapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/vtryon/lensmart/internal/domain"
	"github.com/vtryon/lensmart/internal/order"
	"github.com/vtryon/lensmart/internal/webserver"
)

func registerOrderRoutes() {
	webserver.ApiGET("/orders", listOrders)
	webserver.ApiGET("/orders/:id", getOrder)
	webserver.ApiPUT("/orders/:id/status", adminUpdateOrderStatus)
}

// ordersQuery applies the common listing filters. from/to accept any
// reasonable date format.
func ordersQuery(c echo.Context) *gorm.DB {
	base := GetDB(c).Model(&domain.Order{})
	if status := c.QueryParam("status"); status != "" {
		base = base.Where("status = ?", status)
	}
	if userId := c.QueryParam("user_id"); userId != "" {
		base = base.Where("user_id = ?", userId)
	}
	if from := c.QueryParam("from"); from != "" {
		if t, err := dateparse.ParseLocal(from); err == nil {
			base = base.Where("created_at >= ?", t)
		}
	}
	if to := c.QueryParam("to"); to != "" {
		if t, err := dateparse.ParseLocal(to); err == nil {
			base = base.Where("created_at <= ?", t)
		}
	}
	return base
}

// resolveOrderViews attaches the owner contact to every registered order
func resolveOrderViews(c echo.Context, orders []domain.Order) []domain.OrderView {
	ids := make([]int64, 0, len(orders))
	seen := map[int64]bool{}
	for _, ord := range orders {
		if ord.UserId != nil && !seen[*ord.UserId] {
			seen[*ord.UserId] = true
			ids = append(ids, *ord.UserId)
		}
	}
	usersById := map[int64]domain.User{}
	if len(ids) > 0 {
		var users []domain.User
		if err := GetDB(c).Where("id IN ?", ids).Find(&users).Error; err == nil {
			for _, u := range users {
				usersById[u.ID] = u
			}
		}
	}
	return domain.OrderViews(orders, usersById)
}

func listOrders(c echo.Context) error {
	page, pageSize := parsePagination(c)
	base := ordersQuery(c)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}

	var orders []domain.Order
	if err := base.Preload("Items").Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&orders).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	return paged(c, resolveOrderViews(c, orders), total, page, pageSize)
}

func getOrder(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var ord domain.Order
	if err := GetDB(c).Preload("Items").Where("id = ?", id).First(&ord).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query order", err.Error())
	}
	return ok(c, resolveOrderViews(c, []domain.Order{ord})[0])
}

func adminUpdateOrderStatus(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse status parameters", nil)
	}

	claims := webserver.CurrentClaims(c)
	actor := order.Actor{Admin: true}
	if claims != nil {
		actor.UserId = claims.UserId
	}

	sm := order.NewStateMachine(webserver.App().DB())
	ord, err := sm.UpdateStatus(c.Request().Context(), id, strings.TrimSpace(payload.Status), actor)
	if err != nil {
		var it *order.InvalidTransitionError
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			return fail(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found", nil)
		case errors.As(err, &it):
			return fail(c, http.StatusBadRequest, "INVALID_TRANSITION", it.Error(), nil)
		case order.IsValidation(err):
			return fail(c, http.StatusBadRequest, "INVALID_STATUS", err.Error(), nil)
		default:
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update order", err.Error())
		}
	}
	auditLog(c, "order.status", ord.Status)
	return ok(c, resolveOrderViews(c, []domain.Order{*ord})[0])
}
