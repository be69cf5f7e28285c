package storeapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vtryon/lensmart/internal/domain"
	"github.com/vtryon/lensmart/internal/order"
	"github.com/vtryon/lensmart/internal/webserver"
)

func registerCheckoutRoutes() {
	webserver.AuthPOST("/orders", placeOrder)
	webserver.PubPOST("/orders/guest", placeGuestOrder)
	webserver.AuthGET("/orders", listOwnOrders)
	webserver.AuthGET("/orders/:id", getOwnOrder)
	webserver.AuthPUT("/orders/:id/status", updateOrderStatus)
	webserver.AuthPOST("/orders/:id/cancel", cancelOrder)
}

type orderLinePayload struct {
	ProductId int64 `json:"product_id,string"`
	Qty       int   `json:"qty"`
}

type checkoutPayload struct {
	Items           []orderLinePayload     `json:"items"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`

	// guest checkout only
	Guest *struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
	} `json:"guest,omitempty"`
}

func (p *checkoutPayload) lines() []order.OrderLine {
	lines := make([]order.OrderLine, 0, len(p.Items))
	for _, it := range p.Items {
		lines = append(lines, order.OrderLine{ProductId: it.ProductId, Qty: it.Qty})
	}
	return lines
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

func resolveOrderView(c echo.Context, ord *domain.Order) domain.OrderView {
	return resolveOrderViews(c, []domain.Order{*ord})[0]
}

// failCheckout maps the coordinator's typed errors onto the envelope.
// Every rejected checkout is the caller's problem, so all three cases
// answer 400; 404 is reserved for unknown order ids.
func failCheckout(c echo.Context, err error) error {
	var nf *order.ProductNotFoundError
	var is *order.InsufficientStockError
	switch {
	case order.IsValidation(err):
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.As(err, &nf):
		return fail(c, http.StatusBadRequest, "PRODUCT_NOT_FOUND", nf.Error())
	case errors.As(err, &is):
		return fail(c, http.StatusBadRequest, "INSUFFICIENT_STOCK", is.Error())
	default:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to place order")
	}
}

func placeOrder(c echo.Context) error {
	claims := webserver.CurrentClaims(c)
	if claims == nil {
		return fail(c, http.StatusUnauthorized, "NOT_AUTHORIZED", "Not authorized")
	}
	var payload checkoutPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse order parameters")
	}

	userId := claims.UserId
	co := order.NewCoordinator(webserver.App().DB())
	ord, err := co.CreateOrder(c.Request().Context(), order.CreateOrderRequest{
		UserId:          &userId,
		Items:           payload.lines(),
		ShippingAddress: payload.ShippingAddress,
		PaymentMethod:   payload.PaymentMethod,
	})
	if err != nil {
		return failCheckout(c, err)
	}
	webserver.App().PublishOrderCreated(ord.ID)
	return ok(c, resolveOrderView(c, ord))
}

func placeGuestOrder(c echo.Context) error {
	if !webserver.App().ConfigMgr().GetBool("checkout", "GuestEnabled") {
		return fail(c, http.StatusForbidden, "GUEST_DISABLED", "Guest checkout is disabled")
	}
	var payload checkoutPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse order parameters")
	}
	if payload.Guest == nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Guest contact details are required")
	}

	co := order.NewCoordinator(webserver.App().DB())
	ord, err := co.CreateOrder(c.Request().Context(), order.CreateOrderRequest{
		Guest: &order.GuestInfo{
			FullName: payload.Guest.FullName,
			Email:    payload.Guest.Email,
			Phone:    payload.Guest.Phone,
		},
		Items:           payload.lines(),
		ShippingAddress: payload.ShippingAddress,
		PaymentMethod:   payload.PaymentMethod,
	})
	if err != nil {
		return failCheckout(c, err)
	}
	webserver.App().PublishOrderCreated(ord.ID)
	return ok(c, resolveOrderView(c, ord))
}

// listOwnOrders returns the requester's orders newest first; admins see
// every order.
func listOwnOrders(c echo.Context) error {
	claims := webserver.CurrentClaims(c)
	if claims == nil {
		return fail(c, http.StatusUnauthorized, "NOT_AUTHORIZED", "Not authorized")
	}
	query := GetDB(c).Preload("Items").Order("created_at DESC")
	if !claims.IsAdmin {
		query = query.Where("user_id = ?", claims.UserId)
	}
	var orders []domain.Order
	if err := query.Find(&orders).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders")
	}
	return ok(c, resolveOrderViews(c, orders))
}

func getOwnOrder(c echo.Context) error {
	claims := webserver.CurrentClaims(c)
	if claims == nil {
		return fail(c, http.StatusUnauthorized, "NOT_AUTHORIZED", "Not authorized")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID")
	}
	var ord domain.Order
	if err := GetDB(c).Preload("Items").Where("id = ?", id).First(&ord).Error; err != nil {
		return fail(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
	}
	owner := ord.UserId != nil && *ord.UserId == claims.UserId
	if !owner && !claims.IsAdmin {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Not your order")
	}
	return ok(c, resolveOrderView(c, &ord))
}

func updateOrderStatus(c echo.Context) error {
	claims := webserver.CurrentClaims(c)
	if claims == nil {
		return fail(c, http.StatusUnauthorized, "NOT_AUTHORIZED", "Not authorized")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID")
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse status parameters")
	}

	sm := order.NewStateMachine(webserver.App().DB())
	ord, err := sm.UpdateStatus(c.Request().Context(), id, strings.TrimSpace(payload.Status),
		order.Actor{UserId: claims.UserId, Admin: claims.IsAdmin})
	if err != nil {
		return failTransition(c, err)
	}
	return ok(c, resolveOrderView(c, ord))
}

func cancelOrder(c echo.Context) error {
	claims := webserver.CurrentClaims(c)
	if claims == nil {
		return fail(c, http.StatusUnauthorized, "NOT_AUTHORIZED", "Not authorized")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID")
	}

	sm := order.NewStateMachine(webserver.App().DB())
	ord, err := sm.Cancel(c.Request().Context(), id,
		order.Actor{UserId: claims.UserId, Admin: claims.IsAdmin})
	if err != nil {
		return failTransition(c, err)
	}
	return ok(c, resolveOrderView(c, ord))
}

func failTransition(c echo.Context, err error) error {
	var it *order.InvalidTransitionError
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		return fail(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
	case errors.Is(err, order.ErrForbidden):
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Not authorized for this order")
	case errors.As(err, &it):
		return fail(c, http.StatusBadRequest, "INVALID_TRANSITION", it.Error())
	case order.IsValidation(err):
		return fail(c, http.StatusBadRequest, "INVALID_STATUS", err.Error())
	default:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update order")
	}
}
