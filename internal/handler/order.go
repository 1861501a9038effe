package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lumora-shop/marketplace-api/internal/dto"
	"github.com/lumora-shop/marketplace-api/internal/model"
	"github.com/lumora-shop/marketplace-api/internal/service"
)

type OrderHandler struct {
	checkoutService service.CheckoutService
	orderService    service.OrderService
}

func NewOrderHandler(checkoutService service.CheckoutService, orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
		orderService:    orderService,
	}
}

func (h *OrderHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := identityFromContext(c)
	if err != nil {
		return err
	}

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if req.AddressID == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "address_id is required")
	}

	result, err := h.checkoutService.Checkout(ctx, identity.UserID, req.AddressID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "order created successfully",
		"data":    result,
	})
}

func (h *OrderHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := identityFromContext(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	filter := dto.OrderListFilter{
		Status:         c.QueryParam("status"),
		ShippingStatus: c.QueryParam("shipping_status"),
		OrderID:        c.QueryParam("order_id"),
		DateFrom:       c.QueryParam("date_from"),
		DateTo:         c.QueryParam("date_to"),
	}

	list, err := h.orderService.List(ctx, identity, filter, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   list,
	})
}

func (h *OrderHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := identityFromContext(c)
	if err != nil {
		return err
	}

	order, err := h.orderService.Get(ctx, identity, c.Param("orderID"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   order,
	})
}

func (h *OrderHandler) UpdateShippingStatus(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := identityFromContext(c)
	if err != nil {
		return err
	}

	var req dto.UpdateShippingStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := h.orderService.UpdateShippingStatus(ctx, identity, c.Param("orderID"),
		model.ShippingStatus(req.ShippingStatus))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "shipping status updated successfully",
		"data":    result,
	})
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := identityFromContext(c)
	if err != nil {
		return err
	}

	var req dto.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := h.orderService.UpdateStatus(ctx, identity, c.Param("orderID"),
		model.PaymentStatus(req.Status))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "payment status updated successfully",
		"data":    result,
	})
}

func (h *OrderHandler) NotificationHistory(c echo.Context) error {
	ctx := c.Request().Context()

	if _, err := identityFromContext(c); err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	notifications, total, err := h.orderService.NotificationHistory(ctx, c.Param("orderID"), page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"notifications": notifications,
			"total":         total,
		},
	})
}
