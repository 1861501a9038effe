package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lumora-shop/marketplace-api/internal/dto"
	"github.com/lumora-shop/marketplace-api/internal/middleware"
	"github.com/lumora-shop/marketplace-api/internal/service"
)

type CartHandler struct {
	cartService service.CartService
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

func identityFromContext(c echo.Context) (dto.Identity, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return dto.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}
	return identity, nil
}

func (h *CartHandler) View(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := identityFromContext(c)
	if err != nil {
		return err
	}

	summary, err := h.cartService.View(ctx, identity.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := identityFromContext(c)
	if err != nil {
		return err
	}

	var req dto.AddItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	if err := h.cartService.AddItem(ctx, identity.UserID, req.ProductID, req.Quantity); err != nil {
		return err
	}

	summary, err := h.cartService.View(ctx, identity.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "product added to cart",
		"data":    summary,
	})
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := identityFromContext(c)
	if err != nil {
		return err
	}

	var req dto.UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	if err := h.cartService.UpdateItem(ctx, identity.UserID, c.Param("cartItemID"), req.Quantity); err != nil {
		return err
	}

	summary, err := h.cartService.View(ctx, identity.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "cart item updated",
		"data":    summary,
	})
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := identityFromContext(c)
	if err != nil {
		return err
	}

	if err := h.cartService.RemoveItem(ctx, identity.UserID, c.Param("cartItemID")); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "item removed from cart",
	})
}

func (h *CartHandler) Clear(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := identityFromContext(c)
	if err != nil {
		return err
	}

	if err := h.cartService.Clear(ctx, identity.UserID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "cart cleared",
	})
}

func (h *CartHandler) ItemCount(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := identityFromContext(c)
	if err != nil {
		return err
	}

	count, err := h.cartService.ItemCount(ctx, identity.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   map[string]int64{"item_count": count},
	})
}

func (h *CartHandler) CheckStock(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := identityFromContext(c)
	if err != nil {
		return err
	}

	check, err := h.cartService.CheckStock(ctx, identity.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   check,
	})
}
