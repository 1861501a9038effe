package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lumora-shop/marketplace-api/internal/service"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	reconcileService service.ReconcileService
	logger           *zap.Logger
}

func NewPaymentHandler(reconcileService service.ReconcileService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		reconcileService: reconcileService,
		logger:           logger,
	}
}

// Notification is the gateway webhook endpoint. It always acknowledges
// with 200: a reconciliation failure is an operator problem, not a reason
// for the provider to retry forever. The audit trail persists either way.
func (h *PaymentHandler) Notification(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "error",
			"message": "unreadable request body",
		})
	}

	if err := h.reconcileService.HandleNotification(ctx, body); err != nil {
		h.logger.Error("payment notification reconciliation failed", zap.Error(err))
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "success",
		"message": "notification processed successfully",
	})
}
