package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lumora-shop/marketplace-api/internal/dto"
	"github.com/lumora-shop/marketplace-api/internal/service"
)

type ReviewHandler struct {
	reviewService service.ReviewService
}

func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

func (h *ReviewHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := identityFromContext(c)
	if err != nil {
		return err
	}

	var req dto.CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	review, err := h.reviewService.Create(ctx, identity.UserID, req.OrderItemID, req.Rating, req.Comment)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "review created successfully",
		"data":    review,
	})
}
