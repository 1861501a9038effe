package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/lumora-shop/marketplace-api/internal/apperror"
	"github.com/lumora-shop/marketplace-api/internal/handler"
	"github.com/lumora-shop/marketplace-api/internal/middleware"
	"go.uber.org/zap"
)

type Server struct {
	echo           *echo.Echo
	cartHandler    *handler.CartHandler
	orderHandler   *handler.OrderHandler
	paymentHandler *handler.PaymentHandler
	reviewHandler  *handler.ReviewHandler
	jwtSecret      string
}

func NewServer(
	cartHandler *handler.CartHandler,
	orderHandler *handler.OrderHandler,
	paymentHandler *handler.PaymentHandler,
	reviewHandler *handler.ReviewHandler,
	jwtSecret string,
	logger *zap.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	e.HTTPErrorHandler = errorHandler(logger)

	s := &Server{
		echo:           e,
		cartHandler:    cartHandler,
		orderHandler:   orderHandler,
		paymentHandler: paymentHandler,
		reviewHandler:  reviewHandler,
		jwtSecret:      jwtSecret,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- gateway webhook (unauthenticated, always 200) --------
	api.POST("/payments/notification", s.paymentHandler.Notification)

	authed := api.Group("", middleware.Auth(s.jwtSecret))

	// -------- cart --------
	cart := authed.Group("/cart")
	cart.GET("", s.cartHandler.View)
	cart.DELETE("", s.cartHandler.Clear)
	cart.GET("/count", s.cartHandler.ItemCount)
	cart.GET("/stock-check", s.cartHandler.CheckStock)
	cart.POST("/items", s.cartHandler.AddItem)
	cart.PUT("/items/:cartItemID", s.cartHandler.UpdateItem)
	cart.DELETE("/items/:cartItemID", s.cartHandler.RemoveItem)

	// -------- orders --------
	orders := authed.Group("/orders")
	orders.POST("", s.orderHandler.Checkout)
	orders.GET("", s.orderHandler.List)
	orders.GET("/:orderID", s.orderHandler.Get)
	orders.PATCH("/:orderID/shipping-status", s.orderHandler.UpdateShippingStatus)
	orders.PATCH("/:orderID/status", s.orderHandler.UpdateStatus)
	orders.GET("/:orderID/notifications", s.orderHandler.NotificationHistory)

	// -------- reviews --------
	authed.POST("/reviews", s.reviewHandler.Create)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}

func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			_ = c.JSON(httpErr.Code, map[string]interface{}{
				"status":  "error",
				"message": httpErr.Message,
			})
			return
		}

		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			body := map[string]interface{}{
				"status":  "error",
				"message": appErr.Message,
			}
			for key, value := range appErr.Details {
				body[key] = value
			}
			_ = c.JSON(statusCode(appErr.Kind), body)
			return
		}

		logger.Error("unhandled error",
			zap.String("path", c.Path()),
			zap.Error(err))
		_ = c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  "error",
			"message": "internal server error",
		})
	}
}

func statusCode(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindConflict:
		return http.StatusUnprocessableEntity
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindUnauthorized:
		return http.StatusForbidden
	case apperror.KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
