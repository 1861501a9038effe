package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/lumora-shop/marketplace-api/internal/client"
	"github.com/lumora-shop/marketplace-api/internal/config"
	"github.com/lumora-shop/marketplace-api/internal/handler"
	"github.com/lumora-shop/marketplace-api/internal/logging"
	"github.com/lumora-shop/marketplace-api/internal/repository"
	"github.com/lumora-shop/marketplace-api/internal/server"
	"github.com/lumora-shop/marketplace-api/internal/service"
	"go.uber.org/zap"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := client.InitMysqlClient(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("init database", zap.Error(err))
	}

	gateway := client.NewMidtransClient(&cfg.Midtrans)

	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	sellerRepo := repository.NewSellerRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	cartService := service.NewCartService(cartRepo, productRepo, logger)
	checkoutService := service.NewCheckoutService(
		db, gateway,
		cartRepo, productRepo, orderRepo, addressRepo, customerRepo,
		logger,
	)
	reconcileService := service.NewReconcileService(
		db, gateway,
		orderRepo, productRepo, notificationRepo,
		logger,
	)
	salesService := service.NewSalesService(orderRepo, sellerRepo, productRepo)
	orderService := service.NewOrderService(
		db,
		orderRepo, notificationRepo,
		salesService, reconcileService,
		logger,
	)
	reviewService := service.NewReviewService(reviewRepo, orderRepo, sellerRepo, logger)

	srv := server.NewServer(
		handler.NewCartHandler(cartService),
		handler.NewOrderHandler(checkoutService, orderService),
		handler.NewPaymentHandler(reconcileService, logger),
		handler.NewReviewHandler(reviewService),
		cfg.Auth.JWTSecret,
		logger,
	)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	logger.Info("starting HTTP server", zap.String("addr", serverAddr))
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logger.Info("signal received, starting graceful shutdown")

	if err := srv.Shutdown(); err != nil {
		logger.Fatal("HTTP server shutdown error", zap.Error(err))
	}
}
