package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"commerce-core/common/database"
	"commerce-core/common/logger"
	"commerce-core/payment-service/clients"
	"commerce-core/payment-service/config"
	"commerce-core/payment-service/models"
	"commerce-core/payment-service/processor"
	"commerce-core/payment-service/repository"
	"commerce-core/payment-service/routes"
	"commerce-core/payment-service/services"
	"commerce-core/pkg/events"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	db, err := database.ConnectPostgres(cfg.Postgres, zl, &models.Payment{})
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}

	producer := events.NewProducer(strings.Split(cfg.KafkaBrokers, ","), zl)
	defer producer.Close()

	var cardGateway processor.Gateway
	if cfg.StripeSecretKey != "" {
		cardGateway = processor.NewStripeGateway(cfg.StripeSecretKey)
	} else {
		zl.Warn("No Stripe key configured, card payments use the simulated gateway")
		cardGateway = &processor.SimulatedGateway{Delay: 100 * time.Millisecond}
	}

	var paypalGateway processor.Gateway
	if cfg.PayPalClientID != "" {
		paypalGateway = processor.NewPayPalGateway(cfg.PayPalBaseURL, cfg.PayPalClientID, cfg.PayPalSecret)
	} else {
		zl.Warn("No PayPal credentials configured, PayPal payments use the simulated gateway")
		paypalGateway = &processor.SimulatedGateway{Delay: 100 * time.Millisecond}
	}

	factory := processor.NewFactory(
		processor.NewCardProcessor(cardGateway, cfg.GatewayTimeout, zl),
		processor.NewPayPalProcessor(paypalGateway, cfg.GatewayTimeout, zl),
	)

	var orders clients.OrderAmounts
	if cfg.OrderServiceURL != "" {
		orders = clients.NewOrderClient(cfg.OrderServiceURL)
	}

	repo := repository.NewGormPaymentRepository(db)
	service := services.NewPaymentService(repo, factory, orders, producer, cfg.Currency, cfg.ValidateAmounts, zl)

	router := gin.New()
	router.Use(gin.Recovery(), logger.RequestLogger(zl))
	routes.RegisterPaymentRoutes(router, service)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		zl.Info("Payment service running", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zl.Info("Shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Fatal("Shutdown error", zap.Error(err))
	}
}
