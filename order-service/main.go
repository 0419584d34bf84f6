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
	"commerce-core/order-service/config"
	"commerce-core/order-service/models"
	"commerce-core/order-service/repository"
	"commerce-core/order-service/routes"
	"commerce-core/order-service/services"
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

	db, err := database.ConnectPostgres(cfg.Postgres, zl, &models.Order{}, &models.OrderItem{})
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}

	brokers := strings.Split(cfg.KafkaBrokers, ",")
	producer := events.NewProducer(brokers, zl)
	defer producer.Close()

	repo := repository.NewGormOrderRepository(db)
	service := services.NewOrderService(repo, cfg.Pricing, producer, zl)

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	consumer := services.NewCheckoutConsumer(brokers, cfg.CheckoutTopic, cfg.ConsumerGroup, service, zl)
	go consumer.Start(consumerCtx)

	router := gin.New()
	router.Use(gin.Recovery(), logger.RequestLogger(zl))
	routes.RegisterOrderRoutes(router, service)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		zl.Info("Order service running", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zl.Info("Shutting down gracefully")
	cancelConsumer()
	consumer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Fatal("Shutdown error", zap.Error(err))
	}
}
