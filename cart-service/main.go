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

	"commerce-core/cart-service/config"
	"commerce-core/cart-service/database"
	"commerce-core/cart-service/routes"
	"commerce-core/cart-service/services"
	"commerce-core/common/logger"
	aws_pkg "commerce-core/pkg/aws"
	"commerce-core/pkg/events"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	redisClient, err := database.NewRedisClient(cfg.RedisURL, zl)
	if err != nil {
		zl.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	producer := events.NewProducer(strings.Split(cfg.KafkaBrokers, ","), zl)
	defer producer.Close()

	// SNS fan-out is optional; the service runs without it.
	var snsClient aws_pkg.SNSPublisher
	if cfg.CheckoutSNSArn != "" {
		awsCfg, err := aws_pkg.LoadConfig(context.Background())
		if err != nil {
			zl.Fatal("Failed to load AWS config", zap.Error(err))
		}
		snsClient = aws_pkg.NewSNSClient(awsCfg)
	}

	repo := database.NewCartRepository(redisClient, cfg.CartTTL)
	service := services.NewCartService(repo, producer, snsClient, cfg.CheckoutSNSArn, zl)

	router := gin.New()
	router.Use(gin.Recovery(), logger.RequestLogger(zl))
	routes.RegisterCartRoutes(router, service)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		zl.Info("Cart service running", zap.String("port", cfg.Port))
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
