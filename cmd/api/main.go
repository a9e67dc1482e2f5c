package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-orders/internal/core/cache"
	"storefront-orders/internal/core/config"
	"storefront-orders/internal/core/httpclient"
	"storefront-orders/internal/core/logger"
	"storefront-orders/internal/core/mailer"
	"storefront-orders/internal/core/proxy"
	"storefront-orders/internal/core/server"
	catalogadapter "storefront-orders/internal/features/catalog/adapters"
	cataloghandler "storefront-orders/internal/features/catalog/handler"
	catalogservice "storefront-orders/internal/features/catalog/service"
	orderadapter "storefront-orders/internal/features/orders/adapters"
	orderhandler "storefront-orders/internal/features/orders/handler"
	orderservice "storefront-orders/internal/features/orders/service"
	paymentadapter "storefront-orders/internal/features/payment/adapters"
	paymenthandler "storefront-orders/internal/features/payment/handler"
	paymentservice "storefront-orders/internal/features/payment/service"
	shippingadapter "storefront-orders/internal/features/shipping/adapters"
	shippinghandler "storefront-orders/internal/features/shipping/handler"
	shippingservice "storefront-orders/internal/features/shipping/service"

	"go.uber.org/zap"
)

// @title Storefront Orders API
// @version 1.0
// @description Order lifecycle for the storefront: checkout, payment verification, shipment creation and tracking.
// @contact.name API Support
// @contact.email support@storefront.example
// @license.name MIT
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	// Initialize the document store and run Health Check
	store, err := cache.NewRedisAdapter(cfg.Redis.URL)
	if err != nil {
		l.Fatal("Invalid Redis configuration", zap.Error(err))
	}
	defer store.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = store.Ping(pingCtx)
	cancel()
	if err != nil {
		l.Fatal("Redis Health Check Failed", zap.Error(err))
	}
	l.Info("Redis connection verified")

	outbound := proxy.FromConfig(cfg.Proxy)

	// Catalog
	productRepo := catalogadapter.NewRedisProductRepository(store.Client())
	catalogSvc := catalogservice.NewCatalogService(productRepo)
	catalogHdl := cataloghandler.NewProductHandler(catalogSvc)

	// Orders
	orderRepo := orderadapter.NewRedisOrderRepository(store.Client())
	orderSvc := orderservice.NewOrderService(orderRepo, productRepo, mailer.New(cfg.SMTP))
	orderHdl := orderhandler.NewOrderHandler(orderSvc)

	// Payment
	razorpay := paymentadapter.NewRazorpayAdapter(httpclient.NewClient("razorpay", cfg.HTTPTimeout, outbound), cfg.Razorpay)
	paymentSvc := paymentservice.NewPaymentService(razorpay, orderSvc, cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.Currency)
	paymentHdl := paymenthandler.NewPaymentHandler(paymentSvc)

	// Shipping
	shiprocket := shippingadapter.NewShiprocketAdapter(httpclient.NewClient("shiprocket", cfg.HTTPTimeout, outbound), store, cfg.Shipping)
	shipmentRepo := shippingadapter.NewRedisShipmentRepository(store.Client())
	shippingSvc := shippingservice.NewShippingService(shipmentRepo, shiprocket, orderSvc, cfg.Shipping)
	shippingHdl := shippinghandler.NewShippingHandler(shippingSvc)

	orderSvc.SetShipmentLookup(shippingSvc)

	srv := server.New(cfg, store.Ping)

	// Register Routes
	catalogHdl.Register(srv.App)
	orderHdl.Register(srv.App)
	paymentHdl.Register(srv.App)
	shippingHdl.Register(srv.App)

	go func() {
		if err := srv.Run(); err != nil {
			l.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	l.Info("Shutting down server")
	if err := srv.Shutdown(10 * time.Second); err != nil {
		l.Error("Server shutdown failed", zap.Error(err))
	}
}
