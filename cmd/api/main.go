package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sparrow-parcel/internal/core/cache"
	"sparrow-parcel/internal/core/config"
	"sparrow-parcel/internal/core/database"
	"sparrow-parcel/internal/core/logger"
	"sparrow-parcel/internal/core/notify"
	"sparrow-parcel/internal/core/server"

	commissionadapter "sparrow-parcel/internal/features/commissions/adapters"
	commissionhandler "sparrow-parcel/internal/features/commissions/handler"
	commissionservice "sparrow-parcel/internal/features/commissions/service"
	consolidationadapter "sparrow-parcel/internal/features/consolidations/adapters"
	consolidationhandler "sparrow-parcel/internal/features/consolidations/handler"
	consolidationservice "sparrow-parcel/internal/features/consolidations/service"
	deliveryadapter "sparrow-parcel/internal/features/deliveries/adapters"
	deliveryhandler "sparrow-parcel/internal/features/deliveries/handler"
	deliveryservice "sparrow-parcel/internal/features/deliveries/service"
	directoryadapter "sparrow-parcel/internal/features/directory/adapters"
	earningsadapter "sparrow-parcel/internal/features/earnings/adapters"
	earningshandler "sparrow-parcel/internal/features/earnings/handler"
	earningsservice "sparrow-parcel/internal/features/earnings/service"
	invoiceadapter "sparrow-parcel/internal/features/invoices/adapters"
	invoicehandler "sparrow-parcel/internal/features/invoices/handler"
	invoiceservice "sparrow-parcel/internal/features/invoices/service"
	parceladapter "sparrow-parcel/internal/features/parcels/adapters"
	parcelhandler "sparrow-parcel/internal/features/parcels/handler"
	parcelservice "sparrow-parcel/internal/features/parcels/service"
	paymentadapter "sparrow-parcel/internal/features/payments/adapters"
	paymenthandler "sparrow-parcel/internal/features/payments/handler"
	paymentservice "sparrow-parcel/internal/features/payments/service"
	trackeradapter "sparrow-parcel/internal/features/tracker/adapters"
	trackerhandler "sparrow-parcel/internal/features/tracker/handler"
	trackerservice "sparrow-parcel/internal/features/tracker/service"
	trackingadapter "sparrow-parcel/internal/features/tracking/adapters"
	trackinghandler "sparrow-parcel/internal/features/tracking/handler"
	trackingservice "sparrow-parcel/internal/features/tracking/service"

	"go.uber.org/zap"
)

// @title Sparrow Parcel Service API
// @version 1.0
// @description Parcel logistics backend covering parcels, consolidations, deliveries, driver earnings, tracking, invoicing and payments.
// @contact.name API Support
// @contact.email support@sparrow.lk
// @license.name MIT
// @host localhost:8002
// @BasePath /
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

	ctx := context.Background()

	mongo, err := database.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		l.Fatal("MongoDB connection failed", zap.Error(err))
	}
	db := mongo.Database()
	l.Info("MongoDB connection verified", zap.String("database", cfg.Mongo.Database))

	redisCache, err := cache.NewRedisAdapter(cfg.Redis.URL)
	if err != nil {
		l.Fatal("Redis connection failed", zap.Error(err))
	}
	if err := redisCache.Ping(ctx); err != nil {
		l.Fatal("Redis ping failed", zap.Error(err))
	}
	l.Info("Redis connection verified")

	dispatcher := notify.NewDispatcher(cfg.Notifications.ServiceURL)

	directory := directoryadapter.NewMongoDirectory(db)

	// Repositories
	parcelRepo := parceladapter.NewMongoParcelRepository(db, directory, directory)
	consolidationRepo := consolidationadapter.NewMongoConsolidationRepository(db)
	deliveryRepo := deliveryadapter.NewMongoDeliveryRepository(db, directory, directory)
	earningsRepo := earningsadapter.NewMongoEarningsRepository(db, directory, deliveryRepo)
	settingsRepo := commissionadapter.NewMongoSettingsRepository(db)
	trackingRepo := trackingadapter.NewCachedTrackingRepository(
		trackingadapter.NewMongoTrackingRepository(db, directory),
		redisCache,
		time.Duration(cfg.Redis.TrackingTTLSeconds)*time.Second,
	)
	trackerRepo := trackeradapter.NewMongoTrackerRepository(db, directory)
	invoiceRepo := invoiceadapter.NewMongoInvoiceRepository(db, directory)
	paymentRepo := paymentadapter.NewMongoPaymentRepository(db, directory)

	// Services
	parcelSvc := parcelservice.NewParcelService(parcelRepo)
	consolidationSvc := consolidationservice.NewConsolidationService(consolidationRepo, parcelRepo)
	settingsSvc := commissionservice.NewSettingsService(settingsRepo)
	earningsSvc := earningsservice.NewEarningsService(earningsRepo, directory, deliveryRepo, settingsSvc, dispatcher)
	deliverySvc := deliveryservice.NewDeliveryService(deliveryRepo, directory, directory, dispatcher, earningsSvc)
	trackingSvc := trackingservice.NewTrackingService(trackingRepo, parcelRepo)
	trackerSvc := trackerservice.NewTrackerService(trackerRepo, parcelRepo)
	invoiceSvc := invoiceservice.NewInvoiceService(invoiceRepo, dispatcher)
	paymentSvc := paymentservice.NewPaymentService(paymentRepo, invoiceRepo, dispatcher)

	srv := server.New(cfg)

	api := srv.App.Group("/api")
	parcelhandler.NewParcelHandler(parcelSvc).RegisterRoutes(api.Group("/parcels"))
	consolidationhandler.NewConsolidationHandler(consolidationSvc).RegisterRoutes(api.Group("/consolidations"))
	deliveryhandler.NewDeliveryHandler(deliverySvc).RegisterRoutes(api.Group("/deliveries"))
	earningshandler.NewEarningsHandler(earningsSvc).RegisterRoutes(api.Group("/earnings"))
	commissionhandler.NewSettingsHandler(settingsSvc).RegisterRoutes(api.Group("/commission-settings"))
	trackinghandler.NewTrackingHandler(trackingSvc).RegisterRoutes(api.Group("/tracking"))
	trackerhandler.NewTrackerHandler(trackerSvc).RegisterRoutes(api.Group("/tracker"))
	invoicehandler.NewInvoiceHandler(invoiceSvc).RegisterRoutes(api.Group("/invoice"))
	paymenthandler.NewPaymentHandler(paymentSvc).RegisterRoutes(api.Group("/payment"))
	srv.RegisterNotFound()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			l.Fatal("Server failed to start", zap.Error(err))
		}
	case sig := <-quit:
		l.Info("Shutting down", zap.String("signal", sig.String()))
	}

	if err := srv.Shutdown(); err != nil {
		l.Error("Server shutdown failed", zap.Error(err))
	}
	dispatcher.Close()
	if err := redisCache.Close(); err != nil {
		l.Error("Redis close failed", zap.Error(err))
	}
	if err := mongo.Disconnect(ctx); err != nil {
		l.Error("MongoDB disconnect failed", zap.Error(err))
	}
	l.Info("Shutdown complete")
}
