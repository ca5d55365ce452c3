// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"medeasy-api-server/config"
	"medeasy-api-server/internal/api/routes"
	"medeasy-api-server/internal/auth"
	"medeasy-api-server/internal/database"
	"medeasy-api-server/internal/logger"
	"medeasy-api-server/internal/s3"
	"medeasy-api-server/internal/service"
	"medeasy-api-server/internal/socket"
	"medeasy-api-server/internal/store"
	"medeasy-api-server/internal/store/memstore"
	"medeasy-api-server/internal/store/mongostore"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

func main() {
	// 1. Config
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	// 2. Logger
	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Could not build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Storage
	var (
		stores store.Stores
		ping   func(context.Context) error
	)
	switch cfg.Storage.Driver {
	case "memory":
		stores = memstore.New().Stores()
		zl.Warn("using in-memory storage; data is lost on exit")
	default:
		client, err := database.Connect(ctx, cfg.Mongo)
		if err != nil {
			zl.Fatal("mongo unavailable", zap.Error(err))
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		db := client.Database(cfg.Mongo.DBName)
		if err := database.EnsureIndexes(ctx, db); err != nil {
			zl.Fatal("could not create indexes", zap.Error(err))
		}
		stores = mongostore.New(db).Stores()
		ping = func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
	}

	// 4. Catalogue seed
	if cfg.Seed.OnStartup {
		report, err := database.SeedCatalogFile(ctx, stores, cfg.Seed.CatalogPath)
		if err != nil {
			zl.Fatal("seeding failed", zap.String("path", cfg.Seed.CatalogPath), zap.Error(err))
		}
		zl.Info("catalogue seeded",
			zap.Int("medicines", report.Medicines),
			zap.Int("retailers", report.Retailers),
			zap.Int("wholesalers", report.Wholesalers),
			zap.Int("stock_links", report.StockLinks),
		)
	}

	// 5. Image uploads are optional
	var uploader service.ImageUploader
	if cfg.S3.Enabled() {
		u, err := s3.NewUploader(ctx, cfg.S3)
		if err != nil {
			zl.Fatal("could not create S3 uploader", zap.Error(err))
		}
		uploader = u
	} else {
		zl.Info("S3 not configured; image uploads disabled")
	}

	// 6. Services and router
	tokens := auth.NewManager(cfg.JWT.Secret, cfg.JWT.Expiration, cfg.Auth.BcryptCost)
	hub := socket.NewHub()
	svc := service.New(service.Deps{
		Stores:    stores,
		Tokens:    tokens,
		Uploader:  uploader,
		Publisher: hub,
		Options:   service.OptionsFromConfig(cfg.Marketplace),
	})
	router := routes.SetupRouter(routes.Deps{
		Services:    svc,
		Tokens:      tokens,
		Hub:         hub,
		Logger:      zl,
		CORSOrigins: cfg.Server.CORSOrigins,
		Ping:        ping,
	})

	// 7. Serve until signalled
	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: router}
	go func() {
		zl.Info("starting API server", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}
