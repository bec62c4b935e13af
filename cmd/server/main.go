package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/storefront/api"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/metrics"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to YAML config")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := newLogger(&cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting storefront server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Driver))

	// Pricing constants
	taxRate, err := decimal.NewFromString(cfg.Shop.TaxRate)
	if err != nil {
		logger.Fatal("Invalid tax rate", zap.String("tax_rate", cfg.Shop.TaxRate), zap.Error(err))
	}
	shippingCost, err := decimal.NewFromString(cfg.Shop.ShippingCost)
	if err != nil {
		logger.Fatal("Invalid shipping cost", zap.String("shipping_cost", cfg.Shop.ShippingCost), zap.Error(err))
	}

	// Persistence
	store, err := newStore(cfg)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()

	// Optional product cache
	var cache *repository.ProductCache
	if cfg.Redis.Addr != "" {
		cache = repository.NewProductCache(&cfg.Redis)
		if err := cache.Ping(ctx); err != nil {
			logger.Warn("Redis connection failed, continuing without cache", zap.Error(err))
			cache = nil
		} else {
			logger.Info("Redis connected successfully")
			defer cache.Close()
		}
	}

	// Optional audit trail
	var audit repository.AuditTrail = repository.NopAuditTrail{}
	if cfg.MongoDB.URI != "" {
		mongoAudit, err := repository.NewMongoAuditTrail(&cfg.MongoDB, logger)
		if err != nil {
			logger.Warn("MongoDB connection failed, continuing without audit trail", zap.Error(err))
		} else {
			audit = mongoAudit
			defer mongoAudit.Close(ctx)
		}
	}

	// Metrics
	registry := prometheus.NewRegistry()
	shopMetrics := metrics.New(registry)

	// Services
	products := service.NewProductService(store, cache, logger)
	orders := service.NewOrderService(store, cache, audit, shopMetrics, logger, taxRate, shippingCost)

	// HTTP server
	server := api.NewServer(cfg, logger, store, products, orders, registry)
	server.SetupRoutes()

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func newStore(cfg *config.Config) (repository.Store, error) {
	switch cfg.Database.Driver {
	case "memory":
		return repository.NewMemoryStore(), nil
	case "mysql", "":
		return repository.NewGormStore(&cfg.Database)
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}
}

func newLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.Encoding != "" {
		zapCfg.Encoding = cfg.Encoding
	}
	if len(cfg.OutputPaths) > 0 {
		zapCfg.OutputPaths = cfg.OutputPaths
	}
	return zapCfg.Build()
}
