package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof" // registers pprof handlers on the default mux
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio_tracker/internal/app/service"
	"portfolio_tracker/internal/infrastructure/catalogloader"
	"portfolio_tracker/internal/infrastructure/configloader"
	"portfolio_tracker/internal/infrastructure/httpclient"
	clientprovider "portfolio_tracker/internal/infrastructure/network/client"
	"portfolio_tracker/internal/infrastructure/restapi"
	"portfolio_tracker/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// Bootstrap logger for the phase before configuration is loaded.
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	cfgPath := getEnv("CONFIG_PATH", "config/config.yml")
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapCfg := zap.NewProductionConfig()
	if lvl, lvlErr := zapcore.ParseLevel(cfg.Logging.Level); lvlErr == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	zapLogger, err := zapCfg.Build()
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// Bridge slog onto zap so the package-level logger and the
	// port.Logger adapter share one sink.
	slogHandler := zapslog.NewHandler(zapLogger.Core(), &zapslog.HandlerOptions{})
	logger.SetHandler(slogHandler)
	appLogger := logger.NewSlogAdapter()

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	catalog, err := catalogloader.Load(cfg.CatalogPath, appLogger)
	if err != nil {
		zapLogger.Fatal("Failed to load asset catalog", zap.String("path", cfg.CatalogPath), zap.Error(err))
	}

	priceAPIClient := httpclient.NewCoinGeckoClient(
		cfg.CoinGecko.BaseURL,
		cfg.CoinGecko.APIKey,
		cfg.CoinGecko.VsCurrency,
		time.Duration(cfg.CoinGecko.ClientTimeoutSeconds)*time.Second,
		zapLogger,
	)

	priceService := service.NewPriceService(priceAPIClient, service.PriceServiceOptions{
		TTL:          time.Duration(cfg.PriceSvc.CacheTTLSeconds) * time.Second,
		MaxRetries:   cfg.PriceSvc.MaxRetries,
		RetryDelay:   time.Duration(cfg.PriceSvc.RetryDelayMs) * time.Millisecond,
		RateLimit:    rate.Limit(cfg.CoinGecko.RateLimitPerSecond),
		FetchTimeout: time.Duration(cfg.CoinGecko.ClientTimeoutSeconds) * time.Second,
	}, zapLogger)

	fetcherProvider := clientprovider.NewEVMClientProvider(
		time.Duration(cfg.Performance.RPCCallTimeoutSeconds)*time.Second,
		appLogger,
	)

	aggregator := service.NewBalanceAggregator(
		catalog,
		fetcherProvider,
		cfg.Performance.MaxConcurrentRoutines,
		zapLogger,
	)

	tracker := service.NewTracker(
		catalog,
		aggregator,
		priceService,
		cfg.Tracker.OwnerAddress,
		time.Duration(cfg.Tracker.PollIntervalSeconds)*time.Second,
		zapLogger,
	)

	trackerCtx, trackerCancel := context.WithCancel(context.Background())
	defer trackerCancel()
	go tracker.Run(trackerCtx)

	portfolioHandler := restapi.NewPortfolioHandler(tracker, catalog, appLogger)
	router := restapi.SetupRouter(portfolioHandler)
	router.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))

	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan

	zapLogger.Info("Shutdown signal received, stopping HTTP server...")
	trackerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Error during HTTP server shutdown", zap.Error(err))
	} else {
		zapLogger.Info("HTTP server stopped")
	}
}
