package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blazing_api/internal/app/provider"
	"blazing_api/internal/app/service"
	"blazing_api/internal/infrastructure/configloader"
	"blazing_api/internal/infrastructure/metrics"
	"blazing_api/internal/infrastructure/network/client"
	"blazing_api/internal/infrastructure/restapi"
	"blazing_api/internal/infrastructure/tokenloader"
	"blazing_api/internal/pkg/logger"
	"blazing_api/internal/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultConfigPath = "config/config.yml"

func main() {
	configPath := utils.GetEnv("CONFIG_PATH", defaultConfigPath)
	cfg, err := configloader.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to load configuration %s: %v\n", configPath, err)
		os.Exit(1)
	}

	zapLogger, err := logger.NewZap(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	logger.Init(zapLogger, cfg.Logging.Level)
	gin.SetMode(ginMode(cfg.Logging.Level))

	logger.Info("Batch transfer service starting", "config", configPath, "log_level", cfg.Logging.Level)
	appLogger := logger.NewSlogAdapter()

	rpcURLs := append([]string{cfg.Chain.PrimaryRPCURL}, cfg.Chain.FallbackRPCURLs...)
	evmClient, err := client.NewEVMClient(client.Options{
		RPCURLs:           rpcURLs,
		ExpectedChainID:   cfg.Chain.ChainID,
		ContractAddress:   cfg.ContractAddress(),
		OperatorAddress:   cfg.OperatorAddress(),
		OperatorKeyHex:    cfg.Chain.OperatorPrivateKey,
		ConnectionTimeout: time.Duration(cfg.Chain.ConnectTimeoutSeconds) * time.Second,
		PollInterval:      time.Duration(cfg.Chain.ReceiptPollIntervalMillis) * time.Millisecond,
		RateLimit:         cfg.RPCClient.RateLimit,
		BurstLimit:        cfg.RPCClient.BurstLimit,
		MaxBatchSize:      cfg.RPCClient.MaxBatchSize,
	}, appLogger.With("component", "evm_client"))
	if err != nil {
		logger.Fatal("Failed to connect to the chain", "error", err)
	}
	defer evmClient.Close()

	registry, err := tokenloader.NewTokenLoader(cfg.Tokens.RegistryFile, appLogger.Info, appLogger.Warn).
		LoadTokens(cfg.Chain.ChainID)
	if err != nil {
		logger.Fatal("Failed to load token registry", "path", cfg.Tokens.RegistryFile, "error", err)
	}
	tokenProvider := provider.NewTokenProvider(
		registry,
		evmClient,
		cfg.Chain.NativeSymbol,
		time.Duration(cfg.Cache.DefaultExpirationMinutes)*time.Minute,
		time.Duration(cfg.Cache.CleanupIntervalMinutes)*time.Minute,
		appLogger.With("component", "token_provider"),
	)

	transferMetrics := metrics.New(prometheus.DefaultRegisterer)
	transferService := service.NewTransferService(evmClient, transferMetrics,
		appLogger.With("component", "transfer_service"), cfg.Performance.MaxConcurrentReads)
	balanceService := service.NewBalanceService(evmClient, tokenProvider, evmClient.Address(),
		appLogger.With("component", "balance_service"))
	logger.Info("Services initialized", "contract", evmClient.Address().Hex(),
		"max_concurrent_reads", cfg.Performance.MaxConcurrentReads)

	router := restapi.SetupRouter(restapi.Handlers{
		Transfers: restapi.NewTransferHandler(transferService),
		Balances:  restapi.NewBalanceHandler(balanceService, appLogger.With("component", "balance_handler")),
		Health:    restapi.NewHealthHandler(evmClient, 5*time.Second, appLogger.With("component", "health")),
	}, restapi.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		SwaggerEnabled: cfg.Swagger.Enabled,
		SwaggerSpec:    cfg.Swagger.SpecFile,
		Gatherer:       prometheus.DefaultGatherer,
	}, zapLogger.Named("http"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", "address", srv.Addr, "swagger", cfg.Swagger.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start HTTP server", "error", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan

	// In-flight settlements wait for their receipts; give them room to finish.
	logger.Info("Shutdown signal received, draining HTTP server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
	} else {
		logger.Info("HTTP server stopped")
	}
	logger.Info("Batch transfer service stopped")
}

// ginMode keeps gin in debug mode only when the logger itself runs at debug.
func ginMode(level string) string {
	if logger.ParseLevel(level) == slog.LevelDebug {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}
