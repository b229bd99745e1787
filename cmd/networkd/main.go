package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"wallet_network/internal/app/port"
	"wallet_network/internal/app/service"
	"wallet_network/internal/domain/entity"
	"wallet_network/internal/infrastructure/assets"
	"wallet_network/internal/infrastructure/configloader"
	"wallet_network/internal/infrastructure/explorer"
	"wallet_network/internal/infrastructure/history"
	"wallet_network/internal/infrastructure/navigation"
	"wallet_network/internal/infrastructure/network/client"
	"wallet_network/internal/infrastructure/network/evm"
	"wallet_network/internal/infrastructure/platform"
	"wallet_network/internal/infrastructure/restapi"
	"wallet_network/internal/infrastructure/storage"
	"wallet_network/internal/infrastructure/wallet"
	"wallet_network/internal/infrastructure/walletloader"
	"wallet_network/internal/pkg/logger"
	"wallet_network/internal/pkg/metrics"
)

// version is overridable at link time:
//
//	go build -ldflags "-X main.version=1.2.0"
var version = "dev"

func main() {
	fs := flag.NewFlagSet("networkd", flag.ExitOnError)
	cfgPath := fs.StringP("config", "c", configloader.PathFromEnv(), "Path to the YAML config file")
	logLevel := fs.String("log-level", "", "Override logging.level from the config")
	showVersion := fs.Bool("version", false, "Print version and exit")
	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("networkd %s\n", version)
		return
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	cfg, err := configloader.Load(*cfgPath, log)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	zapLogger, err := logger.NewZap(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	logger.Init(zapLogger)
	defer logger.Sync()
	if _, ok := logger.ParseLevel(cfg.Logging.Level); !ok {
		zapLogger.Warn("Invalid log level string, defaulting to INFO", zap.String("input", cfg.Logging.Level))
	}

	zapLogger.Info("Configuration loaded", zap.String("path", *cfgPath), zap.String("version", version), zap.String("storage", cfg.Storage.Backend))

	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Fatal("networkd stopped with error", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}

func openStore(cfg *configloader.Config, zapLogger *zap.Logger) (port.KeyValueStore, error) {
	switch cfg.Storage.Backend {
	case configloader.StorageMemory:
		return storage.NewMemoryStore(zapLogger), nil
	case configloader.StorageSQLite:
		return storage.OpenSQLiteStore(cfg.Storage.Path, zapLogger)
	default:
		return storage.OpenFileStore(cfg.Storage.Path, zapLogger)
	}
}

func run(cfg *configloader.Config, zapLogger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	kv, err := openStore(cfg, zapLogger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	if closer, ok := kv.(io.Closer); ok {
		defer closer.Close()
	}
	gateway := service.NewPersistenceGateway(kv)
	registry := service.NewNetworkRegistry(gateway, logger.NewComponentLogger(zapLogger, "NetworkRegistry"))
	state := service.NewSessionState()

	conn := client.NewConnection(client.ConnectionOptions{
		RequestTimeout: cfg.RequestTimeout(),
		RatePerSecond:  cfg.Node.RateLimitPerSecond,
		Burst:          cfg.Node.RateLimitBurst,
	}, zapLogger)
	info := client.NewInfoClient(conn, zapLogger)
	xChain := client.NewChainClient(conn, entity.ChainX, zapLogger)
	pChain := client.NewChainClient(conn, entity.ChainP, zapLogger)
	cChain := client.NewChainClient(conn, entity.ChainC, zapLogger)

	evmProvider := evm.NewProvider(cfg.RequestTimeout(), zapLogger)
	defer evmProvider.Close()
	explorerClient := explorer.NewClient(cfg.RequestTimeout(), zapLogger)

	walletSession := wallet.NewSession(zapLogger)
	assetStore := assets.NewStore(xChain, evmProvider, walletSession,
		time.Duration(cfg.Session.AssetCacheTTLMinutes)*time.Minute, zapLogger)
	staking := platform.NewService(pChain, zapLogger)
	historyStore := history.NewStore(explorerClient, 50, zapLogger)
	router := navigation.NewRouter("/", zapLogger)

	coord := service.NewSessionCoordinator(service.CoordinatorDeps{
		Connection: conn,
		Info:       info,
		Chains:     []port.ChainClient{xChain, pChain, cChain},
		Explorer:   explorerClient,
		EVM:        evmProvider,
		Assets:     assetStore,
		Staking:    staking,
		History:    historyStore,
		Router:     router,
		Auth:       walletSession,
		Store:      gateway,
		Metrics:    collector,
		Logger:     logger.NewComponentLogger(zapLogger, "SessionCoordinator"),
	}, state, service.CoordinatorOptions{
		SettleDelay: cfg.SettleDelay(),
		TaskTimeout: cfg.TaskTimeout(),
		WalletPath:  cfg.Session.WalletPath,
	})
	defer coord.Close()

	if cfg.Wallet.AccountsFile != "" {
		loader := walletloader.NewAccountFileLoader(cfg.Wallet.AccountsFile, state, logger.NewComponentLogger(zapLogger, "AccountLoader"), zapLogger)
		accounts, err := loader.LoadAccounts()
		if err != nil {
			zapLogger.Warn("Wallet accounts not loaded", zap.Error(err))
		} else if len(accounts) > 0 {
			walletSession.Login(accounts...)
		}
	}

	bootstrapper := service.NewBootstrapper(registry, gateway, coord, logger.NewComponentLogger(zapLogger, "Bootstrapper"))
	initCtx, cancelInit := context.WithTimeout(context.Background(), cfg.TaskTimeout())
	if !bootstrapper.Init(initCtx) {
		zapLogger.Warn("Initial network connection failed, select a network to retry")
	}
	cancelInit()

	gin.SetMode(gin.ReleaseMode)
	handler := restapi.NewHandler(registry, coord, assetStore, staking, historyStore, zapLogger)
	handler.SetViewReader(router)
	handler.SetChains(xChain, pChain, cChain)
	walletHandler := restapi.NewWalletHandler(walletSession, coord, zapLogger)
	opts := restapi.RouterOptions{
		CORSOrigins: cfg.Server.CORSOrigins,
		EnablePprof: cfg.Server.EnablePprof,
	}
	if cfg.Metrics.Enabled {
		opts.MetricsPath = cfg.Metrics.Path
		opts.Gatherer = reg
	}
	engine := restapi.SetupRouter(handler, walletHandler, opts, zapLogger)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zapLogger.Info("Server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	}
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
