package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/congo-pay/congo_bridge/internal/bridge"
	"github.com/congo-pay/congo_bridge/internal/chain"
	"github.com/congo-pay/congo_bridge/internal/config"
	"github.com/congo-pay/congo_bridge/internal/infra"
	"github.com/congo-pay/congo_bridge/internal/ledger"
	"github.com/congo-pay/congo_bridge/internal/logging"
	"github.com/congo-pay/congo_bridge/internal/notification"
	"github.com/congo-pay/congo_bridge/internal/routes"
	"github.com/congo-pay/congo_bridge/internal/server"
	"github.com/congo-pay/congo_bridge/internal/watcher"
	"github.com/congo-pay/congo_bridge/internal/withdraw"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("connect redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}()

	ledgerStore := ledger.NewPostgresLedger(db)
	if err := ledgerStore.EnsureSchema(ctx); err != nil {
		logger.Error("ledger schema", "error", err)
		os.Exit(1)
	}

	intents := withdraw.NewPostgresRepository(db)
	if err := intents.EnsureSchema(ctx); err != nil {
		logger.Error("intents schema", "error", err)
		os.Exit(1)
	}

	source, err := chain.NewDepositContract(cfg.ChainARPCURL, cfg.DepositContractAddress, logging.Named(logger, "chain_a"))
	if err != nil {
		logger.Error("chain A client", "error", err)
		os.Exit(1)
	}

	treasuryKey, err := chain.LoadTreasuryKey(cfg.TreasuryPrivateKey)
	if err != nil {
		logger.Error("treasury key", "error", err)
		os.Exit(1)
	}

	minter, err := chain.NewTreasuryMinter(cfg.ChainBRPCURL, cfg.TokenContractAddress, treasuryKey, logging.Named(logger, "chain_b"))
	if err != nil {
		logger.Error("chain B client", "error", err)
		os.Exit(1)
	}

	depositWatcher := watcher.New(source, ledgerStore, watcher.NewRedisCursor(cache), watcher.Config{
		Confirmations: cfg.Confirmations,
		StartBlock:    cfg.StartBlock,
		PollInterval:  cfg.PollInterval,
	}, logging.Named(logger, "watcher"))

	notifier := notification.NewLoggerNotifier(logger)
	withdrawals := withdraw.NewService(ledgerStore, minter, intents, notifier, cfg.ConfirmTimeout, logging.Named(logger, "withdrawals"))
	bridgeSvc := bridge.NewService(ledgerStore, withdrawals, depositWatcher, source, logger)

	// The watcher lives until this context is cancelled at shutdown.
	bridgeCtx, stopBridge := context.WithCancel(ctx)
	defer stopBridge()
	if err := bridgeSvc.Initialize(bridgeCtx); err != nil {
		logger.Error("initialize bridge", "error", err)
		os.Exit(1)
	}

	srv, err := server.New(routes.Deps{Cfg: cfg, DB: db, Cache: cache, Bridge: bridgeSvc, Logger: logger})
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	stopBridge()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
