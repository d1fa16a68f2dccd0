package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vsc-eco/vsc-amm/exchange"
	"github.com/vsc-eco/vsc-amm/ledger"
	"github.com/vsc-eco/vsc-amm/services/gateway"
)

func main() {
	configPath := flag.String("config", "", "path to a gateway config file (optional)")
	flag.Parse()

	cfg, err := gateway.LoadConfig(*configPath)
	if err != nil {
		log.Fatal("load config: ", err)
	}
	logger, err := gateway.BuildLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("build logger: ", err)
	}
	defer logger.Sync()

	hub := gateway.NewHub(logger)
	clock := exchange.NewIntervalClock(0, cfg.BlockInterval)
	node := gateway.NewNode(ledger.Address(cfg.RegistryAddr), clock, hub)
	srv := gateway.NewServer(node, hub, logger, cfg.ListenAddr)

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting gateway",
			zap.String("listen_addr", cfg.ListenAddr),
			zap.String("registry", cfg.RegistryAddr),
			zap.Duration("block_interval", cfg.BlockInterval))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("gateway failed", zap.Error(err))
		}
	}()

	<-c
	logger.Info("shutting down gateway")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("gateway stopped")
}
