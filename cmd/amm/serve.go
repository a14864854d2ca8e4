package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"monadAMM/internal/api"
	"monadAMM/internal/config"
	"monadAMM/internal/metrics"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	poolCfg, err := cfg.Pool.AMM()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry, cfg.Store.Name, poolCfg)
	loaded, err := loadPool(ctx, cfg.Config, b, collector, logger)
	if err != nil {
		return err
	}
	collector.Sync(loaded.pool.State())

	server := api.NewServer(cfg.Addr, api.NewHandler(loaded.pool, registry, logger))

	logger.Info("serve start",
		zap.String("addr", cfg.Addr),
		zap.String("state_backend", cfg.Store.Backend),
		zap.Uint64("last_applied", loaded.lastApplied),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Stop(shutdownCtx)
	})
	return g.Wait()
}
