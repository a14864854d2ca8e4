package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"monadAMM/internal/amm"
	"monadAMM/internal/config"
	"monadAMM/internal/metrics"
	"monadAMM/internal/replay"
	"monadAMM/internal/storage"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}
	poolCfg, err := cfg.Pool.AMM()
	if err != nil {
		return err
	}
	poolAddr, err := cfg.Pool.Address()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()
	lines, err := replay.ReadLines(inputFile)
	if err != nil {
		return err
	}

	b, err := openBackend(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	var journal storage.Multi
	if cfg.Journal != "" {
		journal = append(journal, storage.NewJsonlStorage(cfg.Journal))
	}
	if b.journal != nil {
		journal = append(journal, b.journal)
	}

	errWriter, err := storage.NewJSONLWriter(cfg.Errors, true)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry, cfg.Store.Name, poolCfg)
	metricsServer := metrics.NewServer(cfg.MetricsAddr, registry)
	go func() {
		if err := metricsServer.Start(); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Stop(shutdownCtx)
	}()

	runner := replay.NewRunner(replay.RunConfig{
		Name:        cfg.Store.Name,
		ChainID:     cfg.Pool.ChainID,
		PoolAddress: poolAddr,
		BatchSize:   cfg.BatchSize,
	}, poolCfg, b.state, logger,
		replay.WithJournal(journal),
		replay.WithErrorWriter(errWriter),
		replay.WithFailureObserver(collector),
		replay.WithEventSink(collector),
	)

	logger.Info("replay start",
		zap.String("in", cfg.In),
		zap.Int("lines", len(lines)),
		zap.String("token_a", cfg.Pool.TokenA),
		zap.String("token_b", cfg.Pool.TokenB),
		zap.Uint16("fee_bps", cfg.Pool.FeeBps),
		zap.String("state_backend", cfg.Store.Backend),
		zap.String("journal", cfg.Journal),
		zap.String("errors", cfg.Errors),
		zap.Uint64("batch_size", cfg.BatchSize),
	)

	summary, err := runner.Run(ctx, lines)
	if err != nil {
		return err
	}

	reserveA, reserveB := runner.Pool().Reserves()
	logger.Info("replay complete",
		zap.Int("applied", summary.Applied),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("events", summary.Events),
		zap.Uint64("last_applied", summary.LastApplied),
		zap.String("reserve_a", amm.Dec(reserveA)),
		zap.String("reserve_b", amm.Dec(reserveB)),
	)
	return nil
}
