package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"monadAMM/internal/chain"
	"monadAMM/internal/config"
	"monadAMM/internal/dex"
	"monadAMM/internal/report"
)

func runInspect(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	loaded, err := loadPool(ctx, cfg, b, nil, logger)
	if err != nil {
		return err
	}
	poolCfg := loaded.pool.Config()
	st := loaded.pool.State()

	if cfg.RPCURL == "" {
		r := report.Build(cfg.Store.Name, poolCfg, st, nil, loaded.lastApplied)
		return writeReport(cmd, r)
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, chain.WithRetry(cfg.MaxRetries, cfg.RetryBackoff))
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	tokens, err := cfg.Pool.TokenAddresses()
	if err != nil {
		return err
	}
	cacheSize, _ := cmd.Flags().GetInt("meta-cache-size")
	cache, err := dex.NewTokenMetaCache(cacheSize)
	if err != nil {
		return err
	}
	metas, err := dex.ResolveTokenMetas(ctx, chainClient, cache, tokens, logger)
	if err != nil {
		return fmt.Errorf("resolve token metadata: %w", err)
	}

	r := report.Build(cfg.Store.Name, poolCfg, st, metas, loaded.lastApplied)
	poolAddr, err := cfg.Pool.Address()
	if err != nil {
		return err
	}
	report.AttachBalances(ctx, &r, chainClient, poolAddr, logger)

	logger.Info("inspect complete",
		zap.String("rpc", cfg.RPCURL),
		zap.Int("tokens", len(tokens)),
		zap.String("balance_method", r.BalanceMethod),
	)
	return writeReport(cmd, r)
}

func writeReport(cmd *cobra.Command, r report.Report) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
