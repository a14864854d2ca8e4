package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"monadAMM/internal/amm"
	"monadAMM/internal/config"
)

type quoteOutput struct {
	AssetIn          string `json:"asset_in"`
	AssetOut         string `json:"asset_out"`
	AmountIn         string `json:"amount_in"`
	AmountInAfterFee string `json:"amount_in_after_fee"`
	Fee              string `json:"fee"`
	AmountOut        string `json:"amount_out"`
	ReserveInAfter   string `json:"reserve_in_after"`
	ReserveOutAfter  string `json:"reserve_out_after"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
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

	rawAsset, _ := cmd.Flags().GetString("asset-in")
	rawAmount, _ := cmd.Flags().GetString("amount-in")
	rawMin, _ := cmd.Flags().GetString("min-amount-out")
	assetIn, err := amm.ParseAsset(rawAsset)
	if err != nil {
		return err
	}
	amountIn, err := amm.ParseAmount(rawAmount)
	if err != nil {
		return fmt.Errorf("amount-in: %w", err)
	}
	minOut, err := amm.ParseAmount(rawMin)
	if err != nil {
		return fmt.Errorf("min-amount-out: %w", err)
	}

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

	q, err := loaded.pool.Quote(assetIn, amountIn, minOut)
	if err != nil {
		return fmt.Errorf("quote [%s]: %w", amm.ErrorCode(err), err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(quoteOutput{
		AssetIn:          q.AssetIn.String(),
		AssetOut:         q.AssetOut.String(),
		AmountIn:         amm.Dec(q.AmountIn),
		AmountInAfterFee: amm.Dec(q.AmountInAfterFee),
		Fee:              amm.Dec(q.Fee),
		AmountOut:        amm.Dec(q.AmountOut),
		ReserveInAfter:   amm.Dec(q.ReserveInAfter),
		ReserveOutAfter:  amm.Dec(q.ReserveOutAfter),
	})
}
