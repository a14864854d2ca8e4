package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"monadAMM/internal/config"
	"monadAMM/internal/dex"
	"monadAMM/internal/model"
	"monadAMM/internal/storage"
)

func runEvents(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadEvents(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}
	if cfg.In == "" && cfg.Store.Backend != config.BackendPebble {
		return fmt.Errorf("input path is required unless the pebble backend holds the journal")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	decoder, err := dex.NewPoolDecoder()
	if err != nil {
		return err
	}
	decodeCtx := dex.DecodeContext{
		PoolMeta: model.PoolMeta{TokenA: cfg.Pool.TokenA, TokenB: cfg.Pool.TokenB, FeeBps: cfg.Pool.FeeBps},
		Logger:   logger,
	}

	outWriter, err := storage.NewJSONLWriter(cfg.Out, false)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	errWriter, err := storage.NewJSONLWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("events start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
	)

	var total, decoded, skipped, failed int
	handle := func(record model.LogRecord) error {
		total++
		if len(record.Topics) == 0 {
			failed++
			writeDecodeError(errWriter, decodeErrorFromRecord(record, fmt.Errorf("missing topic0")))
			return nil
		}
		if !decoder.CanDecode(record.Topics[0]) {
			skipped++
			return nil
		}
		event, err := decoder.Decode(record, decodeCtx)
		if err != nil {
			failed++
			writeDecodeError(errWriter, decodeErrorFromRecord(record, err))
			return nil
		}
		decoded++
		return outWriter.Write(event)
	}

	if cfg.In == "" {
		err = decodePebbleJournal(ctx, cfg, logger, handle)
	} else {
		err = decodeFileJournal(cfg.In, errWriter, &total, &failed, handle)
	}
	if err != nil {
		return err
	}

	logger.Info("events complete",
		zap.Int("total", total),
		zap.Int("decoded", decoded),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	return nil
}

func decodeFileJournal(path string, errWriter *storage.JSONLWriter, total, failed *int, handle func(model.LogRecord) error) error {
	inputFile, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	scanner := bufio.NewScanner(inputFile)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			*total++
			*failed++
			writeDecodeError(errWriter, model.DecodeError{Error: err.Error()})
			continue
		}
		if err := handle(record); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}

func decodePebbleJournal(ctx context.Context, cfg config.EventsConfig, logger *zap.Logger, handle func(model.LogRecord) error) error {
	b, err := openBackend(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	records, err := b.pebble.Logs(ctx, cfg.From)
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := handle(record); err != nil {
			return err
		}
	}
	return nil
}

func decodeErrorFromRecord(record model.LogRecord, err error) model.DecodeError {
	topic0 := ""
	if len(record.Topics) > 0 {
		topic0 = record.Topics[0]
	}

	return model.DecodeError{
		Sequence: record.Sequence,
		TxHash:   record.TxHash,
		LogIndex: record.LogIndex,
		Address:  record.Address,
		Topic0:   topic0,
		Error:    err.Error(),
	}
}

func writeDecodeError(writer *storage.JSONLWriter, errRecord model.DecodeError) {
	if writer == nil {
		return
	}
	_ = writer.Write(errRecord)
}
