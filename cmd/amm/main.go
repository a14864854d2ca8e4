package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "amm",
		Short:        "Two-asset constant-product pool",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Apply a JSONL operation script to the pool",
		RunE:  runReplay,
	}
	addCommonFlags(replayCmd.Flags())
	replayCmd.Flags().String("in", "", "input operations JSONL")
	replayCmd.Flags().String("journal", "./data/events.jsonl", "event journal JSONL (appended)")
	replayCmd.Flags().String("errors", "./data/operation_errors.jsonl", "rejected operations JSONL")
	replayCmd.Flags().Uint64("batch-size", 100, "operations per persisted batch")
	replayCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address while replaying")
	root.AddCommand(replayCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a swap against the persisted pool",
		RunE:  runQuote,
	}
	addCommonFlags(quoteCmd.Flags())
	quoteCmd.Flags().String("asset-in", "", "input asset (token address or native)")
	quoteCmd.Flags().String("amount-in", "", "input amount in base units")
	quoteCmd.Flags().String("min-amount-out", "0", "minimum acceptable output in base units")
	root.AddCommand(quoteCmd)

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print reserves, positions and badges",
		RunE:  runInspect,
	}
	addCommonFlags(inspectCmd.Flags())
	inspectCmd.Flags().Int("meta-cache-size", 256, "token metadata cache entries")
	root.AddCommand(inspectCmd)

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Decode the event journal into typed events",
		RunE:  runEvents,
	}
	addCommonFlags(eventsCmd.Flags())
	eventsCmd.Flags().String("in", "", "journal JSONL; empty reads the pebble journal")
	eventsCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL")
	eventsCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	eventsCmd.Flags().Uint64("from", 0, "first sequence to read from the pebble journal")
	root.AddCommand(eventsCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only query API and metrics",
		RunE:  runServe,
	}
	addCommonFlags(serveCmd.Flags())
	serveCmd.Flags().String("addr", ":8080", "listen address")
	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(flags *pflag.FlagSet) {
	flags.String("token-a", "", "asset a (token address or native)")
	flags.String("token-b", "", "asset b (token address or native)")
	flags.Uint("fee-bps", 30, "swap fee in basis points")
	flags.String("min-reserve", "1", "smallest reserve a swap may leave")
	flags.String("badge-base-uri", "", "badge metadata URI prefix")
	flags.String("pool-address", "", "account holding the pool's assets")
	flags.Uint64("chain-id", 10143, "chain id stamped on journal records")
	flags.String("state-backend", "file", "state backend (file, postgres, pebble)")
	flags.String("state-file", "./data/state.json", "state file for the file backend")
	flags.String("pebble-dir", "./data/pebble", "database directory for the pebble backend")
	flags.String("pg-dsn", "", "Postgres DSN for the postgres backend")
	flags.String("state-name", "default", "pool name within the state backend")
	flags.String("rpc", "", "JSON-RPC URL for token metadata")
	flags.Int("max-retries", 5, "maximum retry attempts")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
